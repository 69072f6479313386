// Package store manages compiled cache files on disk: path derivation,
// freshness decisions, atomic writes and invalidation.
//
// A Store carries its own configuration (suffix, filesystem, logger) so a
// process can run several independent stores side by side; there is no
// package-level mutable state.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/snapconfig/codec"
	"github.com/hupe1980/snapconfig/image"
	"github.com/hupe1980/snapconfig/internal/fs"
)

// DefaultSuffix is appended to a source path to derive its cache path.
const DefaultSuffix = ".snapconfig"

// ErrSourceNotFound is returned when the configuration source file is absent.
var ErrSourceNotFound = errors.New("store: source file not found")

// compiles collapses concurrent compilations of the same cache path. It is
// process-wide, keyed by target path, so independently constructed Stores
// racing on one target still share a single compilation.
var compiles singleflight.Group

// Store decides cache freshness and performs atomic cache writes.
type Store struct {
	suffix      string
	fs          fs.FileSystem
	logger      *Logger
	contentHash bool

	tmpSeq atomic.Uint64
}

// Option configures a Store.
type Option func(*Store)

// WithSuffix overrides the cache file suffix (default ".snapconfig").
func WithSuffix(suffix string) Option {
	return func(s *Store) {
		if suffix != "" {
			s.suffix = suffix
		}
	}
}

// WithFileSystem injects a filesystem implementation, mainly for tests.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(s *Store) {
		if fsys != nil {
			s.fs = fsys
		}
	}
}

// WithLogger sets the logger used for cache events. Nil disables logging.
func WithLogger(l *Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithContentHash enables content hashing of the source file.
//
// The default size+mtime fingerprint cannot distinguish a same-size,
// same-timestamp edit from no edit; hashing closes that gap at the cost of
// reading the source on every freshness check.
func WithContentHash(enabled bool) Option {
	return func(s *Store) { s.contentHash = enabled }
}

// New creates a Store.
func New(opts ...Option) *Store {
	s := &Store{
		suffix: DefaultSuffix,
		fs:     fs.Default,
		logger: NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = NopLogger()
	}
	return s
}

// SourceExists reports whether the source file is visible through the
// store's filesystem.
func (s *Store) SourceExists(source string) bool {
	_, err := s.fs.Stat(source)
	return err == nil
}

// CachePath derives the canonical cache path for source: the source path
// with the store's suffix appended. An explicit override wins.
func (s *Store) CachePath(source, override string) string {
	if override != "" {
		return override
	}
	return source + s.suffix
}

// Compile parses source with the codec inferred from its file name, compiles
// the tree into a cache image and atomically writes it to the cache path.
// It returns the number of bytes written.
//
// Concurrent Compile calls for the same cache path inside one process are
// collapsed to a single compilation; independent processes racing on the
// same path each write a complete image and the last rename wins.
func (s *Store) Compile(source, cachePath string) (int64, error) {
	return s.CompileWith(nil, source, cachePath)
}

// CompileWith is Compile with an explicit format codec; nil selects by
// file extension.
func (s *Store) CompileWith(c codec.Codec, source, cachePath string) (int64, error) {
	target := s.CachePath(source, cachePath)

	n, err, _ := compiles.Do(target, func() (any, error) {
		data, fp, err := s.readSource(source)
		if err != nil {
			return int64(0), err
		}

		cc := c
		if cc == nil {
			cc = codec.ByPath(source)
		}
		root, err := cc.Parse(data)
		if err != nil {
			return int64(0), &codec.ParseError{Format: cc.Name(), Path: source, Err: err}
		}

		img, err := image.Compile(root, fp)
		if err != nil {
			return int64(0), err
		}

		if err := s.writeAtomic(target, img); err != nil {
			return int64(0), err
		}
		s.logger.CacheWritten(source, target, int64(len(img)))
		return int64(len(img)), nil
	})
	if err != nil {
		return 0, err
	}
	return n.(int64), nil
}

// IsFresh reports whether the cache at cachePath is usable for source:
// the cache exists, its format version is supported, and its stored source
// fingerprint matches the source file's current fingerprint.
//
// The default check compares size and modification time only; it cannot see
// an edit that preserves both. Enable WithContentHash to close that window.
func (s *Store) IsFresh(source, cachePath string) bool {
	target := s.CachePath(source, cachePath)

	hdr, err := s.readHeader(target)
	if err != nil {
		return false
	}

	fi, err := s.fs.Stat(source)
	if err != nil {
		return false
	}
	if hdr.Source.Size != uint64(fi.Size()) || hdr.Source.MtimeNS != fi.ModTime().UnixNano() {
		return false
	}

	if s.contentHash {
		if !hdr.HasSourceHash() {
			return false
		}
		data, err := s.readFile(source)
		if err != nil {
			return false
		}
		if xxhash.Sum64(data) != hdr.Source.Hash {
			return false
		}
	}
	return true
}

// CacheInfo describes the state of a source/cache pair at a point in time.
// It is computed on demand and never persisted.
type CacheInfo struct {
	SourcePath string
	CachePath  string

	SourceExists bool
	CacheExists  bool
	CacheFresh   bool

	SourceSize    int64
	CacheSize     int64
	SourceModTime time.Time
	CacheModTime  time.Time
}

// Info returns metadata about the source file and its cache.
func (s *Store) Info(source, cachePath string) CacheInfo {
	target := s.CachePath(source, cachePath)
	info := CacheInfo{SourcePath: source, CachePath: target}

	if fi, err := s.fs.Stat(source); err == nil {
		info.SourceExists = true
		info.SourceSize = fi.Size()
		info.SourceModTime = fi.ModTime()
	}
	if fi, err := s.fs.Stat(target); err == nil {
		info.CacheExists = true
		info.CacheSize = fi.Size()
		info.CacheModTime = fi.ModTime()
	}
	if info.SourceExists && info.CacheExists {
		info.CacheFresh = s.IsFresh(source, target)
	}
	return info
}

// Invalidate removes the cache file for source if present. Removing an
// absent cache is not an error; the return value reports whether a file
// was actually deleted.
func (s *Store) Invalidate(source, cachePath string) (bool, error) {
	target := s.CachePath(source, cachePath)
	if err := s.fs.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("store: remove cache: %w", err)
	}
	s.logger.CacheInvalidated(source, target)
	return true, nil
}

// readSource loads the source file and computes its fingerprint.
// Stat runs before the read so a concurrent append can only make the
// fingerprint conservative (stale), never falsely fresh.
func (s *Store) readSource(source string) ([]byte, image.Fingerprint, error) {
	fi, err := s.fs.Stat(source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, image.Fingerprint{}, fmt.Errorf("%w: %s", ErrSourceNotFound, source)
		}
		return nil, image.Fingerprint{}, err
	}

	data, err := s.readFile(source)
	if err != nil {
		return nil, image.Fingerprint{}, err
	}

	fp := image.Fingerprint{
		Size:    uint64(fi.Size()),
		MtimeNS: fi.ModTime().UnixNano(),
	}
	if s.contentHash {
		fp.Hash = xxhash.Sum64(data)
	}
	return data, fp, nil
}

func (s *Store) readFile(name string) ([]byte, error) {
	f, err := s.fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// readHeader reads and validates just the fixed header of a cache file.
func (s *Store) readHeader(path string) (image.Header, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return image.Header{}, err
	}
	defer f.Close()

	buf := make([]byte, image.HeaderSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return image.Header{}, image.ErrTruncated
	}
	hdr, err := image.DecodeHeader(buf)
	if err != nil {
		return image.Header{}, err
	}
	if fi, err := f.Stat(); err == nil && uint64(fi.Size()) < hdr.TotalLen {
		return image.Header{}, image.ErrTruncated
	}
	return hdr, nil
}

// writeAtomic writes data to a unique temp file in the target's directory,
// syncs it, then renames it over the final path. A crash at any step leaves
// at most a stray temp file; the final path only ever holds a complete image.
func (s *Store) writeAtomic(path string, data []byte) (err error) {
	tmp := fmt.Sprintf("%s.tmp-%d-%d", path, os.Getpid(), s.tmpSeq.Add(1))

	f, err := s.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("store: create temp: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			_ = s.fs.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("store: write temp: %w", err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("store: sync temp: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("store: close temp: %w", err)
	}
	if err = s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("store: rename: %w", err)
	}

	// Best-effort directory sync so the rename survives a power cut.
	if d, derr := os.Open(filepath.Dir(path)); derr == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
