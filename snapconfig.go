package snapconfig

import (
	"errors"
	"fmt"

	"github.com/hupe1980/snapconfig/codec"
	"github.com/hupe1980/snapconfig/image"
	"github.com/hupe1980/snapconfig/store"
	"github.com/hupe1980/snapconfig/value"
	"github.com/hupe1980/snapconfig/zerocopy"
)

var errUnknownFormat = errors.New("snapconfig: unknown format")

func errUnknownFormatf(name string) error {
	return fmt.Errorf("%w: %q", errUnknownFormat, name)
}

// Config is a handle to one loaded configuration.
//
// It owns the mapping of the cache image; every view it hands out borrows
// from that mapping and must not be used after Close. A Config is safe for
// concurrent readers.
type Config struct {
	session    *zerocopy.Session
	sourcePath string
	cachePath  string
}

// Load loads the configuration at path with automatic caching.
//
// A fresh cache is mapped directly, skipping parse and compile entirely. A
// missing, stale, or structurally invalid cache is recompiled from source
// and rewritten atomically; that self-healing never surfaces as an error. If
// the source is gone but a readable cache remains, the cache is served.
// Only a missing source with no usable cache, or a source parse failure, is
// returned to the caller.
func Load(path string, opts ...Option) (*Config, error) {
	o := applyOptions(opts)
	st := o.newStore()
	c, err := o.codec()
	if err != nil {
		return nil, err
	}
	logger := store.NewLogger(o.logger)

	cachePath := st.CachePath(path, o.cachePath)
	sourceExists := st.SourceExists(path)

	if !o.forceRecompile {
		if !sourceExists || st.IsFresh(path, cachePath) {
			sess, err := zerocopy.Open(cachePath)
			if err == nil {
				logger.CacheHit(path, cachePath)
				return &Config{session: sess, sourcePath: path, cachePath: cachePath}, nil
			}
			if !sourceExists {
				// No source to heal from.
				return nil, fmt.Errorf("%w: %s (and no usable cache)", ErrSourceNotFound, path)
			}
			logger.CacheRecompile(path, cachePath, err.Error())
		} else {
			logger.CacheRecompile(path, cachePath, "stale or missing cache")
		}
	}

	if !sourceExists {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
	}
	if _, err := st.CompileWith(c, path, cachePath); err != nil {
		return nil, err
	}

	sess, err := zerocopy.Open(cachePath)
	if err != nil {
		return nil, fmt.Errorf("snapconfig: open freshly compiled cache: %w", err)
	}
	return &Config{session: sess, sourcePath: path, cachePath: cachePath}, nil
}

// LoadCompiled maps an existing cache image directly, with no freshness
// check and no source file involved. Structural errors are surfaced.
func LoadCompiled(cachePath string) (*Config, error) {
	sess, err := zerocopy.Open(cachePath)
	if err != nil {
		return nil, err
	}
	return &Config{session: sess, cachePath: cachePath}, nil
}

// Loads parses text in the named format and serves it from an in-memory
// image. Nothing touches the filesystem and nothing is cached.
func Loads(text, format string) (*Config, error) {
	c, ok := codec.ByName(format)
	if !ok {
		return nil, errUnknownFormatf(format)
	}
	root, err := c.Parse([]byte(text))
	if err != nil {
		return nil, &ParseError{Format: c.Name(), Err: err}
	}
	img, err := image.Compile(root, image.Fingerprint{})
	if err != nil {
		return nil, err
	}
	sess, err := zerocopy.OpenBytes(img)
	if err != nil {
		return nil, err
	}
	return &Config{session: sess}, nil
}

// Compile parses the source at path and writes its cache image, returning
// the number of bytes written. It always recompiles.
func Compile(path string, opts ...Option) (int64, error) {
	o := applyOptions(opts)
	c, err := o.codec()
	if err != nil {
		return 0, err
	}
	return o.newStore().CompileWith(c, path, o.cachePath)
}

// CacheInfo reports the current state of the source/cache pair for path.
func CacheInfo(path string, opts ...Option) store.CacheInfo {
	o := applyOptions(opts)
	return o.newStore().Info(path, o.cachePath)
}

// ClearCache removes the cache file for path if present. It reports whether
// a file was deleted; clearing an absent cache is not an error.
func ClearCache(path string, opts ...Option) (bool, error) {
	o := applyOptions(opts)
	return o.newStore().Invalidate(path, o.cachePath)
}

// SourcePath returns the source file this Config was loaded from, or "" for
// LoadCompiled and Loads handles.
func (c *Config) SourcePath() string { return c.sourcePath }

// CachePath returns the cache image file backing this Config, or "" for
// Loads handles.
func (c *Config) CachePath() string { return c.cachePath }

// Root returns the zero-copy view of the root node.
func (c *Config) Root() zerocopy.View { return c.session.Root() }

// RootKind returns the type of the root node.
func (c *Config) RootKind() value.Kind { return c.session.Root().Kind() }

// Get resolves a top-level object key. Absence is a normal result.
func (c *Config) Get(key string) (zerocopy.View, bool) { return c.session.Root().Get(key) }

// GetPath resolves a dot-separated path from the root, short-circuiting to
// absent on the first missing segment. Array elements are only reachable via
// View.Index, never through a path.
func (c *Config) GetPath(path string) (zerocopy.View, bool) {
	return c.session.Root().GetPath(path)
}

// Contains reports whether the root object has the given key.
func (c *Config) Contains(key string) bool { return c.session.Root().Contains(key) }

// Len returns the number of root entries (object members or array elements).
func (c *Config) Len() int { return c.session.Root().Len() }

// Keys returns the root object's keys in stored order.
// The strings alias the mapping and are invalidated by Close.
func (c *Config) Keys() []string { return c.session.Root().Keys() }

// ToTree materializes an owned value tree of the whole configuration.
func (c *Config) ToTree() (value.Value, error) { return c.session.Root().ToTree() }

// Close releases the underlying mapping. All views obtained from this
// Config become invalid. Close is idempotent.
func (c *Config) Close() error {
	if c == nil {
		return nil
	}
	return c.session.Close()
}
