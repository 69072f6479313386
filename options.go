package snapconfig

import (
	"log/slog"

	"github.com/hupe1980/snapconfig/codec"
	"github.com/hupe1980/snapconfig/internal/fs"
	"github.com/hupe1980/snapconfig/store"
)

type options struct {
	cachePath      string
	forceRecompile bool
	format         string
	suffix         string
	contentHash    bool
	logger         *slog.Logger
	fsys           fs.FileSystem
}

// Option configures load, compile and cache-inspection calls.
type Option func(*options)

// WithCachePath overrides the derived cache path for a single call.
func WithCachePath(path string) Option {
	return func(o *options) { o.cachePath = path }
}

// WithForceRecompile makes Load recompile even when the cache is fresh.
func WithForceRecompile(force bool) Option {
	return func(o *options) { o.forceRecompile = force }
}

// WithFormat forces a source format ("json", "yaml", "toml", "ini", "env")
// instead of inferring it from the file extension.
func WithFormat(format string) Option {
	return func(o *options) { o.format = format }
}

// WithSuffix overrides the cache file suffix (default ".snapconfig").
func WithSuffix(suffix string) Option {
	return func(o *options) { o.suffix = suffix }
}

// WithContentHash adds an xxhash64 of the source content to the cache
// fingerprint, catching edits that preserve file size and mtime at the cost
// of reading the source on every freshness check.
func WithContentHash(enabled bool) Option {
	return func(o *options) { o.contentHash = enabled }
}

// WithLogger enables structured debug logging of cache decisions.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithFileSystem injects a filesystem implementation for every stat, read
// and cache write a call performs, mainly to simulate faults in tests.
// It does not cover the memory mapping of an existing cache image.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) { o.fsys = fsys }
}

func applyOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) newStore() *store.Store {
	return store.New(
		store.WithSuffix(o.suffix),
		store.WithContentHash(o.contentHash),
		store.WithLogger(store.NewLogger(o.logger)),
		store.WithFileSystem(o.fsys),
	)
}

func (o *options) codec() (codec.Codec, error) {
	if o.format == "" {
		return nil, nil // let the store pick by extension
	}
	c, ok := codec.ByName(o.format)
	if !ok {
		return nil, errUnknownFormatf(o.format)
	}
	return c, nil
}
