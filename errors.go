package snapconfig

import (
	"github.com/hupe1980/snapconfig/codec"
	"github.com/hupe1980/snapconfig/image"
	"github.com/hupe1980/snapconfig/store"
	"github.com/hupe1980/snapconfig/zerocopy"
)

// Error taxonomy. The engine's packages own their error values; the facade
// re-exports them so callers only import snapconfig.
var (
	// ErrSourceNotFound is returned when the configuration source file does
	// not exist and no usable cache can stand in for it.
	ErrSourceNotFound = store.ErrSourceNotFound

	// ErrUnknownFormat is returned by Loads for an unrecognized format name.
	ErrUnknownFormat = errUnknownFormat

	// ErrInvalidHeader, ErrUnsupportedVersion and ErrTruncated report a
	// structurally invalid cache image. During Load they are recovered by
	// recompiling from source; LoadCompiled surfaces them.
	ErrInvalidHeader      = image.ErrInvalidHeader
	ErrUnsupportedVersion = image.ErrUnsupportedVersion
	ErrTruncated          = image.ErrTruncated

	// ErrImageTooLarge is returned when a compiled image would exceed the
	// format's 32-bit offset addressing width.
	ErrImageTooLarge = image.ErrImageTooLarge

	// ErrClosed is returned by accessors used after the owning handle was
	// closed.
	ErrClosed = zerocopy.ErrClosed
)

// ParseError reports malformed source text; always surfaced, never healed.
type ParseError = codec.ParseError

// TypeMismatchError is returned by typed scalar extraction on a view whose
// node has a different type.
type TypeMismatchError = zerocopy.TypeMismatchError
