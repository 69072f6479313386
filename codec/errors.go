package codec

import "fmt"

// ParseError reports malformed source text. The format adapter's own error
// is available via errors.Unwrap.
type ParseError struct {
	Format string
	Path   string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("parse %s (%s): %v", e.Format, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
