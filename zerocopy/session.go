// Package zerocopy reads compiled cache images directly from mapped bytes.
//
// A Session owns the mapping of one image; every View it yields is a borrowed
// window into that mapping. Nothing is deserialized up front: navigation
// follows offset tables, and only the nodes actually visited are touched.
//
// All Views become invalid when the owning Session is closed. Strings
// returned by views alias the mapped bytes and must not be retained past
// Close; call View.ToTree to obtain an owned copy instead.
package zerocopy

import (
	"errors"
	"fmt"

	"github.com/hupe1980/snapconfig/image"
	"github.com/hupe1980/snapconfig/internal/mmap"
)

// ErrClosed is returned by view accessors that carry no backing bytes:
// either their Session was closed, or they are the zero View.
var ErrClosed = errors.New("zerocopy: session closed")

// Session is a live mapping of a cache image plus its validated header.
type Session struct {
	data []byte
	hdr  image.Header
	m    *mmap.File // nil for in-memory images
}

// Open memory-maps the cache image at path and validates it.
//
// Failure modes: an *os.PathError or mapping error when the file cannot be
// opened, image.ErrInvalidHeader / image.ErrUnsupportedVersion /
// image.ErrTruncated / image.ErrChecksum when the bytes are not a readable
// image of the supported version.
func Open(path string) (*Session, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("zerocopy: open %s: %w", path, err)
	}
	s, err := OpenBytes(m.Data)
	if err != nil {
		m.Close()
		return nil, err
	}
	s.m = m
	return s, nil
}

// OpenBytes validates an in-memory image and wraps it in a Session.
// The caller keeps ownership of data and must not mutate it while the
// Session is in use.
func OpenBytes(data []byte) (*Session, error) {
	hdr, err := image.ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if err := image.VerifyChecksum(hdr, data); err != nil {
		return nil, err
	}
	return &Session{data: data, hdr: hdr}, nil
}

// Header returns the validated image header.
func (s *Session) Header() image.Header { return s.hdr }

// Root returns a View of the image's root node.
func (s *Session) Root() View {
	return View{data: s.data, off: uint32(s.hdr.RootOff)}
}

// Close releases the mapping. Views obtained from the session must not be
// used afterwards. Close is idempotent and safe on a nil receiver.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.data = nil
	if s.m != nil {
		m := s.m
		s.m = nil
		return m.Close()
	}
	return nil
}
