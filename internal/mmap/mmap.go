// Package mmap maps cache image files into memory read-only.
//
// The whole file is mapped at once and never written through: every process
// mapping the same image shares physical pages with every other, which is
// what makes repeated loads of one configuration close to free. Platform
// differences are confined to mmap_unix.go (mmap(2) via golang.org/x/sys)
// and mmap_windows.go (CreateFileMapping/MapViewOfFile).
//
// Any slice derived from Data is invalid once Close returns.
package mmap

import (
	"errors"
	"fmt"
	"os"
)

// ErrTooLarge is returned when the file does not fit the platform's
// address width.
var ErrTooLarge = errors.New("mmap: file too large to map")

// File is a read-only mapping of one file.
type File struct {
	// Data is the mapped byte range, nil for an empty file. The bytes are
	// shared with other processes; treat them as immutable.
	Data []byte

	f *os.File
}

// Open maps the file at path read-only.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	size := fi.Size()
	switch {
	case size == 0:
		return &File{f: f}, nil
	case int64(int(size)) != size:
		f.Close()
		return nil, ErrTooLarge
	}

	data, err := mmap(f, int(size))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &File{Data: data, f: f}, nil
}

// Close unmaps Data and closes the underlying file. It is safe on a nil
// receiver and after a prior Close.
func (m *File) Close() error {
	if m == nil {
		return nil
	}
	var unmapErr error
	if m.Data != nil {
		unmapErr = munmap(m.Data)
		m.Data = nil
	}
	if m.f == nil {
		return unmapErr
	}
	closeErr := m.f.Close()
	m.f = nil
	if unmapErr != nil {
		return unmapErr
	}
	return closeErr
}
