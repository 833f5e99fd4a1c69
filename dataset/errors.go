package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDataset is returned for malformed or inconsistent input files.
	ErrInvalidDataset = errors.New("dataset: invalid dataset")
	// ErrUnsupportedCompression is returned for unknown compression suffixes.
	ErrUnsupportedCompression = errors.New("dataset: unsupported compression")
)

// ParseError reports the file and line of a malformed record.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dataset: %s:%d: %v", e.File, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
