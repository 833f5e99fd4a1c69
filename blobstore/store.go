package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations return an error that satisfies errors.Is(err, ErrNotFound).
var ErrNotFound = os.ErrNotExist

// Store is a read-only collection of named blobs. Implementations must be
// safe for concurrent use.
type Store interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// List returns the sorted names that start with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a blob.
type Blob interface {
	io.Closer
	// ReadAt reads len(p) bytes at off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange streams length bytes starting at off.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	// Size returns the size of the blob in bytes.
	Size() int64
}

// Fetcher is implemented by stores with a faster whole-blob read path.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Putter is implemented by stores that accept writes.
type Putter interface {
	Put(ctx context.Context, name string, data []byte) error
}

// ReadAll returns the contents of a blob.
func ReadAll(ctx context.Context, s Store, name string) ([]byte, error) {
	if f, ok := s.(Fetcher); ok {
		return f.Fetch(ctx, name)
	}
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	size := b.Size()
	if size == 0 {
		return []byte{}, nil
	}
	rc, err := b.ReadRange(ctx, 0, size)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	buf := make([]byte, size)
	if _, err := io.ReadFull(rc, buf); err != nil {
		return nil, fmt.Errorf("blobstore: read %s: %w", name, err)
	}
	return buf, nil
}

// OpenStream opens a blob and streams its whole contents. Closing the
// returned reader also closes the blob.
func OpenStream(ctx context.Context, s Store, name string) (io.ReadCloser, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	size := b.Size()
	if size == 0 {
		return &stream{ReadCloser: io.NopCloser(bytes.NewReader(nil)), blob: b}, nil
	}
	rc, err := b.ReadRange(ctx, 0, size)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	return &stream{ReadCloser: rc, blob: b}, nil
}

type stream struct {
	io.ReadCloser
	blob Blob
}

func (s *stream) Close() error {
	return errors.Join(s.ReadCloser.Close(), s.blob.Close())
}

// Put writes a blob if the store supports writes.
func Put(ctx context.Context, s Store, name string, data []byte) error {
	p, ok := s.(Putter)
	if !ok {
		return errors.New("blobstore: store is read-only")
	}
	return p.Put(ctx, name, data)
}
