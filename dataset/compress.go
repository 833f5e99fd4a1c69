package dataset

import (
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the container format of a dataset file.
type Compression uint8

const (
	// CompressionNone reads the file as plain text.
	CompressionNone Compression = iota
	// CompressionZstd reads a zstd frame stream (.zst).
	CompressionZstd
	// CompressionLZ4 reads an LZ4 frame stream (.lz4).
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// Ext returns the file suffix of the format.
func (c Compression) Ext() string {
	switch c {
	case CompressionZstd:
		return ".zst"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// ParseCompression converts a format name ("none", "zstd", "lz4").
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(name) {
	case "none", "":
		return CompressionNone, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return CompressionNone, fmt.Errorf("%w: %s", ErrUnsupportedCompression, name)
	}
}

// CompressionFor picks the format from the file name. Unknown suffixes other
// than text-like ones are rejected.
func CompressionFor(name string) (Compression, error) {
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".zst", ".zstd":
		return CompressionZstd, nil
	case ".lz4":
		return CompressionLZ4, nil
	case ".gz", ".bz2", ".xz", ".zip":
		return CompressionNone, fmt.Errorf("%w: %s", ErrUnsupportedCompression, ext)
	default:
		return CompressionNone, nil
	}
}

var zstdDecoderPool sync.Pool

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
}

type zstdReader struct {
	dec *zstd.Decoder
}

func (r *zstdReader) Read(p []byte) (int, error) { return r.dec.Read(p) }

func (r *zstdReader) Close() error {
	if r.dec == nil {
		return nil
	}
	_ = r.dec.Reset(nil)
	zstdDecoderPool.Put(r.dec)
	r.dec = nil
	return nil
}

// NewReader wraps r with a decompressor for c.
func NewReader(c Compression, r io.Reader) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionZstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		if err := dec.Reset(r); err != nil {
			return nil, err
		}
		return &zstdReader{dec: dec}, nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, c)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// NewWriter wraps w with a compressor for c. Close flushes the frame but
// does not close w.
func NewWriter(c Compression, w io.Writer) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, c)
	}
}
