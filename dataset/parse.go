package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/corelgo/bitset"
)

// maxLineBytes bounds a single record. A line holds two bytes per sample in
// the spaced format.
const maxLineBytes = 64 << 20

// Record is one line of a dataset file.
type Record struct {
	Name  string
	Truth *bitset.Bitset
}

// ParseRecords reads records from r. Blank lines are skipped. All records
// must have the same width. file is only used in error messages.
func ParseRecords(r io.Reader, file string) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		recs []Record
		line int
	)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		rec, err := parseRecord(text)
		if err != nil {
			return nil, &ParseError{File: file, Line: line, Err: err}
		}
		if len(recs) > 0 && rec.Truth.Len() != recs[0].Truth.Len() {
			return nil, &ParseError{
				File: file,
				Line: line,
				Err:  fmt.Errorf("%w: %d samples, want %d", ErrInvalidDataset, rec.Truth.Len(), recs[0].Truth.Len()),
			}
		}
		recs = append(recs, rec)
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &ParseError{File: file, Line: line + 1, Err: fmt.Errorf("%w: line too long", ErrInvalidDataset)}
		}
		return nil, fmt.Errorf("dataset: read %s: %w", file, err)
	}
	return recs, nil
}

func parseRecord(text string) (Record, error) {
	if text[0] != '{' {
		return Record{}, fmt.Errorf("%w: record must start with '{'", ErrInvalidDataset)
	}
	end := strings.IndexByte(text, '}')
	if end < 0 {
		return Record{}, fmt.Errorf("%w: unterminated name", ErrInvalidDataset)
	}
	name := text[1:end]
	bits := strings.TrimSpace(text[end+1:])
	if bits == "" {
		return Record{}, fmt.Errorf("%w: record %q has no samples", ErrInvalidDataset, name)
	}
	truth, err := bitset.Parse(strings.Join(strings.Fields(bits), ""))
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	return Record{Name: name, Truth: truth}, nil
}

// WriteRecords writes records in the spaced format.
func WriteRecords(w io.Writer, recs []Record) error {
	bw := bufio.NewWriter(w)
	for _, rec := range recs {
		bw.WriteByte('{')
		bw.WriteString(rec.Name)
		bw.WriteByte('}')
		for i := range rec.Truth.Len() {
			if rec.Truth.Test(i) {
				bw.WriteString(" 1")
			} else {
				bw.WriteString(" 0")
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
