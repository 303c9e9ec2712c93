// Package feed decodes a stream of records, one per line.
package feed

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/nstehr/sift/model"
)

// MaxLineSize guards against unbounded lines from a broken producer.
const MaxLineSize = 1 << 20

var (
	ErrLineTooLong   = errors.New("line exceeds 1 MiB")
	ErrInvalidFormat = errors.New("invalid input format")
)

// Format selects how a line is decoded.
type Format string

const (
	// FormatJSON expects {"category": "...", "payload": "..."} per line.
	FormatJSON Format = "json"
	// FormatText expects "<category> <payload...>" per line.
	FormatText Format = "text"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatText:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
}

// Reader yields records from an underlying io.Reader.
type Reader struct {
	sc     *bufio.Scanner
	format Format
	line   int
}

func NewReader(r io.Reader, format Format) (*Reader, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return &Reader{sc: sc, format: format}, nil
}

// Next returns the next record, skipping blank lines. It returns io.EOF once
// the input is exhausted.
func (r *Reader) Next() (model.Record, error) {
	for r.sc.Scan() {
		r.line++
		line := r.sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := ParseLine(line, r.format)
		if err != nil {
			return model.Record{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		return rec, nil
	}
	if err := r.sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return model.Record{}, fmt.Errorf("line %d: %w", r.line+1, ErrLineTooLong)
		}
		return model.Record{}, fmt.Errorf("read input: %w", err)
	}
	return model.Record{}, io.EOF
}

// Line is the number of the last line read.
func (r *Reader) Line() int { return r.line }

func ParseLine(line string, format Format) (model.Record, error) {
	switch format {
	case FormatJSON:
		var rec model.Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return model.Record{}, fmt.Errorf("unmarshal record: %w", err)
		}
		return rec, nil
	case FormatText:
		trimmed := strings.TrimSpace(line)
		i := strings.IndexFunc(trimmed, unicode.IsSpace)
		if i < 0 {
			return model.Record{Category: trimmed}, nil
		}
		return model.Record{
			Category: trimmed[:i],
			Payload:  strings.TrimLeftFunc(trimmed[i:], unicode.IsSpace),
		}, nil
	}
	return model.Record{}, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
}
