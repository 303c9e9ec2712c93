package rules

import (
	"strings"
	"unicode/utf16"

	"github.com/nstehr/sift/model"
)

// RecordEnv wraps a record and exposes helper methods callable from expr
// expressions, e.g. `Is("error") || Mentions("fail")`.
type RecordEnv struct {
	Category string
	Payload  string
}

// NewRecordEnv builds the expression environment for rec.
func NewRecordEnv(rec model.Record) RecordEnv {
	return RecordEnv{Category: rec.Category, Payload: rec.Payload}
}

func (e RecordEnv) Record() model.Record {
	return model.Record{Category: e.Category, Payload: e.Payload}
}

// Is reports whether the record's category equals c, ignoring case.
func (e RecordEnv) Is(c string) bool {
	return strings.EqualFold(e.Category, c)
}

// Mentions reports whether the payload contains s, ignoring case.
func (e RecordEnv) Mentions(s string) bool {
	return strings.Contains(strings.ToLower(e.Payload), strings.ToLower(s))
}

// Length is the payload length in UTF-16 code units, so characters outside
// the Basic Multilingual Plane (most emoji) count as two.
func (e RecordEnv) Length() int {
	return len(utf16.Encode([]rune(e.Payload)))
}

func (e RecordEnv) Words() int {
	return len(strings.Fields(e.Payload))
}
