// Package sink holds the places rule actions write to.
package sink

import (
	"fmt"
	"io"
	"sync"
)

// Writer emits one line per action to an io.Writer. Safe for concurrent use.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (s *Writer) Emit(category, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintln(s.w, line); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return nil
}

// Emission is one line produced by an action.
type Emission struct {
	Category string `json:"category"`
	Line     string `json:"line"`
}

// Recorder keeps emissions in memory instead of printing them.
type Recorder struct {
	mu        sync.Mutex
	emissions []Emission
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(category, line string) error {
	r.mu.Lock()
	r.emissions = append(r.emissions, Emission{Category: category, Line: line})
	r.mu.Unlock()
	return nil
}

// Emissions returns a copy of everything recorded so far, oldest first.
func (r *Recorder) Emissions() []Emission {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Emission, len(r.emissions))
	copy(out, r.emissions)
	return out
}

func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.emissions))
	for i, e := range r.emissions {
		out[i] = e.Line
	}
	return out
}

// ByCategory groups recorded lines by the category of the record that
// produced them.
func (r *Recorder) ByCategory() map[string][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string][]string)
	for _, e := range r.emissions {
		out[e.Category] = append(out[e.Category], e.Line)
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.emissions = nil
	r.mu.Unlock()
}
