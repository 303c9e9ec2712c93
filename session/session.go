package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nstehr/sift/feed"
	"github.com/nstehr/sift/model"
	"github.com/nstehr/sift/rules"
)

// Stats counts what a session has dispatched.
type Stats struct {
	Records   int `json:"records"`
	Matched   int `json:"matched"`   // rule actions run
	Fallbacks int `json:"fallbacks"` // records no rule matched
}

// Session owns the dispatcher and sink for one process run. The entry point
// builds exactly one and passes it wherever records arrive.
type Session struct {
	Dispatcher *rules.Dispatcher
	Sink       rules.Sink
	stats      Stats
}

func New(d *rules.Dispatcher, out rules.Sink) *Session {
	return &Session{Dispatcher: d, Sink: out}
}

// Handle dispatches a single record.
func (s *Session) Handle(rec model.Record) error {
	slog.Debug("record received", "category", rec.Category, "bytes", len(rec.Payload))

	matched, err := s.Dispatcher.Dispatch(rec, s.Sink)
	if err != nil {
		return err
	}

	s.stats.Records++
	if len(matched) == 0 {
		s.stats.Fallbacks++
	}
	s.stats.Matched += len(matched)
	return nil
}

// Run pumps src through the dispatcher until EOF. It stops at the first
// dispatch error or when ctx is cancelled.
func (s *Session) Run(ctx context.Context, src *feed.Reader) (Stats, error) {
	for {
		if err := ctx.Err(); err != nil {
			return s.stats, err
		}

		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			slog.Debug("feed exhausted", "records", s.stats.Records)
			return s.stats, nil
		}
		if err != nil {
			return s.stats, err
		}

		if err := s.Handle(rec); err != nil {
			return s.stats, fmt.Errorf("line %d: %w", src.Line(), err)
		}
	}
}

func (s *Session) Stats() Stats { return s.stats }
