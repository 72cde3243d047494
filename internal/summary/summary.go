// Package summary renders ranked digests of the current fire snapshot.
package summary

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/firewatch/internal/model"
	"github.com/sells-group/firewatch/internal/store"
)

// DefaultLimit is the number of detections listed when no limit is given.
const DefaultLimit = 10

// NoActiveMessage is returned when the store holds no detections.
const NoActiveMessage = "No active fires found in the local MODIS database."

// TimestampLayout formats the "as of" time of every digest.
const TimestampLayout = "2006-01-02 15:04 UTC"

// Summarizer builds text digests from a Store.
type Summarizer struct {
	store   store.Store
	clock   clockwork.Clock
	printer *message.Printer
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithClock sets the time source for the "as of" timestamp.
func WithClock(c clockwork.Clock) Option {
	return func(s *Summarizer) { s.clock = c }
}

// New creates a Summarizer over st.
func New(st store.Store, opts ...Option) *Summarizer {
	s := &Summarizer{
		store:   st,
		clock:   clockwork.NewRealClock(),
		printer: message.NewPrinter(language.English),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Summarize returns the total detection count and the limit brightest
// detections as text. A limit <= 0 uses DefaultLimit. An empty store yields
// NoActiveMessage rather than an error.
func (s *Summarizer) Summarize(ctx context.Context, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	total, err := s.store.Count(ctx)
	if err != nil {
		return "", eris.Wrap(err, "summary: count")
	}
	top, err := s.store.TopByIntensity(ctx, limit)
	if err != nil {
		return "", eris.Wrap(err, "summary: top by intensity")
	}
	if total == 0 || len(top) == 0 {
		return NoActiveMessage, nil
	}

	var b strings.Builder
	b.WriteString(s.printer.Sprintf(
		"As of %s, there are approximately %d active U.S. fires detected in the last 48 hours.\n",
		s.clock.Now().UTC().Format(TimestampLayout), total,
	))
	fmt.Fprintf(&b, "Here are %d of the most intense sample fires:\n", len(top))
	for i, r := range top {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(Line(r))
	}
	return b.String(), nil
}

// Snapshot returns up to limit records by descending brightness, for map
// overlays. A limit <= 0 returns every record.
func (s *Summarizer) Snapshot(ctx context.Context, limit int) ([]model.FireRecord, error) {
	records, err := s.store.TopByIntensity(ctx, limit)
	if err != nil {
		return nil, eris.Wrap(err, "summary: snapshot")
	}
	return records, nil
}

// Line formats one detection of the digest.
func Line(r model.FireRecord) string {
	return fmt.Sprintf("🔥 (%.2f, %.2f) brightness %s, confidence %s, date %s",
		r.Latitude, r.Longitude, formatNumber(r.Brightness), formatNumber(r.Confidence), r.AcqDate)
}

// formatNumber prints the shortest representation that round-trips, always
// keeping one decimal so 300 reads as "300.0".
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
