// Package refresh re-ingests the detection source file into the store.
package refresh

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/firewatch/internal/normalize"
	"github.com/sells-group/firewatch/internal/observability"
	"github.com/sells-group/firewatch/internal/store"
	"github.com/sells-group/firewatch/internal/vector"
)

// ErrSourceNotFound is returned when the configured source file is missing.
var ErrSourceNotFound = eris.New("refresh: source file not found")

// Result describes one completed refresh.
type Result struct {
	ID       string        `json:"id"`
	Read     int           `json:"read"`
	Dropped  int           `json:"dropped"`
	Stored   int           `json:"stored"`
	Duration time.Duration `json:"duration"`
}

// Refresher replaces the store's snapshot with the current contents of a
// vector source file.
type Refresher struct {
	path    string
	store   store.Store
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// Option configures a Refresher.
type Option func(*Refresher)

// WithClock sets the time source used for UpdatedAt stamps.
func WithClock(c clockwork.Clock) Option {
	return func(r *Refresher) { r.clock = c }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Refresher) { r.metrics = m }
}

// New creates a Refresher reading from sourcePath.
func New(sourcePath string, st store.Store, opts ...Option) *Refresher {
	r := &Refresher{
		path:  sourcePath,
		store: st,
		clock: clockwork.NewRealClock(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Refresh reads every feature of the source file, normalizes them and
// replaces the whole snapshot. Rows with unusable coordinates are dropped
// and only counted. The prior snapshot survives any failure.
func (r *Refresher) Refresh(ctx context.Context) (Result, error) {
	res := Result{ID: uuid.New().String()}
	start := r.clock.Now()

	log := zap.L().With(
		zap.String("component", "refresh"),
		zap.String("refresh_id", res.ID),
		zap.String("path", r.path),
	)

	features, err := vector.Read(r.path)
	if err != nil {
		if eris.Is(err, vector.ErrNotExist) {
			r.observe(observability.OutcomeSourceNotFound)
			return res, eris.Wrapf(ErrSourceNotFound, "refresh: %s", r.path)
		}
		r.observe(observability.OutcomeError)
		return res, eris.Wrap(err, "refresh: read source")
	}

	rows := make([]map[string]any, len(features))
	for i, f := range features {
		rows[i] = f.Attributes
	}
	records, dropped := normalize.Batch(rows)

	now := r.clock.Now().UTC()
	for i := range records {
		records[i].UpdatedAt = now
	}

	stored, err := r.store.ReplaceAll(ctx, records)
	if err != nil {
		r.observe(observability.OutcomeError)
		return res, eris.Wrap(err, "refresh: replace snapshot")
	}

	res.Read = len(features)
	res.Dropped = dropped
	res.Stored = stored
	res.Duration = r.clock.Since(start)

	if r.metrics != nil {
		r.metrics.RecordsRead.Add(float64(res.Read))
		r.metrics.RecordsDropped.Add(float64(res.Dropped))
		r.metrics.RecordsStored.Set(float64(res.Stored))
		r.metrics.RefreshDuration.Observe(res.Duration.Seconds())
	}
	r.observe(observability.OutcomeSuccess)

	log.Info("refreshed fire snapshot",
		zap.Int("read", res.Read),
		zap.Int("dropped", res.Dropped),
		zap.Int("stored", res.Stored),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

func (r *Refresher) observe(outcome string) {
	if r.metrics == nil {
		return
	}
	r.metrics.Refreshes.WithLabelValues(outcome).Inc()
}
