// Package region aggregates stored detections by administrative boundary.
package region

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/firewatch/internal/model"
	"github.com/sells-group/firewatch/internal/observability"
	"github.com/sells-group/firewatch/internal/store"
)

// NoRecordsMessage is returned when the store holds no detections.
const NoRecordsMessage = "No active fires found in the database."

const timestampLayout = "2006-01-02 15:04 UTC"

// Engine answers region-scoped questions about the current snapshot.
// Boundaries are re-read from disk on every call.
type Engine struct {
	path    string
	store   store.Store
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source for the "as of" timestamp.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an Engine reading boundaries from boundaryPath.
func New(boundaryPath string, st store.Store, opts ...Option) *Engine {
	e := &Engine{
		path:  boundaryPath,
		store: st,
		clock: clockwork.NewRealClock(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Summarize describes the detections within the named region. Unknown
// regions and an empty store are reported as text; only a missing boundary
// file (ErrBoundarySourceMissing) or an unusable schema (ErrSchema) fail.
func (e *Engine) Summarize(ctx context.Context, name string) (string, error) {
	boundaries, err := LoadBoundaries(e.path)
	if err != nil {
		e.observe(outcome(err))
		return "", err
	}

	display := strings.TrimSpace(name)
	target := NormalizeName(name)

	var shapes []*geom.MultiPolygon
	for _, b := range boundaries {
		if b.Name == target {
			shapes = append(shapes, b.Geometry)
		}
	}
	if len(shapes) == 0 {
		e.observe(observability.OutcomeUnknownRegion)
		return fmt.Sprintf("Unknown region '%s'. Try a valid U.S. state name.", display), nil
	}

	points, err := e.store.AllPoints(ctx)
	if err != nil {
		e.observe(observability.OutcomeError)
		return "", eris.Wrap(err, "region: load points")
	}
	if len(points) == 0 {
		e.observe(observability.OutcomeEmpty)
		return NoRecordsMessage, nil
	}

	stats := aggregate(target, shapes, points)
	title := cases.Title(language.English).String(display)

	zap.L().Debug("region: containment join",
		zap.String("component", "region"),
		zap.String("region", target),
		zap.Int("points", len(points)),
		zap.Int("within", stats.Count),
	)

	if stats.Count == 0 {
		e.observe(observability.OutcomeEmpty)
		return fmt.Sprintf("No active fires currently detected in %s.", title), nil
	}

	e.observe(observability.OutcomeFound)
	count := message.NewPrinter(language.English).Sprintf("%d", stats.Count)
	return fmt.Sprintf(
		"As of %s, %s has %s active fires detected in the last 48 hours (avg brightness %.1f, confidence %.1f%%).",
		e.clock.Now().UTC().Format(timestampLayout), title, count, stats.AvgBrightness, stats.AvgConfidence,
	), nil
}

// Stats aggregates the current snapshot over every region of the boundary
// file, ordered by descending count then name. Regions without detections
// are included with a zero count.
func (e *Engine) Stats(ctx context.Context) ([]model.RegionStats, error) {
	boundaries, err := LoadBoundaries(e.path)
	if err != nil {
		return nil, err
	}

	points, err := e.store.AllPoints(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "region: load points")
	}

	var names []string
	shapes := make(map[string][]*geom.MultiPolygon)
	for _, b := range boundaries {
		if _, seen := shapes[b.Name]; !seen {
			names = append(names, b.Name)
		}
		shapes[b.Name] = append(shapes[b.Name], b.Geometry)
	}

	out := make([]model.RegionStats, 0, len(names))
	for _, n := range names {
		out = append(out, aggregate(n, shapes[n], points))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Names lists the distinct normalized region names in the boundary file, sorted.
func (e *Engine) Names() ([]string, error) {
	boundaries, err := LoadBoundaries(e.path)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(boundaries))
	var names []string
	for _, b := range boundaries {
		if seen[b.Name] {
			continue
		}
		seen[b.Name] = true
		names = append(names, b.Name)
	}
	sort.Strings(names)
	return names, nil
}

// Message turns a boundary failure into the informational text shown to
// users. The boolean is false for errors that are not boundary failures.
func (e *Engine) Message(err error) (string, bool) {
	switch {
	case eris.Is(err, ErrBoundarySourceMissing):
		return fmt.Sprintf("Region boundaries file not found (%s). Provide the Census 'cb_2018_us_state_500k' shapefile.", e.path), true
	case eris.Is(err, ErrSchema):
		return "Could not find a region name column in the boundary file.", true
	default:
		return "", false
	}
}

// aggregate counts the points within any of shapes and averages their
// brightness and confidence.
func aggregate(name string, shapes []*geom.MultiPolygon, points []model.FirePoint) model.RegionStats {
	stats := model.RegionStats{Name: name}
	var sumBrightness, sumConfidence float64
	for _, p := range points {
		for _, mp := range shapes {
			if Within(mp, p.Longitude, p.Latitude) {
				stats.Count++
				sumBrightness += p.Brightness
				sumConfidence += p.Confidence
				break
			}
		}
	}
	if stats.Count > 0 {
		stats.AvgBrightness = sumBrightness / float64(stats.Count)
		stats.AvgConfidence = sumConfidence / float64(stats.Count)
	}
	return stats
}

func outcome(err error) string {
	switch {
	case eris.Is(err, ErrBoundarySourceMissing):
		return observability.OutcomeBoundaryMissing
	case eris.Is(err, ErrSchema):
		return observability.OutcomeSchemaError
	default:
		return observability.OutcomeError
	}
}

func (e *Engine) observe(outcome string) {
	if e.metrics == nil {
		return
	}
	e.metrics.RegionQueries.WithLabelValues(outcome).Inc()
}
