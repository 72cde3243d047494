// Package normalize maps raw vector attribute rows onto the fixed fire record schema.
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/firewatch/internal/model"
)

// Source column names, upper-cased.
const (
	ColLatitude   = "LATITUDE"
	ColLongitude  = "LONGITUDE"
	ColBrightness = "BRIGHTNESS"
	ColConfidence = "CONFIDENCE"
	ColAcqDate    = "ACQ_DATE"
	ColSatellite  = "SATELLITE"
)

// Fallbacks for absent string columns.
const (
	DefaultAcqDate   = "unknown"
	DefaultSatellite = "MODIS"
)

// Record converts one raw attribute row into a FireRecord. The boolean is
// false when latitude or longitude is missing or not numeric; such rows are
// meant to be dropped, not reported.
func Record(attrs map[string]any) (model.FireRecord, bool) {
	row := upperKeys(attrs)

	lat, ok := finite(row[ColLatitude])
	if !ok {
		return model.FireRecord{}, false
	}
	lon, ok := finite(row[ColLongitude])
	if !ok {
		return model.FireRecord{}, false
	}

	date := stringOr(row[ColAcqDate], DefaultAcqDate)

	return model.FireRecord{
		ID:         ID(lat, lon, date),
		Latitude:   lat,
		Longitude:  lon,
		Brightness: floatOrZero(row[ColBrightness]),
		Confidence: floatOrZero(row[ColConfidence]),
		AcqDate:    date,
		Satellite:  stringOr(row[ColSatellite], DefaultSatellite),
	}, true
}

// Batch normalizes every row, returning the surviving records in input order
// and how many rows were dropped.
func Batch(rows []map[string]any) ([]model.FireRecord, int) {
	records := make([]model.FireRecord, 0, len(rows))
	var dropped int
	for _, attrs := range rows {
		rec, ok := Record(attrs)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}

// ID derives the natural key of a detection: coordinates rounded to three
// decimals plus the acquisition date.
func ID(lat, lon float64, acqDate string) string {
	return fmt.Sprintf("%.3f_%.3f_%s", lat, lon, acqDate)
}

func upperKeys(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return out
}

// toFloat parses a numeric attribute. Strings are trimmed before parsing.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// finite is toFloat that also rejects NaN and infinities.
func finite(v any) (float64, bool) {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func floatOrZero(v any) float64 {
	f, ok := finite(v)
	if !ok {
		return 0
	}
	return f
}

func stringOr(v any, fallback string) string {
	switch s := v.(type) {
	case nil:
		return fallback
	case string:
		if strings.TrimSpace(s) == "" {
			return fallback
		}
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}
