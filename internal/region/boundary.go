package region

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"github.com/twpayne/go-geom/xy/location"
	"go.uber.org/zap"

	"github.com/sells-group/firewatch/internal/vector"
)

var (
	// ErrBoundarySourceMissing is returned when the boundary file does not exist.
	ErrBoundarySourceMissing = eris.New("region: boundary source missing")
	// ErrSchema is returned when no boundary name column can be found.
	ErrSchema = eris.New("region: boundary name column not found")
)

// NameColumns are the accepted boundary name attributes, in preference order.
var NameColumns = []string{"NAME", "STATE_NAME"}

// Boundary is one named administrative polygon.
type Boundary struct {
	Name     string
	Geometry *geom.MultiPolygon
}

// NormalizeName upper-cases and trims a region name for matching.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// LoadBoundaries reads every named polygon from the file at path. Features
// without a name or without polygon geometry are skipped.
func LoadBoundaries(path string) ([]Boundary, error) {
	features, err := vector.Read(path)
	if err != nil {
		if eris.Is(err, vector.ErrNotExist) {
			return nil, eris.Wrapf(ErrBoundarySourceMissing, "region: %s", path)
		}
		return nil, eris.Wrap(err, "region: read boundaries")
	}
	if len(features) == 0 {
		return nil, nil
	}

	col, err := nameColumn(features)
	if err != nil {
		return nil, eris.Wrapf(err, "region: %s", path)
	}

	boundaries := make([]Boundary, 0, len(features))
	var skipped int
	for _, f := range features {
		raw, ok := f.Attributes[col]
		mp := vector.AsMultiPolygon(f.Geometry)
		if !ok || mp == nil {
			skipped++
			continue
		}
		name := NormalizeName(fmt.Sprint(raw))
		if name == "" {
			skipped++
			continue
		}
		boundaries = append(boundaries, Boundary{Name: name, Geometry: mp})
	}

	if skipped > 0 {
		zap.L().Debug("region: skipped boundary features",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return boundaries, nil
}

// nameColumn returns the attribute key, in its original case, holding
// region names.
func nameColumn(features []vector.Feature) (string, error) {
	keys := make(map[string]string)
	for _, f := range features {
		for k := range f.Attributes {
			keys[strings.ToUpper(k)] = k
		}
	}
	for _, want := range NameColumns {
		if k, ok := keys[want]; ok {
			return k, nil
		}
	}
	return "", ErrSchema
}

// Within reports whether the point (lon, lat) lies strictly inside mp: in the
// interior of some shell and outside every hole of that shell. Points on a
// shell edge are not within.
func Within(mp *geom.MultiPolygon, lon, lat float64) bool {
	if mp == nil || mp.NumPolygons() == 0 {
		return false
	}
	c := geom.Coord{lon, lat}
	if !mp.Bounds().OverlapsPoint(geom.XY, c) {
		return false
	}

	for i := 0; i < mp.NumPolygons(); i++ {
		p := mp.Polygon(i)
		if p.NumLinearRings() == 0 {
			continue
		}
		shell := p.LinearRing(0)
		if xy.LocatePointInRing(shell.Layout(), c, shell.FlatCoords()) != location.Interior {
			continue
		}
		inHole := false
		for j := 1; j < p.NumLinearRings(); j++ {
			hole := p.LinearRing(j)
			if xy.LocatePointInRing(hole.Layout(), c, hole.FlatCoords()) != location.Exterior {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}
