package vector

import (
	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

// SRID of every geometry produced by this package (WGS84 lon/lat degrees).
const SRID = 4326

// shapeToGeom converts a go-shp shape to a go-geom geometry.
// Returns nil for unsupported or empty shapes.
func shapeToGeom(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}).SetSRID(SRID)
	case *shp.Polygon:
		if mp := polygonToMultiPolygon(s); mp != nil {
			return mp
		}
	}
	return nil
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
// Shapefile shells are wound clockwise and holes counter-clockwise; each hole
// is attached to the shell that precedes it.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(SRID)
	var shell *geom.Polygon

	flush := func() {
		if shell == nil {
			return
		}
		if err := mp.Push(shell); err != nil {
			zap.L().Debug("vector: skipping malformed polygon part", zap.Error(err))
		}
		shell = nil
	}

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if end-start < 4 {
			zap.L().Debug("vector: skipping degenerate ring", zap.Int32("part", i))
			continue
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		if shell == nil || !xy.IsRingCounterClockwise(geom.XY, flat) {
			flush()
			shell = geom.NewPolygon(geom.XY)
		}
		if err := shell.Push(ring); err != nil {
			zap.L().Debug("vector: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
		}
	}
	flush()

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// AsMultiPolygon promotes a Polygon to a single-member MultiPolygon.
// Other geometry types yield nil.
func AsMultiPolygon(g geom.T) *geom.MultiPolygon {
	switch v := g.(type) {
	case *geom.MultiPolygon:
		return v
	case *geom.Polygon:
		mp := geom.NewMultiPolygon(v.Layout()).SetSRID(SRID)
		if err := mp.Push(v); err != nil {
			return nil
		}
		return mp
	}
	return nil
}
