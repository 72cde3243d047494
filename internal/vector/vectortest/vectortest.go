// Package vectortest writes small shapefile and GeoJSON fixtures for tests.
package vectortest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
)

// PointRow is one point feature with string attributes keyed by column name.
type PointRow struct {
	X, Y  float64
	Attrs map[string]string
}

// Region is one named polygon. Each ring is a closed list of (x, y) pairs;
// shells must be wound clockwise and holes counter-clockwise.
type Region struct {
	Name  string
	Rings [][][2]float64
}

// Square returns a clockwise closed ring for the box [minX,maxX] x [minY,maxY].
func Square(minX, minY, maxX, maxY float64) [][2]float64 {
	return [][2]float64{
		{minX, minY},
		{minX, maxY},
		{maxX, maxY},
		{maxX, minY},
		{minX, minY},
	}
}

// Reverse returns ring with its winding flipped, turning a shell into a hole.
func Reverse(ring [][2]float64) [][2]float64 {
	out := make([][2]float64, len(ring))
	for i := range ring {
		out[i] = ring[len(ring)-1-i]
	}
	return out
}

// WritePoints writes a point shapefile with string columns and returns the .shp path.
func WritePoints(t *testing.T, dir, name string, columns []string, rows []PointRow) string {
	t.Helper()
	fields := make([]shp.Field, len(columns))
	for i, c := range columns {
		fields[i] = shp.StringField(c, 32)
	}
	return WritePointFields(t, dir, name, fields, rows)
}

// WritePointFields writes a point shapefile with the given DBF fields and
// returns the .shp path. Row values are written as-is, so a date field takes
// "YYYYMMDD" strings.
func WritePointFields(t *testing.T, dir, name string, fields []shp.Field, rows []PointRow) string {
	t.Helper()
	path := filepath.Join(dir, name+".shp")

	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)
	require.NoError(t, w.SetFields(fields))

	for _, r := range rows {
		idx := w.Write(&shp.Point{X: r.X, Y: r.Y})
		for i, f := range fields {
			val, ok := r.Attrs[f.String()]
			if !ok {
				continue
			}
			require.NoError(t, w.WriteAttribute(int(idx), i, val))
		}
	}
	w.Close()
	fixDBFName(t, dir, name)
	return path
}

// WriteRegions writes a polygon shapefile with one string name column and
// returns the .shp path.
func WriteRegions(t *testing.T, dir, name, nameColumn string, regions []Region) string {
	t.Helper()
	path := filepath.Join(dir, name+".shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	require.NoError(t, w.SetFields([]shp.Field{shp.StringField(nameColumn, 50)}))

	for _, r := range regions {
		var points []shp.Point
		parts := make([]int32, 0, len(r.Rings))
		for _, ring := range r.Rings {
			parts = append(parts, int32(len(points)))
			for _, c := range ring {
				points = append(points, shp.Point{X: c[0], Y: c[1]})
			}
		}
		poly := &shp.Polygon{
			Box:       shp.BBoxFromPoints(points),
			NumParts:  int32(len(parts)),
			NumPoints: int32(len(points)),
			Parts:     parts,
			Points:    points,
		}
		idx := w.Write(poly)
		require.NoError(t, w.WriteAttribute(int(idx), 0, r.Name))
	}
	w.Close()
	fixDBFName(t, dir, name)
	return path
}

// fixDBFName moves the attribute table go-shp's writer saves as "<name>dbf"
// to "<name>.dbf", where shp.Open looks for it.
func fixDBFName(t *testing.T, dir, name string) {
	t.Helper()
	written := filepath.Join(dir, name+"dbf")
	if _, err := os.Stat(written); err != nil {
		return
	}
	require.NoError(t, os.Rename(written, filepath.Join(dir, name+".dbf")))
}

// WriteFile writes raw content (typically GeoJSON) under dir and returns its path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
