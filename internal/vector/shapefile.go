package vector

import (
	"strings"
	"time"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// shapeReader is the common surface of shp.Reader and shp.ZipReader.
type shapeReader interface {
	Next() bool
	Shape() (int, shp.Shape)
	Attribute(n int) string
	Fields() []shp.Field
	Close() error
}

func readShapefile(path string) ([]Feature, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "vector: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	return readShapes(reader, path), nil
}

func readZippedShapefile(path string) ([]Feature, error) {
	reader, err := shp.OpenZip(path)
	if err != nil {
		return nil, eris.Wrapf(err, "vector: open zipped shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	return readShapes(reader, path), nil
}

// readShapes drains reader into features. Attribute names keep the case
// stored in the DBF header; lookups downstream are case-insensitive.
func readShapes(reader shapeReader, path string) []Feature {
	fields := reader.Fields()
	names := make([]string, len(fields))
	dates := make([]bool, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
		dates[i] = f.Fieldtype == 'D'
	}

	var features []Feature
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		attrs := make(map[string]any, len(names))
		for i, name := range names {
			val := strings.TrimRight(reader.Attribute(i), "\x00")
			val = strings.TrimSpace(val)
			if val == "" {
				continue
			}
			if dates[i] {
				val = isoDate(val)
			}
			attrs[name] = val
		}

		g := shapeToGeom(shape)
		if shape != nil && g == nil {
			skipped++
		}

		features = append(features, Feature{Attributes: attrs, Geometry: g})
	}

	if skipped > 0 {
		zap.L().Debug("vector: shapes without usable geometry",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	return features
}

// isoDate rewrites a DBF date value (YYYYMMDD) as YYYY-MM-DD. Values that do
// not parse are returned unchanged.
func isoDate(val string) string {
	d, err := time.Parse(dbfDateLayout, val)
	if err != nil {
		return val
	}
	return d.Format(time.DateOnly)
}

const dbfDateLayout = "20060102"
