// Package vector reads point and polygon features from shapefiles and GeoJSON.
package vector

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

var (
	// ErrNotExist is returned when the vector file path does not exist.
	ErrNotExist = eris.New("vector: file does not exist")
	// ErrUnsupportedFormat is returned for file extensions without a reader.
	ErrUnsupportedFormat = eris.New("vector: unsupported format")
)

// Feature is one vector record: its attribute columns and its geometry.
// Empty attribute values are omitted from Attributes.
type Feature struct {
	Attributes map[string]any
	Geometry   geom.T
}

// Read loads every feature of the file at path. The reader is picked by
// extension: .shp, .zip (zipped shapefile), .geojson or .json.
func Read(path string) ([]Feature, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(ErrNotExist, "vector: %s", path)
		}
		return nil, eris.Wrapf(err, "vector: stat %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return readShapefile(path)
	case ".zip":
		return readZippedShapefile(path)
	case ".geojson", ".json":
		return readGeoJSON(path)
	default:
		return nil, eris.Wrapf(ErrUnsupportedFormat, "vector: %s", path)
	}
}
