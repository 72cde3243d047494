package vector

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// featureCollection defers feature decoding to geojson.Feature so that
// collection-level members such as bbox are ignored.
type featureCollection struct {
	Features []json.RawMessage `json:"features"`
}

func readGeoJSON(path string) ([]Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "vector: read geojson %s", path)
	}

	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "vector: decode geojson %s", path)
	}

	features := make([]Feature, 0, len(fc.Features))
	for i, raw := range fc.Features {
		var f geojson.Feature
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, eris.Wrapf(err, "vector: decode geojson feature %d", i)
		}
		attrs := make(map[string]any, len(f.Properties))
		for k, v := range f.Properties {
			if v == nil {
				continue
			}
			attrs[k] = v
		}
		features = append(features, Feature{Attributes: attrs, Geometry: f.Geometry})
	}
	return features, nil
}
