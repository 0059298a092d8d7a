package boundary

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// LoadGeoJSON reads a GeoJSON FeatureCollection file.
func LoadGeoJSON(path, nameProperty string) ([]Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: read %s", path)
	}
	features, err := ParseGeoJSON(data, nameProperty)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: %s", path)
	}
	return features, nil
}

// ParseGeoJSON decodes a GeoJSON FeatureCollection.
func ParseGeoJSON(data []byte, nameProperty string) ([]Feature, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrap(err, "boundary: decode geojson")
	}

	features := make([]Feature, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f == nil {
			continue
		}
		name, err := featureName(f.Properties, nameProperty, i)
		if err != nil {
			return nil, err
		}
		// Normalize the stored property so re-encoded output matches Name.
		props := make(map[string]any, len(f.Properties))
		for k, v := range f.Properties {
			props[k] = v
		}
		props[nameProperty] = name

		features = append(features, Feature{
			Name:       name,
			Properties: props,
			Geometry:   f.Geometry,
		})
	}
	return features, nil
}
