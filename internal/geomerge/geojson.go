package geomerge

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
)

// PropMatched is the output feature property carrying the match flag.
const PropMatched = "Matched"

// FeatureCollection renders the merged rows as GeoJSON. Each feature keeps
// its boundary properties and gains the output columns, null when unmatched.
func (r *Result) FeatureCollection() *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(r.Rows))}
	for _, row := range r.Rows {
		props := make(map[string]interface{}, len(row.Feature.Properties)+5)
		for k, v := range row.Feature.Properties {
			props[k] = v
		}

		props[model.ColYear] = row.Year
		props[PropMatched] = row.Matched
		props[model.ColProvinceGeo] = row.Feature.Name
		if row.Matched {
			props[model.ColProvince] = row.Record.Province
			props[model.ColElectricity] = row.Record.Electricity
		} else {
			props[model.ColProvince] = nil
			props[model.ColElectricity] = nil
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   row.Feature.Geometry,
			Properties: props,
		})
	}
	return fc
}

// MarshalGeoJSON encodes the merged rows as a GeoJSON FeatureCollection.
func (r *Result) MarshalGeoJSON() ([]byte, error) {
	data, err := json.Marshal(r.FeatureCollection())
	if err != nil {
		return nil, eris.Wrap(err, "geomerge: encode geojson")
	}
	return data, nil
}
