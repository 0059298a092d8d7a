package export

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// WriteGeoJSON encodes a feature collection.
func WriteGeoJSON(w io.Writer, fc *geojson.FeatureCollection) error {
	data, err := json.Marshal(fc)
	if err != nil {
		return eris.Wrap(err, "export: marshal geojson")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "export: write geojson")
	}
	return nil
}

// WriteGeoJSONFile writes a feature collection to path.
func WriteGeoJSONFile(path string, fc *geojson.FeatureCollection) error {
	return writeFile(path, func(w io.Writer) error { return WriteGeoJSON(w, fc) })
}

// WriteJSON writes v as indented JSON to path, used for stage summaries.
func WriteJSON(path string, v any) error {
	return writeFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "export: encode json")
	})
}
