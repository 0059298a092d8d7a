package boundary

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// SRID is the spatial reference of every stored geometry (WGS 84).
const SRID = 4326

// EncodeWKB converts a geometry to little-endian EWKB with SRID 4326. The
// input is not modified. Returns nil, nil for a nil geometry.
func EncodeWKB(g geom.T) ([]byte, error) {
	if g == nil {
		return nil, nil
	}

	switch t := g.(type) {
	case *geom.Point:
		g = t.Clone().SetSRID(SRID)
	case *geom.Polygon:
		g = t.Clone().SetSRID(SRID)
	case *geom.MultiPolygon:
		g = t.Clone().SetSRID(SRID)
	case *geom.LineString:
		g = t.Clone().SetSRID(SRID)
	case *geom.MultiLineString:
		g = t.Clone().SetSRID(SRID)
	}

	data, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "boundary: encode WKB")
	}
	return data, nil
}

// DecodeWKB parses EWKB bytes produced by EncodeWKB.
func DecodeWKB(data []byte) (geom.T, error) {
	if len(data) == 0 {
		return nil, nil
	}
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "boundary: decode WKB")
	}
	return g, nil
}
