package boundary

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Locate returns the first feature whose polygon contains the point (x, y).
// A point inside a hole is not contained. The second result is false when no
// feature contains the point.
func Locate(features []Feature, x, y float64) (Feature, bool) {
	p := geom.Coord{x, y}
	for _, f := range features {
		if contains(f.Geometry, p) {
			return f, true
		}
	}
	return Feature{}, false
}

func contains(g geom.T, p geom.Coord) bool {
	switch t := g.(type) {
	case *geom.Polygon:
		return inPolygon(t, p)
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			if inPolygon(t.Polygon(i), p) {
				return true
			}
		}
	}
	return false
}

func inPolygon(poly *geom.Polygon, p geom.Coord) bool {
	if poly.NumLinearRings() == 0 {
		return false
	}
	if !xy.IsPointInRing(poly.Layout(), p, poly.LinearRing(0).FlatCoords()) {
		return false
	}
	for i := 1; i < poly.NumLinearRings(); i++ {
		if xy.IsPointInRing(poly.Layout(), p, poly.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}
