// Package boundary loads province boundary features from GeoJSON or
// shapefile datasets.
package boundary

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// ErrNameProperty is returned when a feature lacks the configured name
// property.
var ErrNameProperty = errors.New("boundary: missing name property")

// DefaultNameProperty is the province name property of the boundary dataset.
const DefaultNameProperty = "Propinsi"

// Feature is one boundary entity. Name is the trimmed, uppercased value of
// the name property.
type Feature struct {
	Name       string
	Properties map[string]any
	Geometry   geom.T
}

// Load reads a boundary dataset, choosing the format by extension.
func Load(path, nameProperty string) ([]Feature, error) {
	if nameProperty == "" {
		nameProperty = DefaultNameProperty
	}

	var (
		features []Feature
		err      error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".geojson", ".json":
		features, err = LoadGeoJSON(path, nameProperty)
	case ".shp":
		features, err = LoadShapefile(path, nameProperty)
	default:
		return nil, eris.Errorf("boundary: unsupported file type %q", ext)
	}
	if err != nil {
		return nil, err
	}

	zap.L().With(zap.String("component", "boundary")).Info("boundary: loaded features",
		zap.String("path", path),
		zap.Int("features", len(features)),
	)
	return features, nil
}

// featureName extracts and normalizes the name property.
func featureName(props map[string]any, nameProperty string, index int) (string, error) {
	raw, ok := props[nameProperty]
	if !ok || raw == nil {
		return "", eris.Wrapf(ErrNameProperty, "feature %d has no %q", index, nameProperty)
	}
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	default:
		s = fmt.Sprint(v)
	}
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "" {
		return "", eris.Wrapf(ErrNameProperty, "feature %d has an empty %q", index, nameProperty)
	}
	return name, nil
}

var nonLetters = regexp.MustCompile(`[^A-Z]`)

// StandardName uppercases s and removes everything but the letters A-Z, the
// spelling some boundary datasets use ("DKIJAKARTA").
func StandardName(s string) string {
	return nonLetters.ReplaceAllString(strings.ToUpper(s), "")
}

// Names returns the feature names in feature order.
func Names(features []Feature) []string {
	names := make([]string, len(features))
	for i, f := range features {
		names[i] = f.Name
	}
	return names
}

// Center returns the center of the feature's bounding box as (x, y), and
// false when the feature has no geometry.
func (f Feature) Center() ([2]float64, bool) {
	if f.Geometry == nil || len(f.Geometry.FlatCoords()) == 0 {
		return [2]float64{}, false
	}
	b := f.Geometry.Bounds()
	return [2]float64{(b.Min(0) + b.Max(0)) / 2, (b.Min(1) + b.Max(1)) / 2}, true
}
