package geomerge

import (
	"slices"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/boundary"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/province"
)

// Coverage compares the province sets of a clean table (all years) and a
// boundary dataset through the mapping table.
type Coverage struct {
	Provinces         int      `json:"csv_provinces"`
	Features          int      `json:"boundary_provinces"`
	Mapped            int      `json:"mapped_provinces"`
	Unmapped          []string `json:"unmapped_csv"`
	Pending           []string `json:"pending"`
	UnmatchedFeatures []string `json:"unmatched_boundary"`
	MissingFeatures   []string `json:"missing_boundary"`
}

// ComputeCoverage returns the coverage of records against features. Unmapped
// lists the names the mapper cannot resolve, Pending the subset of those that
// are known splits. UnmatchedFeatures lists boundary names no mapping key
// targets; MissingFeatures lists mapped boundary names absent from features.
func ComputeCoverage(records []model.CleanRecord, features []boundary.Feature, m *province.Mapper) Coverage {
	csv := make(map[string]bool)
	for _, r := range records {
		csv[r.Province] = true
	}
	geo := make(map[string]bool, len(features))
	for _, f := range features {
		geo[f.Name] = true
	}

	c := Coverage{
		Provinces:         len(csv),
		Features:          len(geo),
		Unmapped:          []string{},
		Pending:           []string{},
		UnmatchedFeatures: []string{},
		MissingFeatures:   []string{},
	}

	mapped := make(map[string]bool)
	for name := range csv {
		target, ok := m.Resolve(name)
		if !ok {
			c.Unmapped = append(c.Unmapped, name)
			if m.IsPending(name) {
				c.Pending = append(c.Pending, name)
			}
			continue
		}
		mapped[target] = true
		if !geo[target] {
			c.MissingFeatures = append(c.MissingFeatures, target)
		}
	}
	c.Mapped = len(mapped)

	for name := range geo {
		if _, ok := m.Reverse(name); !ok {
			c.UnmatchedFeatures = append(c.UnmatchedFeatures, name)
		}
	}

	slices.Sort(c.Unmapped)
	slices.Sort(c.Pending)
	slices.Sort(c.UnmatchedFeatures)
	slices.Sort(c.MissingFeatures)
	return c
}
