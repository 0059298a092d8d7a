package api

import (
	"slices"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/boundary"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/features"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/geomerge"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/pipeline"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/province"
)

// Dataset is the read-only data served by the API. It is built once and
// never modified, so handlers share it without locking.
type Dataset struct {
	Records    []model.CleanRecord
	Features   []features.Row
	Boundaries []boundary.Feature
	Merges     map[int]*geomerge.Result
	Mapper     *province.Mapper
}

// NewDataset annotates records with boundary names, derives the features and
// merges every year onto boundaries. boundaries may be empty, in which case
// no merged layers are served.
func NewDataset(records []model.CleanRecord, boundaries []boundary.Feature, m *province.Mapper, opts features.Options) *Dataset {
	if m == nil {
		m = province.Default()
	}
	if opts.Regions == nil {
		opts.Regions = m
	}
	annotated, _ := m.Annotate(records)

	ds := &Dataset{
		Records:    annotated,
		Features:   features.Transform(annotated, opts),
		Boundaries: boundaries,
		Merges:     make(map[int]*geomerge.Result),
		Mapper:     m,
	}
	if len(boundaries) > 0 {
		for _, year := range model.Years(annotated) {
			ds.Merges[year] = geomerge.Merge(annotated, boundaries, year)
		}
	}
	return ds
}

// FromResult wraps the output of a pipeline run.
func FromResult(res *pipeline.Result, m *province.Mapper) *Dataset {
	if m == nil {
		m = province.Default()
	}
	ds := &Dataset{
		Records:    res.Records,
		Features:   res.Features,
		Boundaries: res.Boundaries,
		Merges:     make(map[int]*geomerge.Result, len(res.Merges)),
		Mapper:     m,
	}
	for _, mr := range res.Merges {
		ds.Merges[mr.Year] = mr
	}
	return ds
}

// Years returns the years present in the records, ascending.
func (d *Dataset) Years() []int {
	return model.Years(d.Records)
}

// MergedYears returns the years with a merged layer, ascending.
func (d *Dataset) MergedYears() []int {
	out := make([]int, 0, len(d.Merges))
	for y := range d.Merges {
		out = append(out, y)
	}
	slices.Sort(out)
	return out
}

// Provinces returns the distinct province names of the records.
func (d *Dataset) Provinces() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.Records {
		if !seen[r.Province] {
			seen[r.Province] = true
			out = append(out, r.Province)
		}
	}
	slices.Sort(out)
	return out
}
