// Package geomerge joins cleaned consumption records to boundary features.
package geomerge

import (
	"slices"

	"go.uber.org/zap"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/boundary"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
)

// Row is one boundary feature of a year with the record joined to it, if
// any.
type Row struct {
	Feature boundary.Feature
	Year    int
	Record  *model.CleanRecord
	Matched bool
}

// Stats reports the outcome of a merge in both directions.
type Stats struct {
	Year     int `json:"year"`
	Features int `json:"features"`
	Records  int `json:"records"`
	Matched  int `json:"matched"`
	// UnmatchedFeatures are boundary names without a record.
	UnmatchedFeatures []string `json:"unmatched_features"`
	// UnmatchedRecords are statistical names whose mapped boundary name is
	// absent from the features merged against.
	UnmatchedRecords []string `json:"unmatched_records"`
	// Unmapped are statistical names without a boundary name. They stay in
	// the clean table but never reach the merge.
	Unmapped []string `json:"unmapped"`
	// Duplicates counts records dropped because another record of the same
	// year already claimed the boundary name.
	Duplicates int `json:"duplicates"`
	// MatchRate is matched features over all features.
	MatchRate float64 `json:"match_rate"`
	// RecordMatchRate is matched records over all records of the year.
	RecordMatchRate float64 `json:"record_match_rate"`
}

// Result is the output of Merge.
type Result struct {
	Year  int   `json:"year"`
	Rows  []Row `json:"-"`
	Stats Stats `json:"stats"`
}

// Merge left-joins the records of year onto features. Every feature appears
// exactly once, in feature order, whether or not a record matched. Records
// are joined on ProvinceGeo; records of other years are ignored. Merge does
// not modify its inputs and returns identical output for identical input.
func Merge(records []model.CleanRecord, features []boundary.Feature, year int) *Result {
	stats := Stats{
		Year:              year,
		Features:          len(features),
		UnmatchedFeatures: []string{},
		UnmatchedRecords:  []string{},
		Unmapped:          []string{},
	}

	byGeo := make(map[string]model.CleanRecord)
	for _, r := range records {
		if r.Year != year {
			continue
		}
		stats.Records++
		if r.ProvinceGeo == nil {
			stats.Unmapped = append(stats.Unmapped, r.Province)
			continue
		}
		if _, ok := byGeo[*r.ProvinceGeo]; ok {
			stats.Duplicates++
			continue
		}
		byGeo[*r.ProvinceGeo] = r
	}

	present := make(map[string]bool, len(features))
	rows := make([]Row, len(features))
	for i, f := range features {
		present[f.Name] = true
		rows[i] = Row{Feature: f, Year: year}
		if r, ok := byGeo[f.Name]; ok {
			rec := r
			name := *r.ProvinceGeo
			rec.ProvinceGeo = &name
			rows[i].Record = &rec
			rows[i].Matched = true
			stats.Matched++
		} else {
			stats.UnmatchedFeatures = append(stats.UnmatchedFeatures, f.Name)
		}
	}

	matchedRecords := 0
	for geo, r := range byGeo {
		if present[geo] {
			matchedRecords++
		} else {
			stats.UnmatchedRecords = append(stats.UnmatchedRecords, r.Province)
		}
	}

	slices.Sort(stats.UnmatchedRecords)
	slices.Sort(stats.Unmapped)
	stats.Unmapped = slices.Compact(stats.Unmapped)

	if stats.Features > 0 {
		stats.MatchRate = float64(stats.Matched) / float64(stats.Features)
	}
	if stats.Records > 0 {
		stats.RecordMatchRate = float64(matchedRecords) / float64(stats.Records)
	}

	log := zap.L().With(zap.String("component", "geomerge"))
	if len(stats.UnmatchedFeatures) > 0 {
		log.Warn("geomerge: boundary features without data",
			zap.Int("year", year),
			zap.Strings("features", stats.UnmatchedFeatures),
		)
	}
	if len(stats.UnmatchedRecords) > 0 {
		log.Warn("geomerge: mapped records absent from boundary data",
			zap.Int("year", year),
			zap.Strings("provinces", stats.UnmatchedRecords),
		)
	}
	log.Info("geomerge: merge complete",
		zap.Int("year", year),
		zap.Int("features", stats.Features),
		zap.Int("matched", stats.Matched),
		zap.Float64("match_rate", stats.MatchRate),
	)

	return &Result{Year: year, Rows: rows, Stats: stats}
}

// MatchedRecords returns the joined records in feature order.
func (r *Result) MatchedRecords() []model.CleanRecord {
	var out []model.CleanRecord
	for _, row := range r.Rows {
		if row.Matched {
			out = append(out, *row.Record)
		}
	}
	return out
}
