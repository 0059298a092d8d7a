// Package features derives the per-province indicators consumed by the
// dashboard: categories, growth, ranking, shares and regional rollups.
package features

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
)

// Consumption category labels, lowest first.
const (
	CategoryVeryLow  = "Sangat Rendah"
	CategoryLow      = "Rendah"
	CategoryMedium   = "Sedang"
	CategoryHigh     = "Tinggi"
	CategoryVeryHigh = "Sangat Tinggi"
)

// Thresholds are the exclusive GWh upper bounds of the lower four
// categories.
type Thresholds struct {
	VeryLow float64
	Low     float64
	Medium  float64
	High    float64
}

// DefaultThresholds returns the standard category bounds.
func DefaultThresholds() Thresholds {
	return Thresholds{VeryLow: 1000, Low: 5000, Medium: 15000, High: 30000}
}

// Category returns the consumption category of v.
func Category(v float64, t Thresholds) string {
	switch {
	case v < t.VeryLow:
		return CategoryVeryLow
	case v < t.Low:
		return CategoryLow
	case v < t.Medium:
		return CategoryMedium
	case v < t.High:
		return CategoryHigh
	default:
		return CategoryVeryHigh
	}
}

// RegionLookup resolves the island region of a province.
type RegionLookup interface {
	Region(province string) string
}

// Row is one clean record with every derived feature. Pointer fields are
// nil where the feature is undefined (first year of a province, a single
// province in a year).
type Row struct {
	Province      string   `json:"Province" csv:"Province"`
	Year          int      `json:"Year" csv:"Year"`
	Electricity   float64  `json:"Electricity_GWh" csv:"Electricity_GWh"`
	ProvinceGeo   string   `json:"Province_GeoJSON,omitempty" csv:"Province_GeoJSON"`
	Region        string   `json:"Region" csv:"Region"`
	Category      string   `json:"Category" csv:"Category"`
	YoYGrowth     *float64 `json:"YoY_Growth_%" csv:"YoY_Growth_%"`
	YoYChange     *float64 `json:"YoY_Change_GWh" csv:"YoY_Change_GWh"`
	Rank          int      `json:"Rank" csv:"Rank"`
	Percentile    float64  `json:"Percentile" csv:"Percentile"`
	Share         float64  `json:"Share_%" csv:"Share_%"`
	ZScore        *float64 `json:"Z_Score" csv:"Z_Score"`
	MovingAverage float64  `json:"Moving_Average" csv:"Moving_Average"`
}

// Options selects and parameterizes the derived features.
type Options struct {
	Thresholds Thresholds
	Regions    RegionLookup
	// MovingWindow is the moving-average window in years; values below 1
	// are treated as 2.
	MovingWindow int
}

// DefaultOptions returns the standard options without a region lookup.
func DefaultOptions() Options {
	return Options{Thresholds: DefaultThresholds(), MovingWindow: 2}
}

// Transform computes every feature for records. The output is ordered by
// province, then year. Records are not modified.
func Transform(records []model.CleanRecord, opts Options) []Row {
	window := opts.MovingWindow
	if window < 1 {
		window = 2
	}

	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{
			Province:    r.Province,
			Year:        r.Year,
			Electricity: r.Electricity,
			ProvinceGeo: r.GeoName(),
			Category:    Category(r.Electricity, opts.Thresholds),
		}
		if opts.Regions != nil {
			rows[i].Region = opts.Regions.Region(r.Province)
		}
	}

	sortProvinceYear(rows)
	addGrowth(rows, window)
	addYearly(rows)
	return rows
}

func sortProvinceYear(rows []Row) {
	slices.SortStableFunc(rows, func(a, b Row) int {
		if c := strings.Compare(a.Province, b.Province); c != 0 {
			return c
		}
		return cmp.Compare(a.Year, b.Year)
	})
}

// addGrowth fills the per-province sequential features. rows must be sorted
// by province, then year.
func addGrowth(rows []Row, window int) {
	for start := 0; start < len(rows); {
		end := start
		for end < len(rows) && rows[end].Province == rows[start].Province {
			end++
		}
		group := rows[start:end]
		for i := range group {
			if i > 0 {
				prev := group[i-1].Electricity
				change := group[i].Electricity - prev
				group[i].YoYChange = &change
				if prev != 0 {
					growth := change / prev * 100
					group[i].YoYGrowth = &growth
				}
			}
			lo := max(0, i-window+1)
			sum := 0.0
			for _, r := range group[lo : i+1] {
				sum += r.Electricity
			}
			group[i].MovingAverage = sum / float64(i+1-lo)
		}
		start = end
	}
}

// addYearly fills the per-year cross-sectional features.
func addYearly(rows []Row) {
	byYear := make(map[int][]int)
	for i, r := range rows {
		byYear[r.Year] = append(byYear[r.Year], i)
	}

	for _, idx := range byYear {
		values := make([]float64, len(idx))
		for j, i := range idx {
			values[j] = rows[i].Electricity
		}
		total := 0.0
		for _, v := range values {
			total += v
		}

		var mean, std float64
		if len(values) > 1 {
			mean, std = stat.MeanStdDev(values, nil)
		}

		for j, i := range idx {
			v := values[j]
			rows[i].Rank = rankMin(values, v)
			rows[i].Percentile = percentileRank(values, v)
			if total != 0 {
				rows[i].Share = v / total * 100
			}
			if len(values) > 1 && std > 0 && !math.IsNaN(std) {
				z := (v - mean) / std
				rows[i].ZScore = &z
			}
		}
	}
}

// rankMin is the descending competition rank of v: one more than the
// number of strictly larger values.
func rankMin(values []float64, v float64) int {
	rank := 1
	for _, x := range values {
		if x > v {
			rank++
		}
	}
	return rank
}

// percentileRank is the ascending average rank of v divided by the group
// size, times 100.
func percentileRank(values []float64, v float64) float64 {
	less, equal := 0, 0
	for _, x := range values {
		switch {
		case x < v:
			less++
		case x == v:
			equal++
		}
	}
	avg := float64(less) + float64(equal+1)/2
	return avg / float64(len(values)) * 100
}
