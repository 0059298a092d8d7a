package features

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
)

// RegionAggregate is the consumption rollup of one region in one year.
type RegionAggregate struct {
	Region        string   `json:"Region" csv:"Region"`
	Year          int      `json:"Year" csv:"Year"`
	Total         float64  `json:"Total_GWh" csv:"Total_GWh"`
	Mean          float64  `json:"Mean_GWh" csv:"Mean_GWh"`
	Median        float64  `json:"Median_GWh" csv:"Median_GWh"`
	Std           *float64 `json:"Std_GWh" csv:"Std_GWh"`
	DataPoints    int      `json:"Data_Points" csv:"Data_Points"`
	ProvinceCount int      `json:"Province_Count" csv:"Province_Count"`
}

// AggregateByRegion rolls records up by region and year, ordered by region
// name, then year.
func AggregateByRegion(records []model.CleanRecord, regions RegionLookup) []RegionAggregate {
	type key struct {
		region string
		year   int
	}
	values := make(map[key][]float64)
	provinces := make(map[key]map[string]bool)
	for _, r := range records {
		k := key{region: regions.Region(r.Province), year: r.Year}
		values[k] = append(values[k], r.Electricity)
		if provinces[k] == nil {
			provinces[k] = make(map[string]bool)
		}
		provinces[k][r.Province] = true
	}

	out := make([]RegionAggregate, 0, len(values))
	for k, v := range values {
		out = append(out, RegionAggregate{
			Region:        k.region,
			Year:          k.year,
			Total:         floats.Sum(v),
			Mean:          stat.Mean(v, nil),
			Median:        Quantile(v, 0.5),
			Std:           sampleStd(v),
			DataPoints:    len(v),
			ProvinceCount: len(provinces[k]),
		})
	}
	slices.SortFunc(out, func(a, b RegionAggregate) int {
		if c := strings.Compare(a.Region, b.Region); c != 0 {
			return c
		}
		return cmp.Compare(a.Year, b.Year)
	})
	return out
}

// YearAggregate is the national rollup of one year.
type YearAggregate struct {
	Year   int      `json:"Year" csv:"Year"`
	Total  float64  `json:"Total_GWh" csv:"Total_GWh"`
	Mean   float64  `json:"Mean_GWh" csv:"Mean_GWh"`
	Median float64  `json:"Median_GWh" csv:"Median_GWh"`
	Std    *float64 `json:"Std_GWh" csv:"Std_GWh"`
	Min    float64  `json:"Min_GWh" csv:"Min_GWh"`
	Max    float64  `json:"Max_GWh" csv:"Max_GWh"`
	Count  int      `json:"Count" csv:"Count"`
}

// AggregateByYear rolls records up by year in ascending order.
func AggregateByYear(records []model.CleanRecord) []YearAggregate {
	byYear := make(map[int][]float64)
	for _, r := range records {
		byYear[r.Year] = append(byYear[r.Year], r.Electricity)
	}

	out := make([]YearAggregate, 0, len(byYear))
	for year, v := range byYear {
		out = append(out, YearAggregate{
			Year:   year,
			Total:  floats.Sum(v),
			Mean:   stat.Mean(v, nil),
			Median: Quantile(v, 0.5),
			Std:    sampleStd(v),
			Min:    floats.Min(v),
			Max:    floats.Max(v),
			Count:  len(v),
		})
	}
	slices.SortFunc(out, func(a, b YearAggregate) int { return cmp.Compare(a.Year, b.Year) })
	return out
}

// CAGRRow is the compound annual growth of one province.
type CAGRRow struct {
	Province string  `json:"Province" csv:"Province"`
	Start    float64 `json:"Start_GWh" csv:"Start_GWh"`
	End      float64 `json:"End_GWh" csv:"End_GWh"`
	Rate     float64 `json:"CAGR_%" csv:"CAGR_%"`
}

// CAGR computes ((end/start)^(1/years) - 1) * 100 for every province present
// in both years, ordered by province. Provinces with a zero start value are
// skipped.
func CAGR(records []model.CleanRecord, startYear, endYear int) ([]CAGRRow, error) {
	if endYear <= startYear {
		return nil, eris.Errorf("features: CAGR end year %d must be after start year %d", endYear, startYear)
	}
	start := valuesForYear(records, startYear)
	end := valuesForYear(records, endYear)
	n := float64(endYear - startYear)

	var out []CAGRRow
	for p, s := range start {
		e, ok := end[p]
		if !ok || s == 0 {
			continue
		}
		out = append(out, CAGRRow{
			Province: p,
			Start:    s,
			End:      e,
			Rate:     (math.Pow(e/s, 1/n) - 1) * 100,
		})
	}
	slices.SortFunc(out, func(a, b CAGRRow) int { return strings.Compare(a.Province, b.Province) })
	return out, nil
}

// Trend summarizes the trajectory of one province across all years.
type Trend struct {
	Province      string   `json:"Province" csv:"Province"`
	StartYear     int      `json:"Start_Year" csv:"Start_Year"`
	EndYear       int      `json:"End_Year" csv:"End_Year"`
	Start         float64  `json:"Start_Value" csv:"Start_Value"`
	End           float64  `json:"End_Value" csv:"End_Value"`
	TotalChange   float64  `json:"Total_Change" csv:"Total_Change"`
	PercentChange *float64 `json:"Percent_Change" csv:"Percent_Change"`
	Mean          float64  `json:"Mean_Value" csv:"Mean_Value"`
	Max           float64  `json:"Max_Value" csv:"Max_Value"`
	Min           float64  `json:"Min_Value" csv:"Min_Value"`
	Volatility    *float64 `json:"Volatility_Std" csv:"Volatility_Std"`
	Direction     string   `json:"Trend" csv:"Trend"`
}

// Trend directions.
const (
	TrendIncreasing = "Increasing"
	TrendDecreasing = "Decreasing"
)

// TrendSummary returns one Trend per province, ordered by province.
func TrendSummary(records []model.CleanRecord) []Trend {
	byProvince := make(map[string][]model.CleanRecord)
	for _, r := range records {
		byProvince[r.Province] = append(byProvince[r.Province], r)
	}

	out := make([]Trend, 0, len(byProvince))
	for p, rs := range byProvince {
		slices.SortStableFunc(rs, func(a, b model.CleanRecord) int { return cmp.Compare(a.Year, b.Year) })
		v := make([]float64, len(rs))
		for i, r := range rs {
			v[i] = r.Electricity
		}
		first, last := v[0], v[len(v)-1]

		t := Trend{
			Province:    p,
			StartYear:   rs[0].Year,
			EndYear:     rs[len(rs)-1].Year,
			Start:       first,
			End:         last,
			TotalChange: last - first,
			Mean:        stat.Mean(v, nil),
			Max:         floats.Max(v),
			Min:         floats.Min(v),
			Volatility:  sampleStd(v),
			Direction:   TrendDecreasing,
		}
		if first != 0 {
			pct := (last/first - 1) * 100
			t.PercentChange = &pct
		}
		if last > first {
			t.Direction = TrendIncreasing
		}
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b Trend) int { return strings.Compare(a.Province, b.Province) })
	return out
}

// ComparisonRow places the values of several years side by side.
type ComparisonRow struct {
	Province  string           `json:"Province"`
	Values    map[int]*float64 `json:"values"`
	Change    *float64         `json:"Change_GWh"`
	ChangePct *float64         `json:"Change_%"`
}

// Comparison builds a side-by-side table for years, anchored on the provinces
// of the first year. Change columns compare the last year with the first.
func Comparison(records []model.CleanRecord, years []int) []ComparisonRow {
	if len(years) == 0 {
		return nil
	}
	perYear := make([]map[string]float64, len(years))
	for i, y := range years {
		perYear[i] = valuesForYear(records, y)
	}

	provinces := make([]string, 0, len(perYear[0]))
	for p := range perYear[0] {
		provinces = append(provinces, p)
	}
	slices.Sort(provinces)

	out := make([]ComparisonRow, 0, len(provinces))
	for _, p := range provinces {
		row := ComparisonRow{Province: p, Values: make(map[int]*float64, len(years))}
		for i, y := range years {
			if v, ok := perYear[i][p]; ok {
				row.Values[y] = &v
			} else {
				row.Values[y] = nil
			}
		}
		if len(years) >= 2 {
			first, last := row.Values[years[0]], row.Values[years[len(years)-1]]
			if first != nil && last != nil {
				change := *last - *first
				row.Change = &change
				if *first != 0 {
					pct := change / *first * 100
					row.ChangePct = &pct
				}
			}
		}
		out = append(out, row)
	}
	return out
}

// Pivot is a province by year matrix of values.
type Pivot struct {
	Provinces []string     `json:"provinces"`
	Years     []int        `json:"years"`
	Values    [][]*float64 `json:"values"`
}

// PivotTable builds the province by year matrix used by heatmaps.
func PivotTable(records []model.CleanRecord) Pivot {
	pv := Pivot{Years: model.Years(records)}
	yearIdx := make(map[int]int, len(pv.Years))
	for i, y := range pv.Years {
		yearIdx[y] = i
	}

	seen := make(map[string]bool)
	for _, r := range records {
		if !seen[r.Province] {
			seen[r.Province] = true
			pv.Provinces = append(pv.Provinces, r.Province)
		}
	}
	slices.Sort(pv.Provinces)
	provIdx := make(map[string]int, len(pv.Provinces))
	for i, p := range pv.Provinces {
		provIdx[p] = i
	}

	pv.Values = make([][]*float64, len(pv.Provinces))
	for i := range pv.Values {
		pv.Values[i] = make([]*float64, len(pv.Years))
	}
	for _, r := range records {
		v := r.Electricity
		pv.Values[provIdx[r.Province]][yearIdx[r.Year]] = &v
	}
	return pv
}

// TopN returns the n records of year with the largest values, or the
// smallest when ascending is set. Ties keep input order.
func TopN(records []model.CleanRecord, year, n int, ascending bool) []model.CleanRecord {
	rows := model.FilterYear(records, year)
	slices.SortStableFunc(rows, func(a, b model.CleanRecord) int {
		if ascending {
			return cmp.Compare(a.Electricity, b.Electricity)
		}
		return cmp.Compare(b.Electricity, a.Electricity)
	})
	if n >= 0 && n < len(rows) {
		rows = rows[:n]
	}
	return rows
}

// Quantile returns the p-quantile of values by linear interpolation between
// closest ranks, h = (n-1)p. values need not be sorted and are not modified.
func Quantile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	hi := math.Ceil(h)
	return sorted[int(lo)] + (h-lo)*(sorted[int(hi)]-sorted[int(lo)])
}

// sampleStd returns the sample standard deviation, nil for fewer than two
// values.
func sampleStd(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}
	s := stat.StdDev(values, nil)
	return &s
}

func valuesForYear(records []model.CleanRecord, year int) map[string]float64 {
	out := make(map[string]float64)
	for _, r := range records {
		if r.Year != year {
			continue
		}
		if _, ok := out[r.Province]; !ok {
			out[r.Province] = r.Electricity
		}
	}
	return out
}
