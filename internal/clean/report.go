package clean

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
)

// QualityReport is a derived view of a clean record set. It never carries
// state of its own: Quality(records) always reproduces it.
type QualityReport struct {
	TotalRows      int            `json:"total_rows"`
	TotalProvinces int            `json:"total_provinces"`
	TotalYears     int            `json:"total_years"`
	Years          []int          `json:"years"`
	Duplicates     int            `json:"duplicates"`
	NegativeValues int            `json:"negative_values"`
	ZeroValues     int            `json:"zero_values"`
	MissingValues  map[string]int `json:"missing_values"`
	Min            float64        `json:"min"`
	Max            float64        `json:"max"`
	Mean           float64        `json:"mean"`
	Total          float64        `json:"total"`
}

// Quality computes the data-quality report of records.
func Quality(records []model.CleanRecord) QualityReport {
	q := QualityReport{
		TotalRows: len(records),
		Years:     model.Years(records),
	}
	q.MissingValues = map[string]int{
		model.ColProvince:    0,
		model.ColYear:        0,
		model.ColElectricity: 0,
	}
	q.TotalYears = len(q.Years)
	if q.Years == nil {
		q.Years = []int{}
	}

	type row struct {
		key   model.Key
		value float64
	}
	provinces := make(map[string]bool)
	seen := make(map[row]bool, len(records))
	values := make([]float64, 0, len(records))

	for _, r := range records {
		if r.Province == "" {
			q.MissingValues[model.ColProvince]++
		} else {
			provinces[r.Province] = true
		}
		if r.Year == 0 {
			q.MissingValues[model.ColYear]++
		}

		v := r.Electricity
		if math.IsNaN(v) || math.IsInf(v, 0) {
			q.MissingValues[model.ColElectricity]++
			continue
		}
		k := row{key: r.Key(), value: v}
		if seen[k] {
			q.Duplicates++
		}
		seen[k] = true

		switch {
		case v < 0:
			q.NegativeValues++
		case v == 0:
			q.ZeroValues++
		}
		values = append(values, v)
	}
	q.TotalProvinces = len(provinces)

	if len(values) > 0 {
		q.Min, q.Max = values[0], values[0]
		for _, v := range values {
			q.Min = math.Min(q.Min, v)
			q.Max = math.Max(q.Max, v)
			q.Total += v
		}
		q.Mean = stat.Mean(values, nil)
	}
	return q
}
