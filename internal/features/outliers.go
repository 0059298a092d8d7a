package features

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
)

// OutlierMethod selects the outlier rule.
type OutlierMethod string

// Outlier rules.
const (
	// OutlierIQR flags values outside [Q1 - k*IQR, Q3 + k*IQR].
	OutlierIQR OutlierMethod = "iqr"
	// OutlierZScore flags values whose absolute z-score exceeds k.
	OutlierZScore OutlierMethod = "zscore"
)

// Outliers returns the records flagged by method with multiplier k, in
// input order.
func Outliers(records []model.CleanRecord, method OutlierMethod, k float64) ([]model.CleanRecord, error) {
	values := electricity(records)
	if len(values) == 0 {
		return nil, nil
	}

	var flag func(v float64) bool
	switch method {
	case OutlierIQR:
		q1, q3 := Quantile(values, 0.25), Quantile(values, 0.75)
		iqr := q3 - q1
		lo, hi := q1-k*iqr, q3+k*iqr
		flag = func(v float64) bool { return v < lo || v > hi }
	case OutlierZScore:
		if len(values) < 2 {
			return nil, nil
		}
		mean, std := stat.MeanStdDev(values, nil)
		if std == 0 {
			return nil, nil
		}
		flag = func(v float64) bool { return math.Abs((v-mean)/std) > k }
	default:
		return nil, eris.Errorf("features: unknown outlier method %q (use iqr or zscore)", method)
	}

	var out []model.CleanRecord
	for _, r := range records {
		if flag(r.Electricity) {
			out = append(out, r)
		}
	}
	return out, nil
}

// NormalizeMethod selects the rescaling rule.
type NormalizeMethod string

// Rescaling rules.
const (
	NormalizeMinMax NormalizeMethod = "minmax"
	NormalizeZScore NormalizeMethod = "zscore"
)

// Normalize rescales the record values, returned in input order. A constant
// series normalizes to zeros.
func Normalize(records []model.CleanRecord, method NormalizeMethod) ([]float64, error) {
	values := electricity(records)
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out, nil
	}

	switch method {
	case NormalizeMinMax:
		lo, hi := floats.Min(values), floats.Max(values)
		if hi == lo {
			return out, nil
		}
		for i, v := range values {
			out[i] = (v - lo) / (hi - lo)
		}
	case NormalizeZScore:
		if len(values) < 2 {
			return out, nil
		}
		mean, std := stat.MeanStdDev(values, nil)
		if std == 0 {
			return out, nil
		}
		for i, v := range values {
			out[i] = (v - mean) / std
		}
	default:
		return nil, eris.Errorf("features: unknown normalize method %q (use minmax or zscore)", method)
	}
	return out, nil
}

func electricity(records []model.CleanRecord) []float64 {
	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = r.Electricity
	}
	return values
}
