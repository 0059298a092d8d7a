// Package clean turns loader output into the validated, canonical record set
// consumed by the name mapper, the geo merger and the feature layer.
package clean

import (
	"cmp"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
)

// MissingPolicy decides what happens to records whose value is null after
// numeric parsing.
type MissingPolicy int

const (
	// PolicyDrop removes records with a null value.
	PolicyDrop MissingPolicy = iota
	// PolicyFillZero replaces null values with 0.
	PolicyFillZero
	// PolicyFillMean replaces null values with the mean of the non-null values.
	PolicyFillMean
)

func (p MissingPolicy) String() string {
	switch p {
	case PolicyDrop:
		return "drop"
	case PolicyFillZero:
		return "fill_zero"
	case PolicyFillMean:
		return "fill_mean"
	default:
		return "unknown"
	}
}

// ParseMissingPolicy parses the configuration spelling of a policy.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return PolicyDrop, nil
	case "fill_zero", "zero":
		return PolicyFillZero, nil
	case "fill_mean", "mean":
		return PolicyFillMean, nil
	default:
		return PolicyDrop, eris.Errorf("clean: unknown missing policy %q", s)
	}
}

// Options configures a cleaning run.
type Options struct {
	MissingToken    string
	AggregateMarker string
	Policy          MissingPolicy
}

// DefaultOptions returns the options matching the source export format.
func DefaultOptions() Options {
	return Options{
		MissingToken:    "-",
		AggregateMarker: "INDONESIA",
		Policy:          PolicyDrop,
	}
}

// Summary counts what each cleaning stage did so that no drop is silent.
type Summary struct {
	Input          int    `json:"input"`
	BlankNames     int    `json:"blank_names"`
	Aggregates     int    `json:"aggregates"`
	Renamed        int    `json:"renamed"`
	NullValues     int    `json:"null_values"`
	MissingDropped int    `json:"missing_dropped"`
	MissingFilled  int    `json:"missing_filled"`
	Duplicates     int    `json:"duplicates"`
	Conflicts      int    `json:"conflicts"`
	Output         int    `json:"output"`
	Policy         string `json:"policy"`
}

// Dropped returns the total number of input records absent from the output.
func (s Summary) Dropped() int {
	return s.BlankNames + s.Aggregates + s.MissingDropped + s.Duplicates + s.Conflicts
}

// Result is the output of Clean.
type Result struct {
	Records []model.CleanRecord `json:"records"`
	Summary Summary             `json:"summary"`
	Quality QualityReport       `json:"quality"`
}

// Clean runs the cleaning stages in order: drop blank names, drop the
// national aggregate row, canonicalize names, parse values, apply the missing
// policy, remove exact duplicates, sort by year then province, and build the
// quality report. The input is not modified.
func Clean(raw []model.RawRecord, opts Options) (*Result, error) {
	log := zap.L().With(zap.String("component", "clean"))

	switch opts.Policy {
	case PolicyDrop, PolicyFillZero, PolicyFillMean:
	default:
		return nil, eris.Errorf("clean: invalid missing policy %d", opts.Policy)
	}

	sum := Summary{Input: len(raw), Policy: opts.Policy.String()}
	marker := Canonicalize(opts.AggregateMarker)

	rows := make([]model.ConsumptionRecord, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r.Province) == "" {
			sum.BlankNames++
			continue
		}
		name := Canonicalize(r.Province)
		if marker != "" && name == marker {
			sum.Aggregates++
			continue
		}
		if name != r.Province {
			sum.Renamed++
		}
		value := ParseValue(r.Value, opts.MissingToken)
		if value == nil {
			sum.NullValues++
		}
		rows = append(rows, model.ConsumptionRecord{Province: name, Year: r.Year, Value: value})
	}

	rows = applyPolicy(rows, opts.Policy, &sum)

	records := make([]model.CleanRecord, 0, len(rows))
	seen := make(map[model.Key]float64, len(rows))
	for _, r := range rows {
		key := model.Key{Province: r.Province, Year: r.Year}
		if prev, ok := seen[key]; ok {
			if prev == *r.Value {
				sum.Duplicates++
			} else {
				sum.Conflicts++
				log.Warn("clean: conflicting values for province-year, keeping first",
					zap.String("province", r.Province),
					zap.Int("year", r.Year),
					zap.Float64("kept", prev),
					zap.Float64("dropped", *r.Value),
				)
			}
			continue
		}
		seen[key] = *r.Value
		records = append(records, model.CleanRecord{Province: r.Province, Year: r.Year, Electricity: *r.Value})
	}

	SortRecords(records)
	sum.Output = len(records)

	res := &Result{Records: records, Summary: sum, Quality: Quality(records)}

	if len(records) == 0 {
		log.Warn("clean: empty result", zap.Int("input", sum.Input), zap.Int("dropped", sum.Dropped()))
	} else {
		log.Info("clean: complete",
			zap.Int("input", sum.Input),
			zap.Int("output", sum.Output),
			zap.Int("dropped", sum.Dropped()),
			zap.Int("provinces", res.Quality.TotalProvinces),
			zap.String("policy", sum.Policy),
		)
	}
	return res, nil
}

// CleanRecords re-runs Clean over an already-clean table. Province_GeoJSON
// annotations survive for the keys that remain. Cleaning a clean table returns
// the same rows in the same order.
func CleanRecords(records []model.CleanRecord, opts Options) (*Result, error) {
	raw := make([]model.RawRecord, len(records))
	geo := make(map[model.Key]*string, len(records))
	for i, r := range records {
		raw[i] = model.RawRecord{Province: r.Province, Year: r.Year, Value: FormatNumber(r.Electricity)}
		if _, ok := geo[r.Key()]; !ok && r.ProvinceGeo != nil {
			geo[r.Key()] = r.ProvinceGeo
		}
	}

	res, err := Clean(raw, opts)
	if err != nil {
		return nil, err
	}
	for i := range res.Records {
		if g, ok := geo[res.Records[i].Key()]; ok {
			name := *g
			res.Records[i].ProvinceGeo = &name
		}
	}
	return res, nil
}

// SortRecords orders records by year ascending, then province ascending.
func SortRecords(records []model.CleanRecord) {
	slices.SortStableFunc(records, func(a, b model.CleanRecord) int {
		if c := cmp.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		return strings.Compare(a.Province, b.Province)
	})
}

func applyPolicy(rows []model.ConsumptionRecord, policy MissingPolicy, sum *Summary) []model.ConsumptionRecord {
	if sum.NullValues == 0 {
		return rows
	}

	var fill float64
	switch policy {
	case PolicyFillZero:
		fill = 0
	case PolicyFillMean:
		var present []float64
		for _, r := range rows {
			if r.HasValue() {
				present = append(present, *r.Value)
			}
		}
		if len(present) == 0 {
			// Nothing to average: fall back to dropping.
			policy = PolicyDrop
			break
		}
		fill = stat.Mean(present, nil)
	}

	out := rows[:0:0]
	for _, r := range rows {
		if r.HasValue() {
			out = append(out, r)
			continue
		}
		if policy == PolicyDrop {
			sum.MissingDropped++
			continue
		}
		v := fill
		r.Value = &v
		sum.MissingFilled++
		out = append(out, r)
	}
	return out
}
