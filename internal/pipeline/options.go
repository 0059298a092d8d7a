package pipeline

import (
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/clean"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/config"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/features"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/loader"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/province"
)

// LoaderOptions derives loader options from the source and paths sections.
func LoaderOptions(cfg *config.Config) loader.Options {
	opts := loader.DefaultOptions()
	opts.SkipRows = cfg.Source.SkipRows
	if cfg.Source.Encoding != "" {
		opts.Encoding = cfg.Source.Encoding
	}
	if cfg.Source.MissingToken != "" {
		opts.MissingToken = cfg.Source.MissingToken
	}
	if cfg.Paths.FilePattern != "" {
		opts.FilePattern = cfg.Paths.FilePattern
	}
	return opts
}

// CleanOptions derives cleaner options. It fails on an unknown missing
// policy.
func CleanOptions(cfg *config.Config) (clean.Options, error) {
	policy, err := clean.ParseMissingPolicy(cfg.Clean.MissingPolicy)
	if err != nil {
		return clean.Options{}, err
	}
	opts := clean.DefaultOptions()
	opts.Policy = policy
	if cfg.Source.MissingToken != "" {
		opts.MissingToken = cfg.Source.MissingToken
	}
	if cfg.Source.AggregateMarker != "" {
		opts.AggregateMarker = cfg.Source.AggregateMarker
	}
	return opts, nil
}

// FeatureOptions derives feature options, resolving regions through m.
func FeatureOptions(cfg *config.Config, m *province.Mapper) features.Options {
	opts := features.DefaultOptions()
	t := cfg.Features.Thresholds
	if t.High > 0 {
		opts.Thresholds = features.Thresholds{VeryLow: t.VeryLow, Low: t.Low, Medium: t.Medium, High: t.High}
	}
	if m != nil {
		opts.Regions = m
	}
	return opts
}
