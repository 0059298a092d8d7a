package main

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/export"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/features"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/pipeline"
)

// zScoreThreshold is the absolute z-score above which a value is an outlier.
const zScoreThreshold = 3.0

var featuresOutlierMethod string

// featuresReport is what the features command prints.
type featuresReport struct {
	Rows     int                        `json:"rows"`
	File     string                     `json:"file"`
	Regions  []features.RegionAggregate `json:"regions"`
	Years    []features.YearAggregate   `json:"years"`
	CAGR     []features.CAGRRow         `json:"cagr,omitempty"`
	Top      []model.CleanRecord        `json:"top"`
	Outliers []model.CleanRecord        `json:"outliers"`
}

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Derive growth, rank, share and category features",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := initPipeline("pipeline", nil)
		if err != nil {
			return err
		}

		res, err := p.Clean()
		if err != nil {
			return eris.Wrap(err, "features")
		}
		rows := features.Transform(res.Records, pipeline.FeatureOptions(cfg, p.Mapper()))

		path := filepath.Join(cfg.Paths.ProcessedDir, pipeline.FeaturesFile)
		if err := export.WriteFeaturesCSV(path, rows); err != nil {
			return err
		}

		fc := cfg.Features
		report := featuresReport{
			Rows:    len(rows),
			File:    path,
			Regions: features.AggregateByRegion(res.Records, p.Mapper()),
			Years:   features.AggregateByYear(res.Records),
			Top:     features.TopN(res.Records, fc.ComparisonYear, fc.TopN, false),
		}

		cagr, err := features.CAGR(res.Records, fc.BaseYear, fc.ComparisonYear)
		if err != nil {
			zap.L().Warn("features: skipping CAGR", zap.Error(err))
		}
		report.CAGR = cagr

		method := features.OutlierMethod(featuresOutlierMethod)
		k := fc.IQRMultiplier
		if method == features.OutlierZScore {
			k = zScoreThreshold
		}
		report.Outliers, err = features.Outliers(model.FilterYear(res.Records, fc.ComparisonYear), method, k)
		if err != nil {
			return eris.Wrap(err, "features: outliers")
		}

		return printJSON(cmd.OutOrStdout(), report)
	},
}

func init() {
	featuresCmd.Flags().StringVar(&featuresOutlierMethod, "outliers", string(features.OutlierIQR), "outlier rule for the comparison year: iqr or zscore")
	rootCmd.AddCommand(featuresCmd)
}
