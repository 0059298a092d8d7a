package main

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/clean"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/export"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/pipeline"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/province"
)

var cleanPolicy string

// cleanReport is what the clean command prints.
type cleanReport struct {
	Summary    clean.Summary       `json:"summary"`
	Quality    clean.QualityReport `json:"quality"`
	Annotation province.Annotation `json:"annotation"`
	Files      []string            `json:"files"`
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean the raw exports and write the clean table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cleanPolicy != "" {
			cfg.Clean.MissingPolicy = cleanPolicy
		}
		p, err := initPipeline("pipeline", nil)
		if err != nil {
			return err
		}

		res, err := p.Clean()
		if err != nil {
			return eris.Wrap(err, "clean")
		}

		report := cleanReport{
			Summary:    res.Clean.Summary,
			Quality:    res.Clean.Quality,
			Annotation: res.Annotation,
		}
		for _, out := range []struct {
			name    string
			withGeo bool
		}{
			{pipeline.CleanFile, false},
			{pipeline.WithGeoFile, true},
		} {
			path := filepath.Join(cfg.Paths.ProcessedDir, out.name)
			if err := export.WriteRecordsCSV(path, res.Records, out.withGeo); err != nil {
				return err
			}
			report.Files = append(report.Files, path)
		}

		zap.L().Info("clean complete",
			zap.Int("rows", len(res.Records)),
			zap.Int("dropped", res.Clean.Summary.Dropped()),
			zap.String("policy", res.Clean.Summary.Policy),
		)
		return printJSON(cmd.OutOrStdout(), report)
	},
}

func init() {
	cleanCmd.Flags().StringVar(&cleanPolicy, "policy", "", "missing value policy: drop, fill_zero or fill_mean (default from config)")
	rootCmd.AddCommand(cleanCmd)
}
