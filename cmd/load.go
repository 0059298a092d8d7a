package main

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/export"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/pipeline"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the yearly exports into the combined raw table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := initPipeline("pipeline", nil)
		if err != nil {
			return err
		}

		batch, err := p.Load()
		if err != nil {
			return eris.Wrap(err, "load")
		}

		path := filepath.Join(cfg.Paths.InterimDir, pipeline.CombinedRawFile)
		if err := export.WriteRawRecordsCSV(path, batch.Records); err != nil {
			return err
		}
		zap.L().Info("load complete",
			zap.Int("rows", len(batch.Records)),
			zap.Ints("years", batch.Years),
			zap.Ints("missing", batch.Missing),
			zap.String("path", path),
		)
		return printJSON(cmd.OutOrStdout(), batch)
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
