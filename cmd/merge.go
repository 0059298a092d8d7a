package main

import (
	"path/filepath"
	"slices"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/export"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/geomerge"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/pipeline"
)

var mergeYear int

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge the clean table onto the province boundaries",
	Long:  "Writes provinces_<year>.geojson and the merge statistics for one year, or for every year when --year is 0.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := initPipeline("pipeline", nil)
		if err != nil {
			return err
		}

		res, err := p.Clean()
		if err != nil {
			return eris.Wrap(err, "merge")
		}
		feats, err := p.Boundaries()
		if err != nil {
			return eris.Wrap(err, "merge: load boundaries")
		}

		years := model.Years(res.Records)
		if mergeYear != 0 {
			if !slices.Contains(years, mergeYear) {
				return eris.Errorf("merge: no clean records for year %d", mergeYear)
			}
			years = []int{mergeYear}
		}

		stats := make([]geomerge.Stats, 0, len(years))
		for _, year := range years {
			m := geomerge.Merge(res.Records, feats, year)
			path := filepath.Join(cfg.Paths.ProcessedDir, pipeline.GeoJSONFile(year))
			if err := export.WriteGeoJSONFile(path, m.FeatureCollection()); err != nil {
				return err
			}
			stats = append(stats, m.Stats)
		}

		coverage := geomerge.ComputeCoverage(res.Records, feats, p.Mapper())
		report := map[string]any{"years": stats, "coverage": coverage}
		if err := export.WriteJSON(filepath.Join(cfg.Paths.ProcessedDir, pipeline.MergeStatsFile), report); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

func init() {
	mergeCmd.Flags().IntVar(&mergeYear, "year", 0, "year to merge (0 merges every year)")
	rootCmd.AddCommand(mergeCmd)
}
