package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/export"
)

// Artifact file names under the interim and processed directories.
const (
	CombinedRawFile   = "combined_raw.csv"
	CleanFile         = "electricity_clean.csv"
	WithGeoFile       = "electricity_with_geo.csv"
	WorkbookFile      = "electricity_clean.xlsx"
	FeaturesFile      = "electricity_features.csv"
	QualityReportFile = "quality_report.json"
	MergeStatsFile    = "merge_stats.json"
	RunSummaryFile    = "run_summary.json"
)

// GeoJSONFile names the merged feature collection of a year.
func GeoJSONFile(year int) string {
	return fmt.Sprintf("provinces_%d.geojson", year)
}

func (p *Pipeline) writeArtifacts(res *Result) error {
	interim := p.cfg.Paths.InterimDir
	processed := p.cfg.Paths.ProcessedDir

	write := func(path string, fn func(string) error) error {
		if err := fn(path); err != nil {
			return err
		}
		res.Artifacts = append(res.Artifacts, path)
		return nil
	}

	steps := []struct {
		path string
		fn   func(string) error
	}{
		{filepath.Join(interim, CombinedRawFile), func(path string) error {
			return export.WriteRawRecordsCSV(path, res.Batch.Records)
		}},
		{filepath.Join(processed, CleanFile), func(path string) error {
			return export.WriteRecordsCSV(path, res.Records, false)
		}},
		{filepath.Join(processed, WithGeoFile), func(path string) error {
			return export.WriteRecordsCSV(path, res.Records, true)
		}},
		{filepath.Join(processed, WorkbookFile), func(path string) error {
			return export.WriteWorkbook(path, res.Records)
		}},
		{filepath.Join(processed, FeaturesFile), func(path string) error {
			return export.WriteFeaturesCSV(path, res.Features)
		}},
		{filepath.Join(processed, QualityReportFile), func(path string) error {
			return export.WriteJSON(path, res.Clean.Quality)
		}},
	}
	for _, s := range steps {
		if err := write(s.path, s.fn); err != nil {
			return err
		}
	}

	if len(res.Merges) > 0 {
		for _, m := range res.Merges {
			if err := write(filepath.Join(processed, GeoJSONFile(m.Year)), func(path string) error {
				return export.WriteGeoJSONFile(path, m.FeatureCollection())
			}); err != nil {
				return err
			}
		}
		stats := make(map[int]any, len(res.Merges))
		for _, m := range res.Merges {
			stats[m.Year] = m.Stats
		}
		if err := write(filepath.Join(processed, MergeStatsFile), func(path string) error {
			return export.WriteJSON(path, map[string]any{"years": stats, "coverage": res.Coverage})
		}); err != nil {
			return err
		}
	}

	return write(filepath.Join(processed, RunSummaryFile), func(path string) error {
		return export.WriteJSON(path, res.Summary)
	})
}
