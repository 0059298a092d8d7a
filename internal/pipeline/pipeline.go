// Package pipeline chains the stages of the electricity pipeline: load,
// clean, annotate, merge, derive features and write artifacts.
package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/boundary"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/clean"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/config"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/features"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/geomerge"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/loader"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/province"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/store"
)

// Stage names.
const (
	StageLoad     = "load"
	StageClean    = "clean"
	StageAnnotate = "annotate"
	StageMerge    = "merge"
	StageFeatures = "features"
	StageExport   = "export"
	StageStore    = "store"
)

// StageResult records the outcome of one stage.
type StageResult struct {
	Name     string `json:"name"`
	Duration int64  `json:"duration_ms"`
	Error    string `json:"error,omitempty"`
}

// Result is everything a run produced.
type Result struct {
	RunID      string              `json:"run_id,omitempty"`
	Batch      *loader.Batch       `json:"load"`
	Clean      *clean.Result       `json:"clean"`
	Records    []model.CleanRecord `json:"-"`
	Annotation province.Annotation `json:"annotation"`
	Merges     []*geomerge.Result  `json:"merges,omitempty"`
	Coverage   *geomerge.Coverage  `json:"coverage,omitempty"`
	Features   []features.Row      `json:"-"`
	Boundaries []boundary.Feature  `json:"-"`
	Artifacts  []string            `json:"artifacts,omitempty"`
	Stages     []StageResult       `json:"stages"`
	Summary    *model.RunResult    `json:"summary"`
}

// Pipeline runs the stages over one immutable configuration.
type Pipeline struct {
	cfg    *config.Config
	mapper *province.Mapper
	store  store.Store
	cache  *loader.Cache

	// WriteArtifacts controls whether Run writes files under the configured
	// interim and processed directories.
	WriteArtifacts bool
}

// New creates a Pipeline. st may be nil, in which case runs are not
// recorded.
func New(cfg *config.Config, mapper *province.Mapper, st store.Store) *Pipeline {
	if mapper == nil {
		mapper = province.Default()
	}
	return &Pipeline{
		cfg:            cfg,
		mapper:         mapper,
		store:          st,
		cache:          loader.NewCache(),
		WriteArtifacts: true,
	}
}

// Mapper returns the name mapper of the pipeline.
func (p *Pipeline) Mapper() *province.Mapper {
	return p.mapper
}

// Load reads the configured years from the raw directory.
func (p *Pipeline) Load() (*loader.Batch, error) {
	return p.cache.LoadYears(p.cfg.Paths.RawDir, p.cfg.Source.Years, LoaderOptions(p.cfg))
}

// Clean loads and cleans the configured years, then annotates the records
// with boundary names.
func (p *Pipeline) Clean() (*Result, error) {
	res := &Result{}
	if err := p.runStages(res); err != nil {
		return res, err
	}
	return res, nil
}

// Boundaries loads the configured boundary dataset.
func (p *Pipeline) Boundaries() ([]boundary.Feature, error) {
	return boundary.Load(p.cfg.Paths.BoundaryFile, p.cfg.Boundary.NameProperty)
}

// Run executes every stage and records the run when a store is set. The
// merge stage runs only when the boundary file exists.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	log := zap.L().With(zap.String("component", "pipeline"))
	log.Info("pipeline: starting run", zap.Ints("years", p.cfg.Source.Years))

	res := &Result{}

	var run *model.Run
	if p.store != nil {
		var err error
		run, err = p.store.CreateRun(ctx, p.cfg.Source.Years)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		res.RunID = run.ID
	}

	err := p.run(ctx, res)
	if run != nil {
		if err != nil {
			if failErr := p.store.FailRun(ctx, run.ID, err); failErr != nil {
				log.Warn("pipeline: failed to record run failure", zap.Error(failErr))
			}
		} else if err = p.track(res, StageStore, func() error { return p.persist(ctx, res) }); err == nil {
			if err = p.store.CompleteRun(ctx, run.ID, res.Summary); err != nil {
				err = eris.Wrap(err, "pipeline: complete run")
			}
		}
	}
	if err != nil {
		log.Error("pipeline: run failed", zap.Error(err))
		return res, err
	}

	log.Info("pipeline: run complete",
		zap.Int("raw_rows", res.Summary.RawRows),
		zap.Int("clean_rows", res.Summary.CleanRows),
		zap.Int("provinces", res.Summary.Provinces),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, res *Result) error {
	if err := p.runStages(res); err != nil {
		return err
	}

	if err := p.track(res, StageMerge, func() error { return p.merge(res) }); err != nil {
		return err
	}

	if err := p.track(res, StageFeatures, func() error {
		res.Features = features.Transform(res.Records, FeatureOptions(p.cfg, p.mapper))
		return nil
	}); err != nil {
		return err
	}

	res.Summary = summarize(res)

	if p.WriteArtifacts {
		if err := p.track(res, StageExport, func() error { return p.writeArtifacts(res) }); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// runStages runs load, clean and annotate.
func (p *Pipeline) runStages(res *Result) error {
	if err := p.track(res, StageLoad, func() error {
		batch, err := p.Load()
		res.Batch = batch
		return err
	}); err != nil {
		return err
	}

	if err := p.track(res, StageClean, func() error {
		opts, err := CleanOptions(p.cfg)
		if err != nil {
			return err
		}
		res.Clean, err = clean.Clean(res.Batch.Records, opts)
		return err
	}); err != nil {
		return err
	}

	return p.track(res, StageAnnotate, func() error {
		res.Records, res.Annotation = p.mapper.Annotate(res.Clean.Records)
		return nil
	})
}

func (p *Pipeline) merge(res *Result) error {
	log := zap.L().With(zap.String("component", "pipeline"))

	path := p.cfg.Paths.BoundaryFile
	if path == "" {
		log.Warn("pipeline: no boundary file configured, skipping merge")
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		log.Warn("pipeline: boundary file not found, skipping merge", zap.String("path", path))
		return nil
	}

	feats, err := p.Boundaries()
	if err != nil {
		return err
	}
	res.Boundaries = feats

	for _, year := range model.Years(res.Records) {
		m := geomerge.Merge(res.Records, feats, year)
		res.Merges = append(res.Merges, m)
	}
	cov := geomerge.ComputeCoverage(res.Records, feats, p.mapper)
	res.Coverage = &cov
	return nil
}

func (p *Pipeline) persist(ctx context.Context, res *Result) error {
	if _, err := p.store.SaveRecords(ctx, res.RunID, res.Records); err != nil {
		return err
	}
	stats := make([]geomerge.Stats, 0, len(res.Merges))
	for _, m := range res.Merges {
		stats = append(stats, m.Stats)
	}
	if err := p.store.SaveMergeStats(ctx, res.RunID, stats); err != nil {
		return err
	}
	if len(res.Boundaries) > 0 {
		if _, err := p.store.SaveBoundaries(ctx, res.Boundaries); err != nil {
			return err
		}
	}
	return nil
}

// track runs fn as the named stage and appends its StageResult.
func (p *Pipeline) track(res *Result, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	sr := StageResult{Name: name, Duration: time.Since(start).Milliseconds()}
	if err != nil {
		sr.Error = err.Error()
		zap.L().Error("pipeline: stage failed",
			zap.String("component", "pipeline"),
			zap.String("stage", name),
			zap.Int64("duration_ms", sr.Duration),
			zap.Error(err),
		)
	}
	res.Stages = append(res.Stages, sr)
	return err
}

// summarize builds the machine-readable run summary.
func summarize(res *Result) *model.RunResult {
	sum := &model.RunResult{
		CleanRows:  len(res.Records),
		Provinces:  res.Clean.Quality.TotalProvinces,
		Unexpected: res.Annotation.Unexpected,
		Pending:    res.Annotation.Pending,
		Dropped:    make(map[string]int),
	}
	if res.Batch != nil {
		sum.RawRows = len(res.Batch.Records)
		sum.MissingYears = res.Batch.Missing
		for reason, n := range res.Batch.Rejected() {
			sum.Dropped["load_"+string(reason)] = n
		}
	}
	s := res.Clean.Summary
	for k, v := range map[string]int{
		"blank_names": s.BlankNames,
		"aggregates":  s.Aggregates,
		"missing":     s.MissingDropped,
		"duplicates":  s.Duplicates,
		"conflicts":   s.Conflicts,
	} {
		if v > 0 {
			sum.Dropped[k] = v
		}
	}
	if len(res.Merges) > 0 {
		sum.MatchRate = make(map[int]float64, len(res.Merges))
		for _, m := range res.Merges {
			sum.MatchRate[m.Year] = m.Stats.MatchRate
		}
	}
	return sum
}
