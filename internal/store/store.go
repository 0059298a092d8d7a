// Package store persists pipeline runs and their artifacts.
package store

import (
	"context"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/boundary"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/geomerge"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the electricity pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, years []int) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, result *model.RunResult) error
	FailRun(ctx context.Context, runID string, cause error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Artifacts
	SaveRecords(ctx context.Context, runID string, records []model.CleanRecord) (int64, error)
	GetRecords(ctx context.Context, runID string) ([]model.CleanRecord, error)
	SaveMergeStats(ctx context.Context, runID string, stats []geomerge.Stats) error
	SaveBoundaries(ctx context.Context, features []boundary.Feature) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the store selected by driver. An empty driver returns a nil
// Store and no error.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "":
		return nil, nil
	case "sqlite":
		st, err := NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "postgres":
		st, err := NewPostgres(ctx, dsn, nil)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, errUnknownDriver(driver)
	}
}
