package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/boundary"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/db"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/geomerge"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
)

// PostgresStore implements Store using pgxpool. Clean records are published
// into electricity_clean, replacing the years of the run.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// cleanColumns are the COPY columns of electricity_clean.
var cleanColumns = []string{"run_id", "province", "year", "electricity_gwh", "province_geojson"}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	retry := db.DefaultRetryConfig()
	retry.OnRetry = db.RetryLogger("postgres ping")
	if err := db.Retry(ctx, retry, pool.Ping); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	years      JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	summary    JSONB,
	error      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS electricity_clean (
	run_id           TEXT NOT NULL REFERENCES runs(id),
	province         TEXT NOT NULL,
	year             INTEGER NOT NULL,
	electricity_gwh  DOUBLE PRECISION NOT NULL,
	province_geojson TEXT,
	PRIMARY KEY (province, year)
);

CREATE TABLE IF NOT EXISTS merge_stats (
	run_id TEXT NOT NULL REFERENCES runs(id),
	year   INTEGER NOT NULL,
	stats  JSONB NOT NULL,
	PRIMARY KEY (run_id, year)
);

CREATE TABLE IF NOT EXISTS boundaries (
	name       TEXT PRIMARY KEY,
	properties JSONB NOT NULL,
	geom_ewkb  BYTEA
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_electricity_clean_run_id ON electricity_clean(run_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, years []int) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	yearsJSON, err := json.Marshal(years)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal years")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, years, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, yearsJSON, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Years:     years,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET summary = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET error = $1, status = $2, updated_at = $3 WHERE id = $4`,
		msg, string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, years, status, summary, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)
	r, err := scanPostgresRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("postgres: get run %s: run not found", runID)
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, years, status, summary, error, created_at, updated_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limitOrDefault(filter.Limit))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// SaveRecords publishes records, replacing every row of the years they
// cover.
func (s *PostgresStore) SaveRecords(ctx context.Context, runID string, records []model.CleanRecord) (int64, error) {
	rows := make([][]any, len(records))
	for i, r := range records {
		var geo any
		if r.ProvinceGeo != nil {
			geo = *r.ProvinceGeo
		}
		rows[i] = []any{runID, r.Province, r.Year, r.Electricity, geo}
	}

	years := model.Years(records)
	if years == nil {
		years = []int{}
	}
	res, err := s.replace(ctx, db.ReplaceConfig{
		Table:     "electricity_clean",
		Columns:   cleanColumns,
		KeyColumn: "year",
		Keys:      years,
	}, rows)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: publish records for run %s", runID)
	}
	return res.Inserted, nil
}

func (s *PostgresStore) GetRecords(ctx context.Context, runID string) ([]model.CleanRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT province, year, electricity_gwh, province_geojson FROM electricity_clean WHERE run_id = $1 ORDER BY year, province`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get records for run %s", runID)
	}
	defer rows.Close()

	var out []model.CleanRecord
	for rows.Next() {
		var r model.CleanRecord
		if err := rows.Scan(&r.Province, &r.Year, &r.Electricity, &r.ProvinceGeo); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: get records iterate")
}

func (s *PostgresStore) SaveMergeStats(ctx context.Context, runID string, stats []geomerge.Stats) error {
	for _, st := range stats {
		data, err := json.Marshal(st)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal merge stats")
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO merge_stats (run_id, year, stats) VALUES ($1, $2, $3)
			 ON CONFLICT (run_id, year) DO UPDATE SET stats = EXCLUDED.stats`,
			runID, st.Year, data,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: save merge stats %d", st.Year)
		}
	}
	return nil
}

// SaveBoundaries replaces the stored boundary features by name.
func (s *PostgresStore) SaveBoundaries(ctx context.Context, features []boundary.Feature) (int64, error) {
	names := make([]string, 0, len(features))
	rows := make([][]any, 0, len(features))
	for _, f := range features {
		props, wkb, err := encodeFeature(f)
		if err != nil {
			return 0, err
		}
		names = append(names, f.Name)
		rows = append(rows, []any{f.Name, props, wkb})
	}
	slices.Sort(names)

	res, err := s.replace(ctx, db.ReplaceConfig{
		Table:     "boundaries",
		Columns:   []string{"name", "properties", "geom_ewkb"},
		KeyColumn: "name",
		Keys:      names,
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: save boundaries")
	}
	return res.Inserted, nil
}

// replace runs db.Replace, retrying serialization failures and dropped
// connections. Every attempt is its own transaction.
func (s *PostgresStore) replace(ctx context.Context, cfg db.ReplaceConfig, rows [][]any) (db.ReplaceResult, error) {
	retry := db.DefaultRetryConfig()
	retry.OnRetry = db.RetryLogger("replace " + cfg.Table)

	var res db.ReplaceResult
	err := db.Retry(ctx, retry, func(ctx context.Context) error {
		var err error
		res, err = db.Replace(ctx, s.pool, cfg, rows)
		return err
	})
	return res, err
}

func scanPostgresRun(row scannable) (*model.Run, error) {
	var r model.Run
	var yearsJSON, summaryJSON []byte
	var errMsg *string

	if err := row.Scan(&r.ID, &yearsJSON, &r.Status, &summaryJSON, &errMsg, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(yearsJSON, &r.Years); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal years")
	}
	if len(summaryJSON) > 0 {
		r.Summary = &model.RunResult{}
		if err := json.Unmarshal(summaryJSON, r.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
	}
	if errMsg != nil {
		r.Error = *errMsg
	}
	return &r, nil
}
