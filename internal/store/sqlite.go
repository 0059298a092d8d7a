package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/boundary"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/geomerge"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	years      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	summary    TEXT,
	error      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS electricity_clean (
	run_id           TEXT NOT NULL REFERENCES runs(id),
	province         TEXT NOT NULL,
	year             INTEGER NOT NULL,
	electricity_gwh  REAL NOT NULL,
	province_geojson TEXT,
	PRIMARY KEY (run_id, province, year)
);

CREATE TABLE IF NOT EXISTS merge_stats (
	run_id TEXT NOT NULL REFERENCES runs(id),
	year   INTEGER NOT NULL,
	stats  TEXT NOT NULL,
	PRIMARY KEY (run_id, year)
);

CREATE TABLE IF NOT EXISTS boundaries (
	name       TEXT PRIMARY KEY,
	properties TEXT NOT NULL,
	geometry   BLOB
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_electricity_clean_year ON electricity_clean(year);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, years []int) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	yearsJSON, err := json.Marshal(years)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal years")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, years, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(yearsJSON), string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Years:     years,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET summary = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET error = ?, status = ?, updated_at = ? WHERE id = ?`,
		msg, string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, years, status, summary, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, years, status, summary, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	query += ` LIMIT ?`
	args = append(args, limitOrDefault(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer func() { _ = rows.Close() }()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SaveRecords(ctx context.Context, runID string, records []model.CleanRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM electricity_clean WHERE run_id = ?`, runID); err != nil {
		return 0, eris.Wrapf(err, "sqlite: clear records for run %s", runID)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO electricity_clean (run_id, province, year, electricity_gwh, province_geojson) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert record")
	}
	defer func() { _ = stmt.Close() }()

	var n int64
	for _, r := range records {
		var geo sql.NullString
		if r.ProvinceGeo != nil {
			geo = sql.NullString{String: *r.ProvinceGeo, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, runID, r.Province, r.Year, r.Electricity, geo); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert record %s %d", r.Province, r.Year)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit records")
	}
	return n, nil
}

func (s *SQLiteStore) GetRecords(ctx context.Context, runID string) ([]model.CleanRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT province, year, electricity_gwh, province_geojson FROM electricity_clean WHERE run_id = ? ORDER BY year, province`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get records for run %s", runID)
	}
	defer func() { _ = rows.Close() }()

	var out []model.CleanRecord
	for rows.Next() {
		var r model.CleanRecord
		var geo sql.NullString
		if err := rows.Scan(&r.Province, &r.Year, &r.Electricity, &geo); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		if geo.Valid {
			name := geo.String
			r.ProvinceGeo = &name
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: get records iterate")
}

func (s *SQLiteStore) SaveMergeStats(ctx context.Context, runID string, stats []geomerge.Stats) error {
	for _, st := range stats {
		data, err := json.Marshal(st)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal merge stats")
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO merge_stats (run_id, year, stats) VALUES (?, ?, ?)
			 ON CONFLICT(run_id, year) DO UPDATE SET stats = excluded.stats`,
			runID, st.Year, string(data),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: save merge stats %d", st.Year)
		}
	}
	return nil
}

// MergeStats returns the merge statistics of a run ordered by year.
func (s *SQLiteStore) MergeStats(ctx context.Context, runID string) ([]geomerge.Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT stats FROM merge_stats WHERE run_id = ? ORDER BY year`, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get merge stats for run %s", runID)
	}
	defer func() { _ = rows.Close() }()

	var out []geomerge.Stats
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan merge stats")
		}
		var st geomerge.Stats
		if err := json.Unmarshal([]byte(data), &st); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal merge stats")
		}
		out = append(out, st)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: merge stats iterate")
}

func (s *SQLiteStore) SaveBoundaries(ctx context.Context, features []boundary.Feature) (int64, error) {
	var n int64
	for _, f := range features {
		props, wkb, err := encodeFeature(f)
		if err != nil {
			return n, err
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO boundaries (name, properties, geometry) VALUES (?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET properties = excluded.properties, geometry = excluded.geometry`,
			f.Name, string(props), wkb,
		)
		if err != nil {
			return n, eris.Wrapf(err, "sqlite: save boundary %s", f.Name)
		}
		n++
	}
	return n, nil
}

// Boundaries returns the stored features ordered by name, geometry decoded.
func (s *SQLiteStore) Boundaries(ctx context.Context) ([]boundary.Feature, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, properties, geometry FROM boundaries ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list boundaries")
	}
	defer func() { _ = rows.Close() }()

	var out []boundary.Feature
	for rows.Next() {
		var f boundary.Feature
		var props string
		var wkb []byte
		if err := rows.Scan(&f.Name, &props, &wkb); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan boundary")
		}
		if err := json.Unmarshal([]byte(props), &f.Properties); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal boundary properties")
		}
		if f.Geometry, err = boundary.DecodeWKB(wkb); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list boundaries iterate")
}

// helpers

func encodeFeature(f boundary.Feature) ([]byte, []byte, error) {
	props, err := json.Marshal(f.Properties)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "store: marshal properties of %s", f.Name)
	}
	wkb, err := boundary.EncodeWKB(f.Geometry)
	if err != nil {
		return nil, nil, err
	}
	return props, wkb, nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}

func errUnknownDriver(driver string) error {
	return eris.Errorf("store: unknown driver %q (use sqlite or postgres)", driver)
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var yearsJSON string
	var summaryJSON, errMsg sql.NullString

	err := row.Scan(&r.ID, &yearsJSON, &r.Status, &summaryJSON, &errMsg, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(yearsJSON), &r.Years); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal years")
	}
	if summaryJSON.Valid {
		r.Summary = &model.RunResult{}
		if err := json.Unmarshal([]byte(summaryJSON.String), r.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
	}
	r.Error = errMsg.String
	return &r, nil
}
