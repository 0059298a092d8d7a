package db

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
)

// ReplaceConfig describes a delete-then-copy replacement of a slice of a
// table.
type ReplaceConfig struct {
	Table     string   // target table, optionally schema-qualified
	Columns   []string // columns written by COPY
	KeyColumn string   // column matched against Keys for deletion
	Keys      any      // slice of key values, bound as = ANY($1)
}

// ReplaceResult reports the rows removed and written by Replace.
type ReplaceResult struct {
	Deleted  int64 `json:"deleted"`
	Inserted int64 `json:"inserted"`
}

// Replace deletes the rows whose KeyColumn is in Keys and copies rows in
// their place, in one transaction.
func Replace(ctx context.Context, pool Pool, cfg ReplaceConfig, rows [][]any) (res ReplaceResult, err error) {
	if len(cfg.Columns) == 0 {
		return res, eris.New("db: replace: no columns specified")
	}
	if cfg.KeyColumn == "" {
		return res, eris.New("db: replace: no key column specified")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return res, eris.Wrap(err, "db: replace: begin tx")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	deleteSQL := fmt.Sprintf(
		"DELETE FROM %s WHERE %s = ANY($1)",
		Identifier(cfg.Table).Sanitize(),
		quoteAndJoin([]string{cfg.KeyColumn}),
	)
	tag, err := tx.Exec(ctx, deleteSQL, cfg.Keys)
	if err != nil {
		return res, eris.Wrapf(err, "db: replace: delete from %s", cfg.Table)
	}
	res.Deleted = tag.RowsAffected()

	res.Inserted, err = CopyFrom(ctx, tx, cfg.Table, cfg.Columns, rows)
	if err != nil {
		return res, err
	}

	if err = tx.Commit(ctx); err != nil {
		return res, eris.Wrap(err, "db: replace: commit tx")
	}
	return res, nil
}
