package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/pipeline"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/province"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/store"
)

const defaultSQLitePath = "electricity.db"

// initStore opens and migrates the configured run store. It returns a nil
// Store when no driver is configured.
func initStore(ctx context.Context) (store.Store, error) {
	dsn := cfg.Store.DatabaseURL
	if cfg.Store.Driver == "sqlite" && dsn == "" {
		dsn = defaultSQLitePath
	}
	st, err := store.Open(ctx, cfg.Store.Driver, dsn)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, nil
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initPipeline validates the configuration and builds a pipeline over st,
// which may be nil.
func initPipeline(mode string, st store.Store) (*pipeline.Pipeline, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	mapper, err := province.Load(cfg.Province.TableFile)
	if err != nil {
		return nil, eris.Wrap(err, "load province table")
	}
	return pipeline.New(cfg, mapper, st), nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
