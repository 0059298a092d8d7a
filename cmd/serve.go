package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/api"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/boundary"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/export"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/pipeline"
)

var (
	servePort int
	serveFrom string
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the clean tables and merged layers to the dashboard",
	Long: "Builds the dataset once, either by running the pipeline in memory or from a clean CSV " +
		"given with --from, then serves it read-only over HTTP.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, err := initPipeline("serve", nil)
		if err != nil {
			return err
		}

		ds, err := buildDataset(ctx, p, serveFrom)
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           api.NewRouter(ds, cfg.Server.CORSOrigins),
			ReadHeaderTimeout: 5 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.Int("records", len(ds.Records)),
			zap.Ints("merged_years", ds.MergedYears()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildDataset runs the pipeline without writing artifacts, or reads the
// clean table at from when set.
func buildDataset(ctx context.Context, p *pipeline.Pipeline, from string) (*api.Dataset, error) {
	if from == "" {
		p.WriteArtifacts = false
		res, err := p.Run(ctx)
		if err != nil {
			return nil, err
		}
		return api.FromResult(res, p.Mapper()), nil
	}

	records, err := export.ReadRecordsCSV(from)
	if err != nil {
		return nil, err
	}

	var feats []boundary.Feature
	if path := cfg.Paths.BoundaryFile; path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			feats, err = p.Boundaries()
			if err != nil {
				return nil, err
			}
		} else {
			zap.L().Warn("boundary file not found, serving without merged layers", zap.String("path", path))
		}
	}
	return api.NewDataset(records, feats, p.Mapper(), pipeline.FeatureOptions(cfg, p.Mapper())), nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveFrom, "from", "", "serve an existing clean CSV instead of running the pipeline")
	rootCmd.AddCommand(serveCmd)
}
