package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/store"
)

var publishNoArtifacts bool

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Run the pipeline and publish the clean table to Postgres",
	Long: "Runs every stage against the Postgres store at store.database_url. The clean rows of the " +
		"covered years are replaced in one transaction, as are the boundaries by name.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("publish"); err != nil {
			return err
		}

		pg, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
		if err != nil {
			return err
		}
		defer pg.Close() //nolint:errcheck

		if err := pg.Migrate(ctx); err != nil {
			return eris.Wrap(err, "publish: migrate")
		}

		p, err := initPipeline("publish", pg)
		if err != nil {
			return err
		}
		p.WriteArtifacts = !publishNoArtifacts

		res, err := p.Run(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("publish complete",
			zap.String("run_id", res.RunID),
			zap.Int("records", len(res.Records)),
			zap.Int("boundaries", len(res.Boundaries)),
		)
		return printJSON(cmd.OutOrStdout(), res.Summary)
	},
}

func init() {
	publishCmd.Flags().BoolVar(&publishNoArtifacts, "no-artifacts", false, "skip writing the interim and processed files")
	rootCmd.AddCommand(publishCmd)
}
