package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runNoArtifacts bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every stage and record the run in the configured store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("pipeline"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		p, err := initPipeline("pipeline", st)
		if err != nil {
			return err
		}
		p.WriteArtifacts = !runNoArtifacts

		res, err := p.Run(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("run complete",
			zap.String("run_id", res.RunID),
			zap.Int("records", len(res.Records)),
			zap.Int("artifacts", len(res.Artifacts)),
		)
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runNoArtifacts, "no-artifacts", false, "skip writing the interim and processed files")
	rootCmd.AddCommand(runCmd)
}
