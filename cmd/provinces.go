package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/boundary"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/clean"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/geomerge"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/province"
)

var (
	provincesJSON      bool
	provincesCoverage  bool
	provincesDumpTable bool
)

var provincesCmd = &cobra.Command{
	Use:   "provinces [name...]",
	Short: "Classify province names against the mapping table",
	Long: "Classifies the given names, or every name of the clean table when none are given, " +
		"as mapped, pending or unexpected. Exits non-zero when an unexpected name is found.",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := initPipeline("pipeline", nil)
		if err != nil {
			return err
		}
		mapper := p.Mapper()
		out := cmd.OutOrStdout()

		if provincesDumpTable {
			data, err := province.MarshalTable(mapper.Table())
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		}

		var names []string
		var coverage *geomerge.Coverage
		if len(args) > 0 {
			for _, a := range args {
				names = append(names, clean.Canonicalize(a))
			}
		} else {
			res, err := p.Clean()
			if err != nil {
				return eris.Wrap(err, "provinces")
			}
			for _, r := range res.Records {
				names = append(names, r.Province)
			}
			if provincesCoverage {
				feats, err := p.Boundaries()
				if err != nil {
					return eris.Wrap(err, "provinces: load boundaries")
				}
				cov := geomerge.ComputeCoverage(res.Records, feats, mapper)
				coverage = &cov
			}
		}

		classes := mapper.ClassifyAll(names)
		if provincesJSON {
			if err := printJSON(out, map[string]any{
				"provinces": classes,
				"coverage":  coverage,
			}); err != nil {
				return err
			}
		} else {
			formatClassifications(out, classes)
			if coverage != nil {
				formatCoverage(out, coverage)
			}
		}

		var unexpected, spellings []string
		for _, c := range classes {
			if c.Status == province.StatusUnexpected {
				unexpected = append(unexpected, c.Name)
				spellings = append(spellings, boundary.StandardName(c.Name))
			}
		}
		if len(unexpected) > 0 {
			zap.L().Warn("unexpected province names",
				zap.Strings("names", unexpected),
				zap.Strings("boundary_spellings", spellings),
			)
			return eris.Errorf("provinces: %d unexpected names: %s", len(unexpected), strings.Join(unexpected, ", "))
		}
		return nil
	},
}

func init() {
	provincesCmd.Flags().BoolVar(&provincesJSON, "json", false, "print JSON instead of a table")
	provincesCmd.Flags().BoolVar(&provincesCoverage, "coverage", false, "compare against the boundary dataset")
	provincesCmd.Flags().BoolVar(&provincesDumpTable, "dump-table", false, "print the active mapping table as YAML and exit")
	rootCmd.AddCommand(provincesCmd)
}

// formatClassifications writes a tabular list of classifications to out.
func formatClassifications(out io.Writer, classes []province.Classification) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PROVINCE\tSTATUS\tBOUNDARY\tREGION")
	_, _ = fmt.Fprintln(w, "--------\t------\t--------\t------")
	for _, c := range classes {
		geo := c.Boundary
		if geo == "" {
			geo = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Name, c.Status, geo, c.Region)
	}
	_ = w.Flush()
}

// formatCoverage writes the coverage counts and gaps to out.
func formatCoverage(out io.Writer, c *geomerge.Coverage) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "CSV provinces:\t%d\n", c.Provinces)
	_, _ = fmt.Fprintf(w, "Boundary provinces:\t%d\n", c.Features)
	_, _ = fmt.Fprintf(w, "Mapped:\t%d\n", c.Mapped)
	_, _ = fmt.Fprintf(w, "Pending:\t%s\n", listOrDash(c.Pending))
	_, _ = fmt.Fprintf(w, "Unmapped:\t%s\n", listOrDash(c.Unmapped))
	_, _ = fmt.Fprintf(w, "Boundary without data:\t%s\n", listOrDash(c.UnmatchedFeatures))
	_, _ = fmt.Fprintf(w, "Mapped but absent:\t%s\n", listOrDash(c.MissingFeatures))
	_ = w.Flush()
}

func listOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
