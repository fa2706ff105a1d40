// Command analyticsctl runs campaign analytics over a fixture file without a
// database or server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/stanley00316/election-system-demo-sub004/internal/analysis"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	fixture string
	now     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "analyticsctl",
		Short:        "Offline campaign analytics over a YAML or JSON fixture",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.fixture, "fixture", "f", "", "campaign fixture file (YAML or JSON)")
	root.PersistentFlags().StringVar(&opts.now, "now", "", "evaluation time as RFC3339 (default: current time)")
	_ = root.MarkPersistentFlagRequired("fixture")

	root.AddCommand(
		newReportCmd(opts),
		newInfluenceCmd(opts),
		newTopCmd(opts),
	)
	return root
}

func (o *rootOptions) clock() (time.Time, error) {
	if o.now == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, o.now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now: %w", err)
	}
	return t.UTC(), nil
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build the full analytics report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := loadFixture(opts.fixture)
			if err != nil {
				return err
			}
			cfg, err := f.config()
			if err != nil {
				return err
			}
			now, err := opts.clock()
			if err != nil {
				return err
			}
			p, err := analysis.ParsePeriod(period, now)
			if err != nil {
				return err
			}

			input := f.ReportInput
			input.Period = p
			report, err := analysis.BuildReport(input, cfg, now)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVarP(&period, "period", "p", "30d", "reporting window: 7d, 30d, 90d, all or YYYY-MM-DD..YYYY-MM-DD")
	return cmd
}

func newInfluenceCmd(opts *rootOptions) *cobra.Command {
	var voterID string

	cmd := &cobra.Command{
		Use:   "influence",
		Short: "Propagate influence from one voter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := loadFixture(opts.fixture)
			if err != nil {
				return err
			}
			cfg, err := f.config()
			if err != nil {
				return err
			}
			g, warnings := f.graph(cfg)
			printWarnings(cmd.ErrOrStderr(), warnings)
			printGraphSummary(cmd.ErrOrStderr(), g)

			result, err := analysis.ComputeInfluence(g, voterID, cfg)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&voterID, "voter", "", "voter id to start from")
	_ = cmd.MarkFlagRequired("voter")
	return cmd
}

func newTopCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Rank voters by total influence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be at least 1, got %d", limit)
			}
			f, err := loadFixture(opts.fixture)
			if err != nil {
				return err
			}
			cfg, err := f.config()
			if err != nil {
				return err
			}
			g, warnings := f.graph(cfg)
			printWarnings(cmd.ErrOrStderr(), warnings)
			printGraphSummary(cmd.ErrOrStderr(), g)

			ranked, err := analysis.TopInfluencers(g, limit, cfg)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ranked)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of voters to list")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printGraphSummary(w io.Writer, g *analysis.Graph) {
	fmt.Fprintf(w, "graph: %d voters, %d edges\n", g.NodeCount(), g.EdgeCount())
}

func printWarnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
}
