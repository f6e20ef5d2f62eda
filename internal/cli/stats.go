package cli

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Mirraz/http-replay-sub000/internal/store"
)

// StatsResult is the JSON payload of the stats command.
type StatsResult struct {
	Tables []store.TableCount `json:"tables"`
	Total  int64              `json:"total"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show row counts per table",
		Long: `Show the number of rows in every table of the capture database.

Enumeration tables (urls, header_names, certificates, ...) hold one row per
distinct value, so comparing them with the exchanges count shows how much
the capture deduplicated.

Examples:
  httpreplay stats --db ./capture.db
  httpreplay stats --db ./capture.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, cmd)
		},
	}
	return cmd
}

func runStats(opts *RootOptions, cmd *cobra.Command) error {
	ws, err := openWorkspace(opts, false)
	if err != nil {
		return err
	}
	defer ws.Close()

	counts, err := ws.store.Counts(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to count rows", err)
	}
	result := StatsResult{Tables: counts}
	for _, c := range counts {
		result.Total += c.Rows
	}

	out := newFormatter(opts, cmd.OutOrStdout())
	if out.JSON() {
		return out.Success(result)
	}
	rows := make([][]string, 0, len(counts)+1)
	for _, c := range counts {
		rows = append(rows, []string{c.Table, humanize.Comma(c.Rows)})
	}
	rows = append(rows, []string{"total", humanize.Comma(result.Total)})
	return out.Table([]string{"Table", "Rows"}, rows)
}
