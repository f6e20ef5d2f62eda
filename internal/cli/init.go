package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// InitResult is the JSON payload of the init command.
type InitResult struct {
	Database string   `json:"database"`
	Tables   []string `json:"tables"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the capture database",
		Long: `Create the capture database, or migrate an existing one to the
current schema.

Examples:
  httpreplay init --db ./capture.db
  httpreplay init --db ./capture.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd)
		},
	}
	return cmd
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
	ws, err := openWorkspace(opts, true)
	if err != nil {
		return err
	}
	defer ws.Close()

	tables, err := ws.store.Tables(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list tables", err)
	}

	// Every preset table must exist in the database.
	present := make(map[string]bool, len(tables))
	for _, t := range tables {
		present[t] = true
	}
	for _, t := range ws.engine.Presets().Tables() {
		if !present[t] {
			return NewExitError(ExitCommandError, fmt.Sprintf("preset table %q is not in the database schema", t))
		}
	}
	slog.Info("database ready", "path", opts.Database, "tables", len(tables))

	out := newFormatter(opts, cmd.OutOrStdout())
	if out.JSON() {
		return out.Success(InitResult{Database: opts.Database, Tables: tables})
	}
	return out.Success(fmt.Sprintf("Initialized %s (%d tables)", opts.Database, len(tables)))
}
