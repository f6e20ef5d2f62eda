package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Mirraz/http-replay-sub000/internal/graph"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Session string
}

// ListEntry is one exchange in list output.
type ListEntry struct {
	ID           int64  `json:"id"`
	Session      string `json:"session"`
	Interrupted  bool   `json:"interrupted"` // the session was interrupted
	Method       string `json:"method"`
	URL          string `json:"url"`
	Status       int    `json:"status,omitempty"`
	BodySize     int    `json:"body_size"`
	Cached       bool   `json:"cached"`
	SecurityInfo string `json:"security_info"` // "decoded", "raw" or "none"
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored exchanges",
		Long: `List the exchanges of one capture session, or of the whole database,
in recording order.

Examples:
  httpreplay list --db ./capture.db
  httpreplay list --db ./capture.db --session 0190a7c2-8f3e-7b6a-9c1d-2e4f6a8b0c1d`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "only list exchanges of this session UUID")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	if opts.Session != "" {
		u, err := uuid.Parse(opts.Session)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --session", err)
		}
		opts.Session = u.String()
	}

	ws, err := openWorkspace(opts.RootOptions, false)
	if err != nil {
		return err
	}
	defer ws.Close()

	ctx := cmd.Context()
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	ids, err := ws.replayer.List(ctx, opts.Session)
	if errors.Is(err, graph.ErrNotFound) {
		if out.JSON() {
			_ = out.Error(ErrCodeNotFound, fmt.Sprintf("session %s not found", opts.Session), nil)
		}
		return WrapExitError(ExitCommandError, "session not found", err)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list exchanges", err)
	}

	entries := make([]ListEntry, 0, len(ids))
	for _, id := range ids {
		ex, err := ws.replayer.Load(ctx, id)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("failed to load exchange %d", id), err)
		}
		e := ListEntry{
			ID:           ex.ID,
			Session:      ex.Session,
			Interrupted:  ex.SessionInterrupted,
			Method:       ex.Request.Method,
			URL:          ex.Request.URL,
			Cached:       ex.Cache != nil,
			SecurityInfo: "none",
		}
		if ex.Response != nil {
			e.Status = ex.Response.StatusCode
			e.BodySize = len(ex.Response.Body)
		}
		switch {
		case ex.SecurityInfo != nil:
			e.SecurityInfo = "decoded"
		case ex.SecurityInfoRaw != nil:
			e.SecurityInfo = "raw"
		}
		entries = append(entries, e)
	}

	if out.JSON() {
		return out.Success(entries)
	}
	if len(entries) == 0 {
		return out.Success("No exchanges found.")
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		status := "-"
		switch {
		case e.Status != 0:
			status = strconv.Itoa(e.Status)
		case e.Interrupted:
			status = "interrupted"
		}
		rows[i] = []string{
			strconv.FormatInt(e.ID, 10),
			e.Method,
			e.URL,
			status,
			humanize.IBytes(uint64(e.BodySize)),
			strconv.FormatBool(e.Cached),
			e.SecurityInfo,
		}
	}
	return out.Table([]string{"ID", "Method", "URL", "Status", "Body", "Cached", "Security"}, rows)
}
