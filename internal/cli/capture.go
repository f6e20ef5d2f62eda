package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Mirraz/http-replay-sub000/internal/capture"
)

// CaptureOptions holds flags for the capture command.
type CaptureOptions struct {
	*RootOptions
	Label string
}

// CapturedExchange is one recorded exchange in capture output.
type CapturedExchange struct {
	File       string `json:"file"`
	Index      int    `json:"index"`
	ExchangeID int64  `json:"exchange_id"`
	Method     string `json:"method"`
	URL        string `json:"url"`
	Status     int    `json:"status,omitempty"`
}

// CaptureResult is the JSON payload of the capture command.
type CaptureResult struct {
	Session   string             `json:"session"`
	Label     string             `json:"label"`
	Exchanges []CapturedExchange `json:"exchanges"`
}

// NewCaptureCommand creates the capture command.
func NewCaptureCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CaptureOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "capture <fixture>...",
		Short: "Record exchanges from fixture files",
		Long: `Record the exchanges of one or more YAML or JSON fixture files into
a new capture session.

Interrupting the command (Ctrl-C) stops the session; exchanges already
recorded are kept.

Examples:
  httpreplay capture --db ./capture.db site.yaml
  httpreplay capture --db ./capture.db --label nightly a.yaml b.json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Label, "label", "", "session label (defaults to the first fixture file name)")

	return cmd
}

func runCapture(opts *CaptureOptions, files []string, cmd *cobra.Command) error {
	// Load every fixture before touching the database.
	loaded := make([][]*capture.Exchange, len(files))
	for i, f := range files {
		exchanges, err := capture.LoadFixtures(f)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load fixtures", err)
		}
		loaded[i] = exchanges
	}

	ws, err := openWorkspace(opts.RootOptions, false)
	if err != nil {
		return err
	}
	defer ws.Close()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	label := opts.Label
	if label == "" {
		label = files[0]
	}
	session, err := ws.recorder.StartSession(ctx, label)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start session", err)
	}
	go func() {
		<-ctx.Done()
		session.Interrupt()
	}()

	result := CaptureResult{Session: session.UUID.String(), Label: label, Exchanges: []CapturedExchange{}}
	for i, exchanges := range loaded {
		for j, ex := range exchanges {
			rec, err := ws.recorder.Record(ctx, session, ex)
			if err != nil {
				if ctx.Err() != nil {
					if err := ws.recorder.Interrupt(context.WithoutCancel(ctx), session); err != nil {
						slog.Error("failed to mark session interrupted", "session", session.UUID, "error", err)
					}
					slog.Warn("capture interrupted", "session", session.UUID, "recorded", len(result.Exchanges))
					return WrapExitError(ExitFailure, "capture interrupted", ctx.Err())
				}
				return WrapExitError(ExitFailure, fmt.Sprintf("failed to record %s exchange %d", files[i], j), err)
			}
			c := CapturedExchange{
				File:       files[i],
				Index:      j,
				ExchangeID: rec.ExchangeID,
				Method:     ex.Request.Method,
				URL:        ex.Request.URL,
			}
			if ex.Response != nil {
				c.Status = ex.Response.StatusCode
			}
			result.Exchanges = append(result.Exchanges, c)
		}
	}
	slog.Info("capture complete", "session", session.UUID, "exchanges", len(result.Exchanges))

	out := newFormatter(opts.RootOptions, cmd.OutOrStdout())
	if out.JSON() {
		return out.Success(result)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Session %s (%s)\n", result.Session, label)
	rows := make([][]string, len(result.Exchanges))
	for i, c := range result.Exchanges {
		status := "-"
		if c.Status != 0 {
			status = strconv.Itoa(c.Status)
		}
		rows[i] = []string{strconv.FormatInt(c.ExchangeID, 10), c.Method, c.URL, status}
	}
	return out.Table([]string{"ID", "Method", "URL", "Status"}, rows)
}
