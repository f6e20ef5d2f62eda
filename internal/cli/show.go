package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Mirraz/http-replay-sub000/internal/capture"
	"github.com/Mirraz/http-replay-sub000/internal/graph"
)

// ShowResult is the JSON payload of the show command.
type ShowResult struct {
	Exchange *capture.Exchange `json:"exchange"`
	Digest   string            `json:"digest"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <exchange-id>",
		Short: "Show a stored exchange",
		Long: `Load one exchange from the capture database and print it.

Text output summarizes the exchange and lists its headers in their
original order. JSON output carries the full exchange, with bodies and
certificates base64 encoded, plus its replay digest.

Examples:
  httpreplay show --db ./capture.db 42
  httpreplay show --db ./capture.db 42 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func parseExchangeID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid exchange id %q", s))
	}
	return id, nil
}

func runShow(opts *RootOptions, arg string, cmd *cobra.Command) error {
	id, err := parseExchangeID(arg)
	if err != nil {
		return err
	}
	ws, err := openWorkspace(opts, false)
	if err != nil {
		return err
	}
	defer ws.Close()

	ctx := cmd.Context()
	out := newFormatter(opts, cmd.OutOrStdout())

	ex, err := ws.replayer.Load(ctx, id)
	if errors.Is(err, graph.ErrNotFound) {
		if out.JSON() {
			_ = out.Error(ErrCodeNotFound, fmt.Sprintf("exchange %d not found", id), nil)
		}
		return WrapExitError(ExitCommandError, fmt.Sprintf("exchange %d not found", id), err)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load exchange", err)
	}
	digest, err := capture.ExchangeDigest(ex)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to digest exchange", err)
	}

	if out.JSON() {
		return out.Success(ShowResult{Exchange: ex, Digest: digest})
	}
	return printExchange(out, ex, digest)
}

func printExchange(out *OutputFormatter, ex *capture.Exchange, digest string) error {
	rows := [][]string{
		{"Exchange", strconv.FormatInt(ex.ID, 10)},
		{"Session", sessionSummary(ex)},
		{"Request", ex.Request.Method + " " + ex.Request.URL},
		{"Request body", sizeOf(ex.Request.Body)},
	}
	if r := ex.Response; r != nil {
		rows = append(rows,
			[]string{"Status", fmt.Sprintf("%s %d %s", r.HTTPVersion, r.StatusCode, r.StatusText)},
			[]string{"Content type", contentType(r)},
			[]string{"Response body", sizeOf(r.Body)},
		)
	} else {
		rows = append(rows, []string{"Status", "no response"})
	}
	if c := ex.Cache; c != nil {
		rows = append(rows,
			[]string{"Cache key", c.Key},
			[]string{"Cache size", humanize.IBytes(uint64(max(c.StorageSize, 0)))},
			[]string{"Fetched", fmt.Sprintf("%d times, last %s", c.FetchCount, unixTime(c.LastFetched))},
			[]string{"Expires", unixTime(c.ExpirationTime)},
		)
	}
	rows = append(rows, []string{"Security", securitySummary(ex)}, []string{"Digest", digest})
	if err := out.Table([]string{"Field", "Value"}, rows); err != nil {
		return err
	}

	if err := printHeaders(out, "Request", ex.Request.Headers); err != nil {
		return err
	}
	if ex.Response != nil {
		return printHeaders(out, "Response", ex.Response.Headers)
	}
	return nil
}

func printHeaders(out *OutputFormatter, part string, headers []capture.Header) error {
	if len(headers) == 0 {
		return nil
	}
	fmt.Fprintf(out.Writer, "\n%s headers\n", part)
	rows := make([][]string, len(headers))
	for i, h := range headers {
		rows[i] = []string{h.Name, h.Value}
	}
	return out.Table([]string{"Name", "Value"}, rows)
}

func sizeOf(b []byte) string {
	if b == nil {
		return "none"
	}
	return humanize.IBytes(uint64(len(b)))
}

func contentType(r *capture.Response) string {
	switch {
	case r.ContentType == "":
		return "-"
	case r.Charset == "":
		return r.ContentType
	default:
		return r.ContentType + "; charset=" + r.Charset
	}
}

func unixTime(sec int64) string {
	if sec <= 0 {
		return "never"
	}
	return humanize.Time(time.Unix(sec, 0))
}

func sessionSummary(ex *capture.Exchange) string {
	if ex.SessionInterrupted {
		return ex.Session + " (interrupted)"
	}
	return ex.Session
}

func securitySummary(ex *capture.Exchange) string {
	switch {
	case ex.SecurityInfo != nil:
		s := ex.SecurityInfo
		summary := fmt.Sprintf("state 0x%x", s.SecurityState)
		if s.TLSStatus != nil {
			summary += fmt.Sprintf(", TLS 0x%04x cipher 0x%04x", s.TLSStatus.ProtocolVersion, s.TLSStatus.CipherSuite)
		}
		if s.FailedChain != nil {
			summary += fmt.Sprintf(", failed chain of %d", len(s.FailedChain.Entries))
		}
		return summary
	case ex.SecurityInfoRaw != nil:
		return fmt.Sprintf("undecoded (%s)", humanize.IBytes(uint64(len(ex.SecurityInfoRaw))))
	default:
		return "none"
	}
}
