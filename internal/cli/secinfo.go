package cli

import (
	"bytes"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Mirraz/http-replay-sub000/internal/secinfo"
)

// SecinfoOptions holds flags for the secinfo command.
type SecinfoOptions struct {
	*RootOptions
	Raw bool // @file holds the object stream, not the base64 envelope
}

// SecinfoResult is the JSON payload of the secinfo command.
type SecinfoResult struct {
	Size      int                            `json:"size"`
	RoundTrip bool                           `json:"round_trip"`
	Record    *secinfo.TransportSecurityInfo `json:"record"`
	Subjects  []string                       `json:"subjects,omitempty"`
}

// NewSecinfoCommand creates the secinfo command.
func NewSecinfoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SecinfoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "secinfo <base64|@file>",
		Short: "Decode serialized security info",
		Long: `Decode a serialized transport security info record and check that it
re-encodes to the same bytes.

The argument is the base64 envelope, or @path to read it from a file.
With --raw the file holds the binary object stream itself.

Exit codes:
  0 - Record decodes and round trips
  1 - Record does not decode, or re-encodes differently
  2 - Command error (unreadable file, etc.)

Examples:
  httpreplay secinfo FnhllAKWRHGAlo+ESXykKAAAAAAAAAAAwAAAAAAAAEaphjojJrhKnIPx...
  httpreplay secinfo @security-info.txt
  httpreplay secinfo --raw @security-info.bin --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSecinfo(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "@file holds the binary object stream")

	return cmd
}

// readSecinfoArg returns the object stream named by arg.
func readSecinfoArg(arg string, raw bool) ([]byte, error) {
	text := arg
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read security info file", err)
		}
		if raw {
			return data, nil
		}
		text = string(data)
	} else if raw {
		return nil, NewExitError(ExitCommandError, "--raw needs an @file argument")
	}
	return secinfo.UnwrapEnvelope(text)
}

func runSecinfo(opts *SecinfoOptions, arg string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	b, err := readSecinfoArg(arg, opts.Raw)
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	var rec *secinfo.TransportSecurityInfo
	if err == nil {
		rec, err = secinfo.Decode(b)
	}
	if err != nil {
		var de *secinfo.DecodeError
		if errors.As(err, &de) {
			if out.JSON() {
				_ = out.Error(ErrCodeDecode, de.Error(), map[string]any{
					"code":   string(de.Code),
					"node":   de.Node,
					"offset": de.Offset,
				})
			} else {
				_ = out.Error(ErrCodeDecode, de.Error(), nil)
			}
		}
		return WrapExitError(ExitFailure, "security info does not decode", err)
	}

	encoded, err := secinfo.Encode(rec)
	if err != nil {
		return WrapExitError(ExitFailure, "security info does not re-encode", err)
	}
	result := SecinfoResult{
		Size:      len(b),
		RoundTrip: bytes.Equal(encoded, b),
		Record:    rec,
		Subjects:  certSubjects(rec),
	}

	if out.JSON() {
		if err := out.Success(result); err != nil {
			return err
		}
	} else if err := printSecinfo(out, result); err != nil {
		return err
	}
	if !result.RoundTrip {
		return NewExitError(ExitFailure, fmt.Sprintf("re-encoded record differs (%d bytes, was %d)", len(encoded), len(b)))
	}
	return nil
}

// certSubjects lists the subjects of the server certificate and the failed
// chain. Certificates that do not parse are shown as such.
func certSubjects(rec *secinfo.TransportSecurityInfo) []string {
	var m secinfo.X509Mapper
	var subjects []string
	if rec.TLSStatus != nil {
		subjects = append(subjects, "server: "+subjectOf(m, rec.TLSStatus.ServerCert.CertBytes))
	}
	if rec.FailedChain != nil {
		certs, err := secinfo.MapChain[*x509.Certificate](m, rec.FailedChain)
		if err != nil {
			for i, e := range rec.FailedChain.Entries {
				subjects = append(subjects, fmt.Sprintf("chain[%d]: %s", i, subjectOf(m, e.CertBytes)))
			}
			return subjects
		}
		for i, c := range certs {
			subjects = append(subjects, fmt.Sprintf("chain[%d]: %s", i, c.Subject))
		}
	}
	return subjects
}

func subjectOf(m secinfo.X509Mapper, der []byte) string {
	c, err := m.FromBytes(der)
	if err != nil {
		return fmt.Sprintf("unparsable certificate (%s)", humanize.IBytes(uint64(len(der))))
	}
	return c.Subject.String()
}

func printSecinfo(out *OutputFormatter, r SecinfoResult) error {
	rec := r.Record
	rows := [][]string{
		{"Size", humanize.IBytes(uint64(r.Size))},
		{"Round trip", strconv.FormatBool(r.RoundTrip)},
		{"Security state", fmt.Sprintf("0x%08x", rec.SecurityState)},
		{"Sub-requests broken", strconv.FormatUint(uint64(rec.SubRequestsBroken), 10)},
		{"Sub-requests none", strconv.FormatUint(uint64(rec.SubRequestsNone), 10)},
		{"Error code", fmt.Sprintf("0x%08x", rec.ErrorCode)},
		{"Error message", rec.ErrorMessage},
	}
	if s := rec.TLSStatus; s != nil {
		rows = append(rows,
			[]string{"Protocol version", fmt.Sprintf("0x%04x", s.ProtocolVersion)},
			[]string{"Cipher suite", fmt.Sprintf("0x%04x", s.CipherSuite)},
			[]string{"Domain mismatch", strconv.FormatBool(s.DomainMismatch)},
			[]string{"Not valid now", strconv.FormatBool(s.NotValidNow)},
			[]string{"Untrusted", strconv.FormatBool(s.Untrusted)},
			[]string{"EV", strconv.FormatBool(s.EV)},
		)
	}
	for _, s := range r.Subjects {
		rows = append(rows, []string{"Certificate", s})
	}
	return out.Table([]string{"Field", "Value"}, rows)
}
