package capture

import (
	"context"

	"github.com/Mirraz/http-replay-sub000/internal/graph"
	"github.com/Mirraz/http-replay-sub000/internal/secinfo"
)

func securityLiteral(rec *secinfo.TransportSecurityInfo) *graph.Literal {
	cols := graph.Columns{
		"security_state":      graph.Int(int64(rec.SecurityState)),
		"sub_requests_broken": graph.Int(int64(rec.SubRequestsBroken)),
		"sub_requests_none":   graph.Int(int64(rec.SubRequestsNone)),
		"error_code":          graph.Int(int64(rec.ErrorCode)),
		"error_message":       graph.Text(rec.ErrorMessage),
		"tls_status_id":       graph.Null(),
		"failed_chain_id":     graph.Null(),
	}
	if rec.TLSStatus != nil {
		cols["tls_status_id"] = tlsStatusLiteral(rec.TLSStatus)
	}
	if rec.FailedChain != nil {
		items := make([]*graph.Literal, len(rec.FailedChain.Entries))
		for i := range rec.FailedChain.Entries {
			items[i] = certEntryLiteral(&rec.FailedChain.Entries[i])
		}
		cols["failed_chain_id"] = graph.OrderedList(certList, SideFailedChain, items)
	}
	return graph.NewLiteral("security_infos", cols)
}

func tlsStatusLiteral(s *secinfo.TLSStatus) *graph.Literal {
	cert := certEntryLiteral(&s.ServerCert)
	return graph.NewLiteral("tls_statuses", graph.Columns{
		"server_cert_id": graph.Deferred(func(ctx context.Context, sub *graph.SubExecutor) (graph.Ref, error) {
			ref, err := sub.Execute(ctx, cert)
			if err != nil {
				return graph.NullRef, err
			}
			sub.AddSideResult(SideServerCert, graph.Resolved(ref.ID))
			return ref, nil
		}),
		"cipher_suite":         graph.Int(int64(s.CipherSuite)),
		"protocol_version":     graph.Int(int64(s.ProtocolVersion)),
		"domain_mismatch":      graph.Bool(s.DomainMismatch),
		"not_valid_now":        graph.Bool(s.NotValidNow),
		"untrusted":            graph.Bool(s.Untrusted),
		"ev":                   graph.Bool(s.EV),
		"has_ev_status":        graph.Bool(s.HasEVStatus),
		"have_cipher_info":     graph.Bool(s.HaveCipherInfo),
		"have_cert_error_bits": graph.Bool(s.HaveCertErrorBits),
	})
}

func certEntryLiteral(c *secinfo.CertEntry) *graph.Literal {
	return graph.NewLiteral("cert_entries", graph.Columns{
		"cached_ev_status": graph.Int(int64(c.CachedEVStatus)),
		"certificate_id":   enumLiteral("certificates", graph.Blob(c.CertBytes)),
	})
}

var securityShape = graph.JoinSpec{
	Refs: map[string]graph.Join{
		"tls_status_id": {
			Table: "tls_statuses",
			Shape: graph.JoinSpec{Refs: map[string]graph.Join{
				"server_cert_id": certEntryJoin,
			}},
		},
		"failed_chain_id": {
			Table: "cert_lists",
			Shape: graph.JoinSpec{Lists: map[string]graph.ListJoin{
				"entries": certList.Join(certEntryJoin),
			}},
		},
	},
}

var certEntryJoin = graph.Join{
	Table: "cert_entries",
	Shape: graph.JoinSpec{Refs: map[string]graph.Join{
		"certificate_id": {Table: "certificates"},
	}},
}

func securityFromRow(row *graph.Row) *secinfo.TransportSecurityInfo {
	rec := &secinfo.TransportSecurityInfo{
		SecurityState:     uint32(row.Int("security_state")),
		SubRequestsBroken: uint32(row.Int("sub_requests_broken")),
		SubRequestsNone:   uint32(row.Int("sub_requests_none")),
		ErrorCode:         uint32(row.Int("error_code")),
		ErrorMessage:      row.Text("error_message"),
	}
	if tls := row.Ref("tls_status_id"); tls != nil {
		rec.TLSStatus = &secinfo.TLSStatus{
			ServerCert:        certEntryFromRow(tls.Ref("server_cert_id")),
			CipherSuite:       uint16(tls.Int("cipher_suite")),
			ProtocolVersion:   uint16(tls.Int("protocol_version")),
			DomainMismatch:    tls.Bool("domain_mismatch"),
			NotValidNow:       tls.Bool("not_valid_now"),
			Untrusted:         tls.Bool("untrusted"),
			EV:                tls.Bool("ev"),
			HasEVStatus:       tls.Bool("has_ev_status"),
			HaveCipherInfo:    tls.Bool("have_cipher_info"),
			HaveCertErrorBits: tls.Bool("have_cert_error_bits"),
		}
	}
	if chain := row.Ref("failed_chain_id"); chain != nil {
		entries := chain.List("entries")
		rec.FailedChain = &secinfo.CertList{Entries: make([]secinfo.CertEntry, len(entries))}
		for i, e := range entries {
			rec.FailedChain.Entries[i] = certEntryFromRow(e)
		}
	}
	return rec
}

func certEntryFromRow(row *graph.Row) secinfo.CertEntry {
	if row == nil {
		return secinfo.CertEntry{}
	}
	entry := secinfo.CertEntry{CachedEVStatus: uint32(row.Int("cached_ev_status"))}
	if cert := row.Ref("certificate_id"); cert != nil {
		entry.CertBytes = cert.Blob("value")
	}
	return entry
}
