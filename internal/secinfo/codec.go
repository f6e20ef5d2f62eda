package secinfo

import (
	"errors"
	"fmt"
)

// minCertEntrySize is the smallest encoded CertEntry: identity pair,
// cached EV status, and an empty length prefix.
const minCertEntrySize = 2*idSize + 4 + 4

// Encode serializes r in the host's byte layout. Encoding is deterministic:
// equal records always produce equal bytes.
func Encode(r *TransportSecurityInfo) ([]byte, error) {
	if r == nil {
		return nil, errors.New("secinfo: nil record")
	}
	w := &writer{}

	w.pair(TransportSecurityInfoCID, SupportsIID)
	w.id(Magic)
	w.u32(r.SecurityState)
	w.u32(r.SubRequestsBroken)
	w.u32(r.SubRequestsNone)
	w.u32(r.ErrorCode)
	if err := w.wstring(r.ErrorMessage); err != nil {
		return nil, fmt.Errorf("secinfo: error message: %w", err)
	}

	w.bool(r.TLSStatus != nil)
	if r.TLSStatus != nil {
		if err := encodeTLSStatus(w, r.TLSStatus); err != nil {
			return nil, err
		}
	}

	w.bool(r.FailedChain != nil)
	if r.FailedChain != nil {
		if err := encodeCertList(w, r.FailedChain); err != nil {
			return nil, err
		}
	}
	return w.buf, nil
}

func encodeTLSStatus(w *writer, s *TLSStatus) error {
	w.pair(SSLStatusCID, SupportsIID)
	if err := encodeCert(w, &s.ServerCert); err != nil {
		return fmt.Errorf("secinfo: server cert: %w", err)
	}
	w.u16(s.CipherSuite)
	w.u16(s.ProtocolVersion)
	w.bool(s.DomainMismatch)
	w.bool(s.NotValidNow)
	w.bool(s.Untrusted)
	w.bool(s.EV)
	w.bool(s.HasEVStatus)
	w.bool(s.HaveCipherInfo)
	w.bool(s.HaveCertErrorBits)
	return nil
}

func encodeCert(w *writer, c *CertEntry) error {
	w.pair(X509CertCID, SupportsIID)
	w.u32(c.CachedEVStatus)
	return w.bytes(c.CertBytes)
}

func encodeCertList(w *writer, l *CertList) error {
	w.pair(X509CertListCID, SupportsIID)
	w.u32(uint32(len(l.Entries)))
	for i := range l.Entries {
		if err := encodeCert(w, &l.Entries[i]); err != nil {
			return fmt.Errorf("secinfo: chain entry %d: %w", i, err)
		}
	}
	return nil
}

// Decode parses a record from b. The whole buffer must be consumed.
func Decode(b []byte) (*TransportSecurityInfo, error) {
	r := &reader{buf: b}

	if err := r.enter(nodeRoot, TransportSecurityInfoCID, SupportsIID); err != nil {
		return nil, err
	}
	r.node = nodeMagic
	if err := r.expect(Magic, "magic"); err != nil {
		return nil, err
	}
	r.node = nodeRoot

	var (
		rec TransportSecurityInfo
		err error
	)
	if rec.SecurityState, err = r.u32("security state"); err != nil {
		return nil, err
	}
	if rec.SubRequestsBroken, err = r.u32("sub-requests broken"); err != nil {
		return nil, err
	}
	if rec.SubRequestsNone, err = r.u32("sub-requests none"); err != nil {
		return nil, err
	}
	if rec.ErrorCode, err = r.u32("error code"); err != nil {
		return nil, err
	}
	if rec.ErrorMessage, err = r.wstring("error message"); err != nil {
		return nil, err
	}

	hasStatus, err := r.bool("tls status present")
	if err != nil {
		return nil, err
	}
	if hasStatus {
		if rec.TLSStatus, err = decodeTLSStatus(r); err != nil {
			return nil, err
		}
		r.node = nodeRoot
	}

	hasChain, err := r.bool("failed chain present")
	if err != nil {
		return nil, err
	}
	if hasChain {
		if rec.FailedChain, err = decodeCertList(r); err != nil {
			return nil, err
		}
		r.node = nodeRoot
	}

	if r.remaining() != 0 {
		return nil, &DecodeError{
			Code:    ErrCodeTrailingData,
			Node:    nodeRoot,
			Offset:  r.off,
			Message: fmt.Sprintf("%d unconsumed bytes", r.remaining()),
		}
	}
	return &rec, nil
}

func decodeTLSStatus(r *reader) (*TLSStatus, error) {
	if err := r.enter(nodeTLSStatus, SSLStatusCID, SupportsIID); err != nil {
		return nil, err
	}
	var (
		s   TLSStatus
		err error
	)
	cert, err := decodeCert(r)
	if err != nil {
		return nil, err
	}
	s.ServerCert = *cert
	r.node = nodeTLSStatus

	if s.CipherSuite, err = r.u16("cipher suite"); err != nil {
		return nil, err
	}
	if s.ProtocolVersion, err = r.u16("protocol version"); err != nil {
		return nil, err
	}
	flags := []struct {
		dst  *bool
		name string
	}{
		{&s.DomainMismatch, "domain mismatch"},
		{&s.NotValidNow, "not valid now"},
		{&s.Untrusted, "untrusted"},
		{&s.EV, "extended validation"},
		{&s.HasEVStatus, "has ev status"},
		{&s.HaveCipherInfo, "have cipher info"},
		{&s.HaveCertErrorBits, "have cert error bits"},
	}
	for _, f := range flags {
		if *f.dst, err = r.bool(f.name); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

func decodeCert(r *reader) (*CertEntry, error) {
	if err := r.enter(nodeCert, X509CertCID, SupportsIID); err != nil {
		return nil, err
	}
	var (
		c   CertEntry
		err error
	)
	if c.CachedEVStatus, err = r.u32("cached ev status"); err != nil {
		return nil, err
	}
	if c.CertBytes, err = r.bytes("certificate"); err != nil {
		return nil, err
	}
	return &c, nil
}

func decodeCertList(r *reader) (*CertList, error) {
	if err := r.enter(nodeCertList, X509CertListCID, SupportsIID); err != nil {
		return nil, err
	}
	count, err := r.u32("chain length")
	if err != nil {
		return nil, err
	}
	if uint64(count)*minCertEntrySize > uint64(r.remaining()) {
		return nil, &DecodeError{
			Code:    ErrCodeTruncated,
			Node:    nodeCertList,
			Offset:  r.off,
			Message: fmt.Sprintf("chain of %d entries", count),
		}
	}

	var l CertList
	for i := uint32(0); i < count; i++ {
		c, err := decodeCert(r)
		if err != nil {
			return nil, err
		}
		l.Entries = append(l.Entries, *c)
	}
	return &l, nil
}
