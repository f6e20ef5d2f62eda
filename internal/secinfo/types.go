package secinfo

// TransportSecurityInfo is the root security record of one connection.
type TransportSecurityInfo struct {
	SecurityState     uint32
	SubRequestsBroken uint32
	SubRequestsNone   uint32
	ErrorCode         uint32
	ErrorMessage      string

	// TLSStatus is nil when the connection negotiated no TLS status.
	TLSStatus *TLSStatus

	// FailedChain is nil unless certificate verification failed.
	FailedChain *CertList
}

// TLSStatus describes the negotiated TLS session.
type TLSStatus struct {
	ServerCert      CertEntry
	CipherSuite     uint16
	ProtocolVersion uint16

	DomainMismatch    bool
	NotValidNow       bool
	Untrusted         bool
	EV                bool
	HasEVStatus       bool
	HaveCipherInfo    bool
	HaveCertErrorBits bool
}

// CertEntry is one certificate. CertBytes is opaque to the codec; see
// CertMapper for turning it into a usable certificate.
//
// Nil and empty CertBytes encode identically, and Decode always returns nil
// for an empty certificate, so round trips hold up to that equivalence.
type CertEntry struct {
	CachedEVStatus uint32
	CertBytes      []byte
}

// CertList is an ordered certificate chain, leaf first.
type CertList struct {
	Entries []CertEntry
}
