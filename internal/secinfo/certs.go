package secinfo

import (
	"crypto/x509"
	"fmt"
)

// CertMapper converts between certificate bytes and a caller's certificate
// handle type.
type CertMapper[T any] interface {
	FromBytes(b []byte) (T, error)
	ToBytes(cert T) ([]byte, error)
}

// X509Mapper maps DER bytes to parsed x509 certificates.
type X509Mapper struct{}

// FromBytes parses DER bytes.
func (X509Mapper) FromBytes(b []byte) (*x509.Certificate, error) {
	return x509.ParseCertificate(b)
}

// ToBytes returns the certificate's raw DER.
func (X509Mapper) ToBytes(cert *x509.Certificate) ([]byte, error) {
	if cert == nil {
		return nil, fmt.Errorf("nil certificate")
	}
	return cert.Raw, nil
}

// MapChain converts every entry of l, leaf first.
func MapChain[T any](m CertMapper[T], l *CertList) ([]T, error) {
	if l == nil {
		return nil, nil
	}
	out := make([]T, 0, len(l.Entries))
	for i, e := range l.Entries {
		cert, err := m.FromBytes(e.CertBytes)
		if err != nil {
			return nil, fmt.Errorf("chain entry %d: %w", i, err)
		}
		out = append(out, cert)
	}
	return out, nil
}

// ChainFrom builds a CertList from certificate handles. Cached EV status is
// left zero.
func ChainFrom[T any](m CertMapper[T], certs []T) (*CertList, error) {
	l := &CertList{}
	for i, c := range certs {
		b, err := m.ToBytes(c)
		if err != nil {
			return nil, fmt.Errorf("chain entry %d: %w", i, err)
		}
		l.Entries = append(l.Entries, CertEntry{CertBytes: b})
	}
	return l, nil
}
