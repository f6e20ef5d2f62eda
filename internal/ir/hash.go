package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests.
// Version suffix enables future algorithm migration.
const (
	DomainExchange    = "httpreplay/exchange/v1"
	DomainCertificate = "httpreplay/certificate/v1"
	DomainBody        = "httpreplay/body/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest returns the domain-separated SHA-256 of raw bytes.
func Digest(domain string, data []byte) string {
	return hashWithDomain(domain, data)
}

// DigestCanonical canonicalizes v (RFC 8785) and returns its domain-separated
// SHA-256. Two values with equal canonical JSON always share a digest.
func DigestCanonical(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}
