package testutil

import (
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfSignedDER(t *testing.T) {
	der := SelfSignedDER(t, "example.test")

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	assert.Equal(t, "example.test", cert.Subject.CommonName)
	assert.NoError(t, cert.VerifyHostname("example.test"))

	assert.NotEqual(t, der, SelfSignedDER(t, "example.test"))
}

func TestTempStore(t *testing.T) {
	s := TempStore(t)
	require.NoError(t, s.DB().Ping())
}
