package secinfo

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_RoundTrip(t *testing.T) {
	s, err := EncodeEnvelope(fullRecord())
	require.NoError(t, err)

	got, err := DecodeEnvelope("  " + s + "\n")
	require.NoError(t, err)
	assert.Equal(t, fullRecord(), got)
}

func TestEnvelope_Unsupported(t *testing.T) {
	b, err := Encode(minimalRecord())
	require.NoError(t, err)
	wrongIID := append([]byte{}, b...)
	wrongIID[idSize+3] ^= 0x10

	tests := []struct {
		name string
		in   string
	}{
		{"not base64", "%%% not base64 %%%"},
		{"empty", ""},
		{"whitespace only", "   "},
		{"root under another interface", base64.StdEncoding.EncodeToString(wrongIID)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEnvelope(tt.in)
			require.Error(t, err)
			assert.True(t, IsUnsupportedEnvelope(err), "got %v", err)
		})
	}
}

func TestEnvelope_WrongComponentIsIdentityMismatch(t *testing.T) {
	b, err := Encode(minimalRecord())
	require.NoError(t, err)
	b[0] ^= 0x01

	_, err = DecodeEnvelope(WrapEnvelope(b))
	require.Error(t, err)
	assert.True(t, IsIdentityMismatch(err))
}

func TestEnvelope_ShortPayloadIsTruncated(t *testing.T) {
	_, err := DecodeEnvelope(WrapEnvelope([]byte{0x16, 0x78}))
	require.Error(t, err)
	assert.True(t, IsTruncated(err))
}

func TestUnwrapEnvelope(t *testing.T) {
	b, err := Encode(fullRecord())
	require.NoError(t, err)

	raw, err := UnwrapEnvelope(WrapEnvelope(b))
	require.NoError(t, err)
	assert.Equal(t, b, raw)
}
