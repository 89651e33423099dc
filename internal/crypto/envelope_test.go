package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassphrase = "correct horse battery staple"

func TestEnvelopeRoundTrip(t *testing.T) {
	plaintext := []byte(`{"identities":[]}`)

	sealed, err := SealEnvelope(testPassphrase, plaintext)
	require.NoError(t, err)
	require.Greater(t, len(sealed), envelopeMinLength)

	opened, err := OpenEnvelope(testPassphrase, sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestEnvelopeFreshSaltPerSeal(t *testing.T) {
	a, err := SealEnvelope(testPassphrase, []byte("same"))
	require.NoError(t, err)
	b, err := SealEnvelope(testPassphrase, []byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a[:saltSize], b[:saltSize])
}

func TestEnvelopeWrongPassphrase(t *testing.T) {
	sealed, err := SealEnvelope(testPassphrase, []byte("secret"))
	require.NoError(t, err)

	_, err = OpenEnvelope("not the passphrase", sealed)
	assert.ErrorIs(t, err, ErrEnvelopeAuthentication)
}

func TestEnvelopeSingleByteTamper(t *testing.T) {
	sealed, err := SealEnvelope(testPassphrase, []byte("registry snapshot"))
	require.NoError(t, err)

	offsets := map[string]int{
		"salt":       0,
		"nonce":      saltSize,
		"tag":        saltSize + nonceSize,
		"ciphertext": envelopeMinLength,
	}
	for region, off := range offsets {
		tampered := append([]byte(nil), sealed...)
		tampered[off] ^= 0x01
		_, err := OpenEnvelope(testPassphrase, tampered)
		assert.ErrorIs(t, err, ErrEnvelopeAuthentication, region)
	}
}

func TestEnvelopeTooSmall(t *testing.T) {
	_, err := OpenEnvelope(testPassphrase, make([]byte, envelopeMinLength-1))
	assert.ErrorIs(t, err, ErrEnvelopeMalformed)
}
