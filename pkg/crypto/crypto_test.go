package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher("member-app-secret")
	require.NoError(t, err)

	sealed, err := c.Seal("tok-123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, sealedPrefix))
	assert.NotContains(t, sealed, "tok-123")

	again, err := c.Seal("tok-123")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per call")

	plain, err := c.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", plain)
}

func TestCipher_NilPassesThrough(t *testing.T) {
	c, err := NewCipher("")
	require.NoError(t, err)
	assert.Nil(t, c)

	sealed, err := c.Seal("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", sealed)

	plain, err := c.Open("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", plain)
}

func TestCipher_LegacyPlainValue(t *testing.T) {
	c, err := NewCipher("k")
	require.NoError(t, err)

	plain, err := c.Open("legacy-token")
	require.NoError(t, err)
	assert.Equal(t, "legacy-token", plain)
}

func TestCipher_Failures(t *testing.T) {
	a, _ := NewCipher("key-a")
	b, _ := NewCipher("key-b")

	sealed, err := a.Seal("secret")
	require.NoError(t, err)

	_, err = b.Open(sealed)
	assert.ErrorIs(t, err, ErrTampered)

	var none *Cipher
	_, err = none.Open(sealed)
	assert.Error(t, err)

	_, err = a.Open(sealedPrefix + "!!!")
	assert.Error(t, err)

	_, err = a.Open(sealedPrefix + "AAAA")
	assert.ErrorIs(t, err, ErrTampered)
}
