package keys_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nyansa/flintrock/internal/keys"
)

func TestGenerateProducesUsableKeyPair(t *testing.T) {
	pair, err := keys.Generate()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(pair.PublicText, "ssh-rsa "))
	assert.Contains(t, pair.PrivateText, "RSA PRIVATE KEY")

	signer, err := keys.Signer(pair.PrivateText)
	require.NoError(t, err)
	assert.NotNil(t, signer.PublicKey())
}

func TestGenerateIsFreshEachCall(t *testing.T) {
	first, err := keys.Generate()
	require.NoError(t, err)
	second, err := keys.Generate()
	require.NoError(t, err)

	assert.NotEqual(t, first.PrivateText, second.PrivateText)
	assert.NotEqual(t, first.PublicText, second.PublicText)
}

func TestSignerRejectsGarbage(t *testing.T) {
	_, err := keys.Signer("not a key")
	assert.Error(t, err)
}
