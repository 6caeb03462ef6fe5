package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	ph := NewFastPasswordHasher()

	encoded, err := ph.Hash("Correct-Horse-42")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$"))

	ok, err := ph.Verify("Correct-Horse-42", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ph.Verify("Wrong-Horse-42", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_SaltsDiffer(t *testing.T) {
	ph := NewFastPasswordHasher()

	a, err := ph.Hash("same")
	require.NoError(t, err)
	b, err := ph.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPasswordHasher_RejectsMalformedHash(t *testing.T) {
	ph := NewFastPasswordHasher()

	_, err := ph.Verify("x", "not-a-hash")
	assert.Error(t, err)
	_, err = ph.Verify("x", "$argon2id$v=1$m=1,t=1,p=1$c2FsdA$aGFzaA")
	assert.Error(t, err)
}
