package cryptox_test

import (
	"testing"

	"github.com/aussiebroadwan/npd/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	t.Parallel()

	s, err := cryptox.NewSealer("correct horse battery staple")
	require.NoError(t, err)

	plaintext := []byte("refresh-token-value")

	sealed, err := s.Seal(plaintext)
	require.NoError(t, err)
	require.NotContains(t, string(sealed), string(plaintext))

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, plaintext, opened)
}

func TestSealRandomNonce(t *testing.T) {
	t.Parallel()

	s, err := cryptox.NewSealer("passphrase")
	require.NoError(t, err)

	a, err := s.Seal([]byte("same"))
	require.NoError(t, err)
	b, err := s.Seal([]byte("same"))
	require.NoError(t, err)

	// Same plaintext must not produce the same ciphertext
	require.NotEqual(t, a, b)
}

func TestOpenAcrossSealers(t *testing.T) {
	t.Parallel()

	// A new process gets a new Sealer with a new salt, it must still open
	// values sealed by the previous one.
	first, err := cryptox.NewSealer("shared")
	require.NoError(t, err)
	second, err := cryptox.NewSealer("shared")
	require.NoError(t, err)

	sealed, err := first.Seal([]byte("token"))
	require.NoError(t, err)

	opened, err := second.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, []byte("token"), opened)
}

func TestOpenWrongPassphrase(t *testing.T) {
	t.Parallel()

	right, err := cryptox.NewSealer("right")
	require.NoError(t, err)
	wrong, err := cryptox.NewSealer("wrong")
	require.NoError(t, err)

	sealed, err := right.Seal([]byte("token"))
	require.NoError(t, err)

	_, err = wrong.Open(sealed)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decryption failed")
}

func TestOpenTampered(t *testing.T) {
	t.Parallel()

	s, err := cryptox.NewSealer("passphrase")
	require.NoError(t, err)

	sealed, err := s.Seal([]byte("token"))
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xff
	_, err = s.Open(sealed)
	require.Error(t, err)

	_, err = s.Open([]byte("short"))
	require.Error(t, err)
}

func TestNewSealerEmptyPassphrase(t *testing.T) {
	t.Parallel()

	_, err := cryptox.NewSealer("")
	require.ErrorIs(t, err, cryptox.ErrEmptyPassphrase)
}
