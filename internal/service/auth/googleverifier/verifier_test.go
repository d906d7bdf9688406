package googleverifier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifier_New(t *testing.T) {
	t.Run("requires client id", func(t *testing.T) {
		_, err := New("")

		require.Error(t, err)
	})

	t.Run("created ok", func(t *testing.T) {
		v, err := New("client-id.apps.googleusercontent.com")

		require.NoError(t, err)
		require.NotNil(t, v)
	})
}

func TestVerifier_Verify(t *testing.T) {
	v, err := New("client-id.apps.googleusercontent.com")
	require.NoError(t, err)

	t.Run("garbage token fails", func(t *testing.T) {
		_, err := v.Verify(t.Context(), "not-a-jwt")

		require.Error(t, err, "malformed token must not validate")
	})
}
