package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	pass := []byte("correct horse battery staple")
	salt := []byte("exitboard-salt")

	k1, err := DeriveKey(pass, salt, MinKDFIterations)
	require.NoError(t, err)
	k2, err := DeriveKey(pass, salt, MinKDFIterations)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 32)
}

func TestDeriveKey_DifferentInputsDifferentKeys(t *testing.T) {
	pass := []byte("correct horse battery staple")

	k1, err := DeriveKey(pass, []byte("salt-1"), MinKDFIterations)
	require.NoError(t, err)
	k2, err := DeriveKey(pass, []byte("salt-2"), MinKDFIterations)
	require.NoError(t, err)
	k3, err := DeriveKey([]byte("other passphrase"), []byte("salt-1"), MinKDFIterations)
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}

func TestDeriveKey_RejectsWeakParameters(t *testing.T) {
	cases := []struct {
		name       string
		pass, salt []byte
		iterations int
	}{
		{"empty passphrase", nil, []byte("salt"), MinKDFIterations},
		{"empty salt", []byte("pass"), nil, MinKDFIterations},
		{"low iterations", []byte("pass"), []byte("salt"), MinKDFIterations - 1},
		{"zero iterations", []byte("pass"), []byte("salt"), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DeriveKey(tc.pass, tc.salt, tc.iterations)
			assert.ErrorIs(t, err, ErrWeakKDFParams)
		})
	}
}
