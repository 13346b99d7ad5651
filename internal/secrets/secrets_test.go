package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "6368616e676520746869732070617373776f726420746f206120736563726574"

func TestBox_RoundTrip(t *testing.T) {
	box, err := NewBox(testKey)
	require.NoError(t, err)

	sealed, err := box.Seal("JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	assert.Contains(t, sealed, ":")
	assert.NotContains(t, sealed, "JBSWY3DPEHPK3PXP")

	opened, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", opened)
}

func TestBox_UniqueNonces(t *testing.T) {
	box, err := NewBox(testKey)
	require.NoError(t, err)

	a, err := box.Seal("same input")
	require.NoError(t, err)
	b, err := box.Seal("same input")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestBox_WrongKey(t *testing.T) {
	box, err := NewBox(testKey)
	require.NoError(t, err)

	other, err := NewBox(strings.Repeat("ab", 32))
	require.NoError(t, err)

	sealed, err := box.Seal("secret")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.Error(t, err)
}

func TestNewBox_InvalidKeys(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"not hex", "zzzz"},
		{"too short", "abcd"},
		{"wrong length", strings.Repeat("ab", 16)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBox(tt.key)
			assert.Error(t, err)
		})
	}
}

func TestBox_OpenMalformed(t *testing.T) {
	box, err := NewBox(testKey)
	require.NoError(t, err)

	for _, blob := range []string{"", "no-separator", "abcd:zzzz", "zz:abcd", "abcd:abcd"} {
		_, err := box.Open(blob)
		assert.Error(t, err, "blob %q", blob)
	}
}
