package domain

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexLiteral(t *testing.T) {
	assert.Equal(t, "0x", HexLiteral(nil))
	assert.Equal(t, "0x", HexLiteral([]byte{}))
	assert.Equal(t, "0x00FFAB10", HexLiteral([]byte{0x00, 0xFF, 0xAB, 0x10}))
}

func TestHexLiteral_RoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 2, 31, 32, 256, 4096} {
		b := make([]byte, size)
		_, err := rand.Read(b)
		require.NoError(t, err)

		decoded, err := ParseHexLiteral(HexLiteral(b))
		require.NoError(t, err)
		assert.Equal(t, b, decoded, "size %d", size)
	}
}

func TestParseHexLiteral(t *testing.T) {
	tests := []struct {
		name      string
		literal   string
		expected  []byte
		shouldErr bool
	}{
		{name: "Empty payload", literal: "0x", expected: []byte{}},
		{name: "Lower case", literal: "0xabcd", expected: []byte{0xAB, 0xCD}},
		{name: "Upper prefix", literal: "0XABCD", expected: []byte{0xAB, 0xCD}},
		{name: "Missing prefix", literal: "ABCD", shouldErr: true},
		{name: "Odd length", literal: "0xABC", shouldErr: true},
		{name: "Not hex", literal: "0xZZ", shouldErr: true},
		{name: "Empty string", literal: "", shouldErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ParseHexLiteral(tt.literal)
			if tt.shouldErr {
				assert.ErrorIs(t, err, ErrInvalidHexLiteral)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, b)
		})
	}
}
