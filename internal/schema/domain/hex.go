package domain

import (
	"encoding/hex"
	"strings"

	"github.com/allisson/colkeys/internal/errors"
)

// HexLiteral renders b as a T-SQL binary literal: 0x followed by upper-case hex
// with no separators. An empty or nil slice renders as "0x".
func HexLiteral(b []byte) string {
	return "0x" + strings.ToUpper(hex.EncodeToString(b))
}

// ParseHexLiteral decodes a literal produced by HexLiteral. Lower-case digits
// and a 0X prefix are accepted.
func ParseHexLiteral(s string) ([]byte, error) {
	if len(s) < 2 || (s[:2] != "0x" && s[:2] != "0X") {
		return nil, errors.Wrapf(ErrInvalidHexLiteral, "missing 0x prefix in %q", s)
	}
	b, err := hex.DecodeString(s[2:])
	if err != nil {
		return nil, errors.Join(ErrInvalidHexLiteral, err)
	}
	return b, nil
}
