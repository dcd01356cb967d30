package domain

import (
	"crypto/sha256"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// utf16le encodes s as UTF-16 little endian without a byte order mark, the
// encoding the database driver uses when hashing key metadata.
func utf16le(s string) ([]byte, error) {
	return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
}

// MetadataHash returns the SHA-256 digest a KMS signs to vouch for a master key:
// lower(providerName + keyPath + allowEnclaveComputations) encoded as UTF-16LE.
func MetadataHash(providerName, keyPath string, allowEnclaveComputations bool) ([]byte, error) {
	metadata := strings.ToLower(providerName + keyPath + strconv.FormatBool(allowEnclaveComputations))

	encoded, err := utf16le(metadata)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(encoded)
	return sum[:], nil
}
