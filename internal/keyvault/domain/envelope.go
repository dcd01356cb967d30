package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"

	"github.com/allisson/colkeys/internal/errors"
)

// envelopeVersion is the first byte of every wrapped key envelope.
const envelopeVersion byte = 0x01

// envelopeHeaderSize is version + key path length + ciphertext length.
const envelopeHeaderSize = 1 + 2 + 2

// Envelope is the persisted form of a wrapped column encryption key:
//
//	version(1) | keyPathLen(2, LE) | ciphertextLen(2, LE) | keyPath(UTF-16LE, lower) | ciphertext | signature
//
// The signature covers the SHA-256 of every byte preceding it and binds the
// ciphertext to the master key path it was wrapped under.
type Envelope struct {
	KeyPath    []byte // UTF-16LE of the lower-cased master key path
	Ciphertext []byte
	Signature  []byte
}

// NewEnvelope builds an unsigned envelope for keyPath and ciphertext.
func NewEnvelope(keyPath string, ciphertext []byte) (*Envelope, error) {
	encodedPath, err := utf16le(strings.ToLower(keyPath))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidEnvelope, err.Error())
	}
	if len(encodedPath) > math.MaxUint16 || len(ciphertext) > math.MaxUint16 {
		return nil, errors.Wrap(ErrInvalidEnvelope, "key path or ciphertext too long")
	}
	return &Envelope{KeyPath: encodedPath, Ciphertext: ciphertext}, nil
}

// header returns every envelope byte that precedes the signature.
func (e *Envelope) header() []byte {
	buf := make([]byte, 0, envelopeHeaderSize+len(e.KeyPath)+len(e.Ciphertext))
	buf = append(buf, envelopeVersion)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(e.KeyPath)))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(e.Ciphertext)))
	buf = append(buf, e.KeyPath...)
	buf = append(buf, e.Ciphertext...)
	return buf
}

// Digest returns the SHA-256 over the unsigned portion of the envelope.
func (e *Envelope) Digest() []byte {
	sum := sha256.Sum256(e.header())
	return sum[:]
}

// Bytes serializes the envelope including its signature.
func (e *Envelope) Bytes() []byte {
	return append(e.header(), e.Signature...)
}

// MatchesKeyPath reports whether the envelope was produced for keyPath.
func (e *Envelope) MatchesKeyPath(keyPath string) bool {
	encodedPath, err := utf16le(strings.ToLower(keyPath))
	if err != nil {
		return false
	}
	return bytes.Equal(e.KeyPath, encodedPath)
}

// ParseEnvelope decodes a serialized envelope. The signature is not verified here.
func ParseEnvelope(data []byte) (*Envelope, error) {
	if len(data) < envelopeHeaderSize {
		return nil, errors.Wrap(ErrInvalidEnvelope, "too short")
	}
	if data[0] != envelopeVersion {
		return nil, errors.Wrapf(ErrInvalidEnvelope, "unknown version 0x%02X", data[0])
	}

	pathLen := int(binary.LittleEndian.Uint16(data[1:3]))
	ciphertextLen := int(binary.LittleEndian.Uint16(data[3:5]))

	rest := data[envelopeHeaderSize:]
	if len(rest) < pathLen+ciphertextLen {
		return nil, errors.Wrap(ErrInvalidEnvelope, "truncated")
	}

	return &Envelope{
		KeyPath:    bytes.Clone(rest[:pathLen]),
		Ciphertext: bytes.Clone(rest[pathLen : pathLen+ciphertextLen]),
		Signature:  bytes.Clone(rest[pathLen+ciphertextLen:]),
	}, nil
}
