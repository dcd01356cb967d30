// Package domain defines the objects bound together by column encryption DDL:
// column master keys, column encryption keys, encrypted and plain columns,
// tables and the ordered migration plan that creates or drops them.
package domain

// ColumnEncryptionAlgorithm is the only cipher supported for encrypted columns.
const ColumnEncryptionAlgorithm = "AEAD_AES_256_CBC_HMAC_SHA_256"

// BinaryCollation is required on encrypted character columns.
const BinaryCollation = "Latin1_General_BIN2"

// DefaultSchema is used when a TableSpec does not name one.
const DefaultSchema = "dbo"
