package domain

// MismatchRow is the Field of a FieldMismatch reporting that no row matched the filter.
const MismatchRow = "row"

// FieldMismatch is one field whose stored value differs from the expected one.
type FieldMismatch struct {
	Field    string
	Expected any
	Actual   any
}

// VerificationResult is the outcome of reading a record back through the encrypted path.
type VerificationResult struct {
	Matched    bool
	Mismatches []FieldMismatch
}
