package domain

// Zero overwrites a byte slice with zeros to clear key material from memory.
//
// The Go runtime may have copied the slice before this call (e.g. during a grow),
// so zeroing is a best-effort mitigation on top of keeping plaintext lifetime short.
func Zero(b []byte) {
	if b == nil {
		return
	}
	clear(b)
}
