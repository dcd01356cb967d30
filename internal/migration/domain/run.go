package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run is the persisted history entry of one migration run.
type Run struct {
	ID                uuid.UUID // UUIDv7
	MasterKeyName     string
	EncryptionKeyName string
	TableName         string
	State             State
	FailedStep        State // empty unless State is StateFailed
	Error             string
	StartedAt         time.Time
	FinishedAt        time.Time
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunReport is returned by a run. Verification is nil when the run failed before verifying.
type RunReport struct {
	Run
	Verification *VerificationResult
}
