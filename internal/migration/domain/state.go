// Package domain defines the migration run state machine, its errors, the
// records seeded into encrypted tables and the verification result.
package domain

// State is a step of a migration run.
type State string

// Run states in execution order. Failed is terminal and reachable from any non-terminal state.
const (
	StateIdle                  State = "idle"
	StateDroppingExisting      State = "dropping_existing"
	StateCreatingMasterKey     State = "creating_master_key"
	StateCreatingEncryptionKey State = "creating_encryption_key"
	StateCreatingSchema        State = "creating_schema"
	StateSeedingData           State = "seeding_data"
	StateVerifying             State = "verifying"
	StateDone                  State = "done"
	StateFailed                State = "failed"
)

// IsTerminal reports whether s ends a run.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}
