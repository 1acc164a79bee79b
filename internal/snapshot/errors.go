package snapshot

import "fmt"

// SnapshotInvariantError signals that a NodeSnapshot violated an invariant
// the rest of the system relies on: a history event referencing a channel
// absent from the snapshot, a balance outside [0, capacity], or history
// that is not sorted latest-first. It is always fatal — the caller must
// discard the snapshot and retry on the next refresh, never guess at a
// repair.
type SnapshotInvariantError struct {
	Reason string
}

func (e *SnapshotInvariantError) Error() string {
	return fmt.Sprintf("snapshot invariant violated: %s", e.Reason)
}
