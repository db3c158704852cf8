/*
File: registry.go
Description: The Model Registry (MR) — owns the currently-active
             StudentModel and the Bandit, and does load-verify-then-
             publish on hot-swap, generalizing the teacher's
             InitMLGuard/loadStateLocked pattern from "load once at
             startup" to "load now or at any later hot-reload."
*/

package scorecore

// ModelRegistry is the single owner of SM and CB state for one Engine.
type ModelRegistry struct {
	students *StudentModelRegistry
	bandit   *Bandit
}

// NewModelRegistry constructs a registry around an already-parsed
// initial student model and a fresh bandit.
func NewModelRegistry(initial *StudentModel, bandit *Bandit) *ModelRegistry {
	return &ModelRegistry{
		students: NewStudentModelRegistry(initial),
		bandit:   bandit,
	}
}

// CurrentStudent returns the active student model.
func (r *ModelRegistry) CurrentStudent() *StudentModel {
	return r.students.Current()
}

// Bandit returns the registry's bandit. The bandit itself is never
// swapped wholesale (only its per-arm state mutates, via RI); only the
// student model has a hot-swap path (§4.3's "replaceable atomically").
func (r *ModelRegistry) Bandit() *Bandit {
	return r.bandit
}

// SwapStudent parses and validates candidate bytes, and only on
// success publishes it as the active model — an invalid candidate
// leaves the old model in place and returns the parse error (§7's
// ModelLoadError: "at hot-reload, keep old model and surface in
// logs").
func (r *ModelRegistry) SwapStudent(data []byte) (*StudentModel, error) {
	next, err := ParseStudentModel(data)
	if err != nil {
		return nil, err
	}
	old := r.students.Swap(next)
	return old, nil
}
