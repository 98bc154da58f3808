package types

import "errors"

// Resolution states. A record progresses through these states while the
// caller drives key resolution; Resolved, ResolvedUnverified, and
// CreateNew are terminal for the session unless explicitly reset.
const (
	StateUnresolved         = "unresolved"
	StatePendingManual      = "pending_manual"
	StateResolvedUnverified = "resolved_unverified"
	StateResolved           = "resolved"
	StateCreateNew          = "create_new"
)

// validResolutionStates is the set of recognized resolution state values.
var validResolutionStates = map[string]bool{
	StateUnresolved:         true,
	StatePendingManual:      true,
	StateResolvedUnverified: true,
	StateResolved:           true,
	StateCreateNew:          true,
}

// Resolution errors.
var (
	ErrInvalidKeyFormat  = errors.New("invalid issue key format")
	ErrInvalidState      = errors.New("invalid resolution state")
	ErrInvalidTransition = errors.New("invalid resolution transition")
	ErrAlreadyResolved   = errors.New("record already resolved")
)

// Resolution tracks the target-key decision for one record within a
// session. Key is set for resolved states; ProjectKey is set only for
// create-new decisions.
type Resolution struct {
	State      string `json:"state"`
	Key        string `json:"key,omitempty"`
	ProjectKey string `json:"project_key,omitempty"`
}

// Decided reports whether the resolution reached a terminal outcome
// (a key, an unverified key, or an explicit create-new decision).
func (res Resolution) Decided() bool {
	switch res.State {
	case StateResolved, StateResolvedUnverified, StateCreateNew:
		return true
	}
	return false
}

// HasKey reports whether the resolution carries a usable target key.
func (res Resolution) HasKey() bool {
	return (res.State == StateResolved || res.State == StateResolvedUnverified) && res.Key != ""
}

// Resolve marks the record as resolved to key by exact automatic match.
// Idempotent: resolving to the same key again succeeds. Returns
// ErrAlreadyResolved if a different decision was already made; the
// caller must reset explicitly before overriding.
func (r *TestRecord) Resolve(key string) error {
	if r.Resolution.Decided() {
		if r.Resolution.State == StateResolved && r.Resolution.Key == key {
			return nil
		}
		return ErrAlreadyResolved
	}
	r.Resolution = Resolution{State: StateResolved, Key: key}
	return nil
}

// ResolveUnverified marks the record as resolved to a caller-supplied
// key that has not been verified against the target instance.
// Idempotent on the same key; ErrAlreadyResolved otherwise.
func (r *TestRecord) ResolveUnverified(key string) error {
	if r.Resolution.Decided() {
		if r.Resolution.State == StateResolvedUnverified && r.Resolution.Key == key {
			return nil
		}
		return ErrAlreadyResolved
	}
	r.Resolution = Resolution{State: StateResolvedUnverified, Key: key}
	return nil
}

// MarkPendingManual records that a manual decision is in flight.
// Only valid from the unresolved state; decided records keep their
// decision.
func (r *TestRecord) MarkPendingManual() error {
	switch r.Resolution.State {
	case "", StateUnresolved, StatePendingManual:
		r.Resolution = Resolution{State: StatePendingManual}
		return nil
	}
	return ErrInvalidTransition
}

// MarkCreateNew records an explicit decision to create a new issue on
// the target in the given project. Idempotent on the same project;
// ErrAlreadyResolved otherwise.
func (r *TestRecord) MarkCreateNew(projectKey string) error {
	if r.Resolution.Decided() {
		if r.Resolution.State == StateCreateNew && r.Resolution.ProjectKey == projectKey {
			return nil
		}
		return ErrAlreadyResolved
	}
	r.Resolution = Resolution{State: StateCreateNew, ProjectKey: projectKey}
	return nil
}

// ResetResolution returns the record to the unresolved state. This is
// the only way an already-decided record can change its decision.
func (r *TestRecord) ResetResolution() {
	r.Resolution = Resolution{State: StateUnresolved}
}

// RestoreResolution sets the resolution directly, bypassing transition
// checks. Used when replaying journaled decisions from a previous run.
// Returns ErrInvalidState if the state value is not recognized.
func (r *TestRecord) RestoreResolution(res Resolution) error {
	if res.State == "" {
		res.State = StateUnresolved
	}
	if !validResolutionStates[res.State] {
		return ErrInvalidState
	}
	r.Resolution = res
	return nil
}
