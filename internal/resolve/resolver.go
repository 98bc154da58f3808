// Package resolve implements key resolution: deciding, for each loaded
// record, its authoritative issue key on the target instance. Automatic
// resolution matches exact normalized summaries only; anything
// ambiguous stays unresolved and waits for a manual decision. The
// resolver never talks to the target instance; remote verification is
// the caller's collaborator's job.
package resolve

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/besa-qa/xmigrate/pkg/types"
)

// Mode selects how a key decision is made.
type Mode int

const (
	// Manual accepts a caller-supplied key, validated for format only.
	Manual Mode = iota
	// Automatic matches the record's normalized summary against the
	// target index. Exact matches win outright; partial overlap never
	// resolves.
	Automatic
)

// Outcome labels for resolution results.
const (
	OutcomeResolved   = "resolved"
	OutcomeUnverified = "resolved_unverified"
	OutcomeUnresolved = "unresolved"
	OutcomeCreateNew  = "create_new"
)

// Result reports one resolution attempt. Unresolved is not an error:
// it is a valid terminal state requiring a caller decision, and Reason
// explains it without the caller re-deriving the logic.
type Result struct {
	RecordID string
	Outcome  string
	Key      string
	Reason   string
}

// Resolver decides target keys for records.
type Resolver struct {
	keyPattern     *regexp.Regexp
	projectPattern *regexp.Regexp
}

// projectKeyPattern matches a bare project prefix such as PROJ.
const projectKeyPattern = `^[A-Z][A-Z0-9]*$`

// New builds a Resolver whose manual-key validation uses pattern.
// An empty pattern falls back to types.DefaultKeyPattern.
func New(pattern string) (*Resolver, error) {
	if pattern == "" {
		pattern = types.DefaultKeyPattern
	}
	keyRe, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile key pattern %q: %w", pattern, err)
	}
	return &Resolver{
		keyPattern:     keyRe,
		projectPattern: regexp.MustCompile(projectKeyPattern),
	}, nil
}

// Resolve decides the target key for rec against idx. In Manual mode
// manualKey supplies the caller's key; in Automatic mode it is ignored.
//
// Resolution is idempotent: an already-decided record returns its
// existing decision unchanged, in either mode, until the caller
// explicitly resets it. A failed manual attempt leaves the record
// unresolved and returns types.ErrInvalidKeyFormat so the caller can
// re-prompt.
func (r *Resolver) Resolve(rec *types.TestRecord, idx *types.TargetIndex, mode Mode, manualKey string) (Result, error) {
	if prior, ok := r.existing(rec); ok {
		return prior, nil
	}

	switch mode {
	case Manual:
		return r.resolveManual(rec, manualKey)
	case Automatic:
		return r.resolveAutomatic(rec, idx)
	default:
		return Result{}, fmt.Errorf("unknown resolution mode %d", mode)
	}
}

// existing returns the record's prior decision, if one exists.
func (r *Resolver) existing(rec *types.TestRecord) (Result, bool) {
	res := rec.Resolution
	switch res.State {
	case types.StateResolved:
		return Result{RecordID: rec.ID, Outcome: OutcomeResolved, Key: res.Key,
			Reason: "already resolved this session"}, true
	case types.StateResolvedUnverified:
		return Result{RecordID: rec.ID, Outcome: OutcomeUnverified, Key: res.Key,
			Reason: "already resolved this session"}, true
	case types.StateCreateNew:
		return Result{RecordID: rec.ID, Outcome: OutcomeCreateNew,
			Reason: fmt.Sprintf("already marked for creation in project %s", res.ProjectKey)}, true
	}
	return Result{}, false
}

// resolveManual validates and applies a caller-supplied key. The key
// is tagged unverified: existence on the target is not checked here.
func (r *Resolver) resolveManual(rec *types.TestRecord, manualKey string) (Result, error) {
	key := strings.ToUpper(strings.TrimSpace(manualKey))
	if key == "" || !r.keyPattern.MatchString(key) {
		// No state change: the record stays unresolved for re-prompt.
		return Result{
			RecordID: rec.ID,
			Outcome:  OutcomeUnresolved,
			Reason:   fmt.Sprintf("key %q does not match the tracker key format", manualKey),
		}, types.ErrInvalidKeyFormat
	}

	if err := rec.ResolveUnverified(key); err != nil {
		return Result{}, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	return Result{
		RecordID: rec.ID,
		Outcome:  OutcomeUnverified,
		Key:      key,
		Reason:   "manually supplied key, not verified against target",
	}, nil
}

// resolveAutomatic matches the record's normalized summary against the
// target index. Only an unambiguous exact match resolves; the design
// deliberately avoids fuzzy-threshold guessing to prevent false merges.
func (r *Resolver) resolveAutomatic(rec *types.TestRecord, idx *types.TargetIndex) (Result, error) {
	norm := types.NormalizeSummary(rec.Summary)
	if norm == "" {
		return Result{
			RecordID: rec.ID,
			Outcome:  OutcomeUnresolved,
			Reason:   "record has no summary to match",
		}, nil
	}

	keys := idx.KeysBySummary(norm)
	switch len(keys) {
	case 0:
		return Result{
			RecordID: rec.ID,
			Outcome:  OutcomeUnresolved,
			Reason:   "no exact summary match on target",
		}, nil
	case 1:
		if err := rec.Resolve(keys[0]); err != nil {
			return Result{}, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		return Result{
			RecordID: rec.ID,
			Outcome:  OutcomeResolved,
			Key:      keys[0],
			Reason:   "exact normalized-summary match",
		}, nil
	default:
		return Result{
			RecordID: rec.ID,
			Outcome:  OutcomeUnresolved,
			Reason:   fmt.Sprintf("%d target records share this summary (%s)", len(keys), strings.Join(keys, ", ")),
		}, nil
	}
}

// CreateNew records an explicit decision to create rec as a new issue
// in the given project. An empty projectKey falls back to the
// record's source-key prefix when one exists.
func (r *Resolver) CreateNew(rec *types.TestRecord, projectKey string) (Result, error) {
	if prior, ok := r.existing(rec); ok {
		return prior, nil
	}

	project := strings.ToUpper(strings.TrimSpace(projectKey))
	if project == "" {
		project = rec.ProjectPrefix()
	}
	if project == "" || !r.projectPattern.MatchString(project) {
		return Result{
			RecordID: rec.ID,
			Outcome:  OutcomeUnresolved,
			Reason:   "cannot determine target project for new issue",
		}, types.ErrInvalidKeyFormat
	}

	if err := rec.MarkCreateNew(project); err != nil {
		return Result{}, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	return Result{
		RecordID: rec.ID,
		Outcome:  OutcomeCreateNew,
		Reason:   fmt.Sprintf("new issue will be created in project %s", project),
	}, nil
}
