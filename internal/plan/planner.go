// Package plan sequences selected records into a target-compatible
// export batch, applying key-resolution and attachment-reconciliation
// results. Planning is deterministic: the same selection, resolutions,
// and diffs always produce a byte-identical batch, which is what makes
// re-runs after partial failure safe.
package plan

import (
	"fmt"

	"github.com/besa-qa/xmigrate/pkg/types"
)

// Skip reasons surfaced to the caller.
const (
	reasonUnresolved     = "unresolved: no target key decision"
	reasonPendingManual  = "unresolved: manual decision in flight"
	reasonMissingSummary = "missing required field: summary"
)

// Lookup supplies the cross-record key mappings the planner needs to
// link preconditions and test sets by target key.
type Lookup struct {
	// KeyByID maps source internal ids to target keys.
	KeyByID map[string]string
	// SetsByRecord maps record ids to the ids of the test sets they
	// belong to.
	SetsByRecord map[string][]string
}

// Build assembles an export batch from the selected records, in
// selection order. Records without a terminal resolution are excluded
// and reported as skipped, never silently dropped; so are records that
// fail export requirements. missing carries the attachment diff per
// record id.
func Build(selected []*types.TestRecord, missing map[string][]types.AttachmentRef, lk Lookup) types.ExportBatch {
	batch := types.ExportBatch{
		Entries: make([]types.ExportEntry, 0, len(selected)),
	}

	for _, rec := range selected {
		if err := rec.Validate(); err != nil {
			batch.Skips = append(batch.Skips, types.Skip{RecordID: rec.ID, Reason: reasonMissingSummary})
			continue
		}

		res := rec.Resolution
		if !res.Decided() {
			reason := reasonUnresolved
			if res.State == types.StatePendingManual {
				reason = reasonPendingManual
			}
			batch.Skips = append(batch.Skips, types.Skip{RecordID: rec.ID, Reason: reason})
			continue
		}

		entry := buildEntry(rec, lk)
		batch.Entries = append(batch.Entries, entry)

		if refs := missing[rec.ID]; len(refs) > 0 {
			if batch.Missing == nil {
				batch.Missing = make(map[string][]types.AttachmentRef)
			}
			batch.Missing[rec.ID] = refs
		}
	}

	return batch
}

// buildEntry renders one resolved record into the target import
// schema. Step order is preserved exactly.
func buildEntry(rec *types.TestRecord, lk Lookup) types.ExportEntry {
	entry := types.ExportEntry{
		ID: rec.ID,
		Fields: types.EntryFields{
			Summary:     rec.Summary,
			Description: rec.Description,
		},
		Steps:         make([]types.Step, len(rec.Steps)),
		Preconditions: keysFor(rec.PreconditionIDs, lk.KeyByID),
		TestSets:      keysFor(lk.SetsByRecord[rec.ID], lk.KeyByID),
		TestType:      rec.TestType,
	}
	copy(entry.Steps, rec.Steps)

	if rec.Resolution.State == types.StateCreateNew {
		// Empty key plus a project is the create-new marker the
		// target import understands.
		entry.Fields.Project = &types.ProjectRef{Key: rec.Resolution.ProjectKey}
	} else {
		entry.Key = rec.Resolution.Key
	}
	return entry
}

// keysFor maps source ids to target keys, dropping ids with no known
// key. Order follows the input ids.
func keysFor(ids []string, keyByID map[string]string) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if key, ok := keyByID[id]; ok && key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// Summary renders the batch counters in one line for reporting.
func Summary(batch types.ExportBatch) string {
	return fmt.Sprintf("%d planned (%d new), %d skipped",
		batch.Planned(), batch.Creates(), batch.Skipped())
}
