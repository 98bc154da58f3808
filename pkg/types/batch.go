package types

import (
	"encoding/json"
	"fmt"
)

// ProjectRef names the target project a new issue is created in.
type ProjectRef struct {
	Key string `json:"key"`
}

// EntryFields mirrors the "fields" object of the target bulk-import
// schema. Project is set only on create-new entries.
type EntryFields struct {
	Summary     string      `json:"summary"`
	Description string      `json:"description"`
	Project     *ProjectRef `json:"project,omitempty"`
}

// ExportEntry is one ready-to-upload payload in the target bulk-import
// schema. Exactly one of Key or Fields.Project is set: a populated key
// updates an existing issue, an empty key with a project creates a new
// one. Field names must match the target API's documented import
// format exactly.
type ExportEntry struct {
	Key           string      `json:"key"`
	ID            string      `json:"id"`
	Fields        EntryFields `json:"fields"`
	Steps         []Step      `json:"steps"`
	Preconditions []string    `json:"xray_preconditions"`
	TestSets      []string    `json:"xray_test_sets,omitempty"`
	TestType      string      `json:"xray_testtype"`
}

// CreateNew reports whether the entry creates a new issue on upload.
func (e ExportEntry) CreateNew() bool {
	return e.Key == "" && e.Fields.Project != nil
}

// Skip names one record excluded from a batch and the reason, so the
// caller can report it without re-deriving the logic.
type Skip struct {
	RecordID string `json:"record_id"`
	Reason   string `json:"reason"`
}

// ExportBatch is the finalized output of one planning pass. Entry
// order is stable: it follows the original selection order, so
// identical inputs always produce a byte-identical payload. Nothing is
// persisted across runs beyond what the caller writes out.
type ExportBatch struct {
	Entries []ExportEntry `json:"entries"`
	Skips   []Skip        `json:"skips,omitempty"`

	// Missing maps record ids to attachments that still need upload.
	// Attachments on a create-new entry cannot be uploaded until the
	// create call returns a key; that ordering is the caller's
	// responsibility.
	Missing map[string][]AttachmentRef `json:"missing_attachments,omitempty"`
}

// Planned returns the number of entries in the batch.
func (b *ExportBatch) Planned() int { return len(b.Entries) }

// Creates returns the number of entries that create new issues.
func (b *ExportBatch) Creates() int {
	n := 0
	for _, e := range b.Entries {
		if e.CreateNew() {
			n++
		}
	}
	return n
}

// Skipped returns the number of records excluded from the batch.
func (b *ExportBatch) Skipped() int { return len(b.Skips) }

// Payload serializes the batch entries to the target import format.
func (b *ExportBatch) Payload() ([]byte, error) {
	out, err := json.MarshalIndent(b.Entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export payload: %w", err)
	}
	return out, nil
}
