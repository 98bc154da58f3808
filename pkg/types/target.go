package types

// TargetAttachment is one attachment the target instance already holds
// for an issue key.
type TargetAttachment struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// TargetRecord is one record already present on the target instance.
type TargetRecord struct {
	Key         string             `json:"key"`
	Summary     string             `json:"summary"`
	Attachments []TargetAttachment `json:"attachments,omitempty"`
}

// TargetIndex is a read-only snapshot of records already present on
// the target instance, keyed by issue key and by normalized summary.
// Rebuilt per session by the index-builder collaborator; never mutated
// by the core. Staleness is the builder's concern.
type TargetIndex struct {
	byKey     map[string]TargetRecord
	bySummary map[string][]string
}

// NewTargetIndex builds an index over the given snapshot records.
// Records without a key are ignored.
func NewTargetIndex(records []TargetRecord) *TargetIndex {
	idx := &TargetIndex{
		byKey:     make(map[string]TargetRecord, len(records)),
		bySummary: make(map[string][]string, len(records)),
	}
	for _, rec := range records {
		if rec.Key == "" {
			continue
		}
		idx.byKey[rec.Key] = rec
		norm := NormalizeSummary(rec.Summary)
		if norm != "" {
			idx.bySummary[norm] = append(idx.bySummary[norm], rec.Key)
		}
	}
	return idx
}

// ByKey returns the target record for an issue key.
func (idx *TargetIndex) ByKey(key string) (TargetRecord, bool) {
	rec, ok := idx.byKey[key]
	return rec, ok
}

// KeysBySummary returns the keys of all target records whose
// normalized summary equals norm, in snapshot order.
func (idx *TargetIndex) KeysBySummary(norm string) []string {
	return idx.bySummary[norm]
}

// AttachmentsFor returns the attachments the target already holds for
// an issue key. Returns nil for unknown keys.
func (idx *TargetIndex) AttachmentsFor(key string) []TargetAttachment {
	return idx.byKey[key].Attachments
}

// Len returns the number of indexed target records.
func (idx *TargetIndex) Len() int {
	return len(idx.byKey)
}
