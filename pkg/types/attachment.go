package types

// AttachmentRef describes one file attached to a record. Identity is
// (owning record id, filename). Immutable once loaded.
type AttachmentRef struct {
	RecordID string `json:"record_id"`
	Filename string `json:"filename"`
	Path     string `json:"path,omitempty"`
	Size     int64  `json:"size"`
}

// DedupeAttachments removes entries that repeat a (filename, size)
// pair, preserving first-seen order. Duplicate declarations would
// otherwise cause redundant upload attempts.
func DedupeAttachments(refs []AttachmentRef) []AttachmentRef {
	type identity struct {
		filename string
		size     int64
	}
	seen := make(map[identity]bool, len(refs))
	out := make([]AttachmentRef, 0, len(refs))
	for _, ref := range refs {
		id := identity{ref.Filename, ref.Size}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, ref)
	}
	return out
}
