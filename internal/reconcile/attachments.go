// Package reconcile diffs a record's declared attachments against what
// the target instance already holds. It is a pure diff: the actual
// transfer is the uploader collaborator's job.
package reconcile

import (
	"regexp"

	"github.com/besa-qa/xmigrate/pkg/types"
)

// attachmentIdentity is the comparison key for reconciliation.
type attachmentIdentity struct {
	filename string
	size     int64
}

// Missing returns the attachments declared by rec that the target does
// not already hold for the record's resolved key, compared by
// (filename, size). A record without a resolved key keeps every
// attachment: presence cannot be assumed on an unmatched target
// record. Declarations are deduplicated before the diff so redundant
// upload attempts never reach the caller.
func Missing(rec *types.TestRecord, idx *types.TargetIndex) []types.AttachmentRef {
	declared := types.DedupeAttachments(rec.Attachments)
	if !rec.Resolution.HasKey() {
		return declared
	}

	held := make(map[attachmentIdentity]bool)
	for _, att := range idx.AttachmentsFor(rec.Resolution.Key) {
		held[attachmentIdentity{att.Filename, att.Size}] = true
	}

	missing := make([]types.AttachmentRef, 0, len(declared))
	for _, ref := range declared {
		if held[attachmentIdentity{ref.Filename, ref.Size}] {
			continue
		}
		missing = append(missing, ref)
	}
	return missing
}

// embeddedAttachmentRe matches attachment references embedded in step
// text, e.g. !xray-attachment://3f2a...-id! with an optional |label.
var embeddedAttachmentRe = regexp.MustCompile(`xray-attachment://([a-f0-9-]+)`)

// EmbeddedIDs returns the attachment ids referenced inside the
// record's step text, in first-appearance order without duplicates.
// These reference files by id rather than filename, so they are
// reported separately from the (filename, size) diff; the caller
// stages them for upload alongside the missing set.
func EmbeddedIDs(rec *types.TestRecord) []string {
	var ids []string
	seen := make(map[string]bool)
	collect := func(text string) {
		for _, m := range embeddedAttachmentRe.FindAllStringSubmatch(text, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				ids = append(ids, m[1])
			}
		}
	}
	for _, step := range rec.Steps {
		collect(step.Action)
		collect(step.Data)
		collect(step.Expected)
	}
	return ids
}
