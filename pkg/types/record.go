package types

import (
	"errors"
	"strings"
)

// Source loading errors. Loading is tolerant: a malformed file or
// record is reported and skipped, and loading continues for the rest.
var (
	ErrMalformedInput       = errors.New("malformed source input")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrRecordNotFound       = errors.New("record not found")
)

// Test types recognized by the target import schema.
const (
	TestTypeManual   = "Manual"
	TestTypeGeneric  = "Generic"
	TestTypeCucumber = "Cucumber"
)

// Step is a single test step. Step order within a record is
// semantically meaningful and must round-trip exactly.
type Step struct {
	Action   string `json:"action"`
	Data     string `json:"data"`
	Expected string `json:"result"`
}

// TestRecord is one exportable test-management entity (test case,
// plan, or set) loaded from a source backup. The identity is the
// source-side internal id, which is stable across reloads within a
// session. The Resolution field is the only mutable part: it is
// written once per session by the key resolver and never overwritten
// without an explicit reset.
type TestRecord struct {
	ID              string
	Summary         string
	Description     string
	TestType        string
	Steps           []Step
	PreconditionIDs []string
	Attachments     []AttachmentRef

	// SourceKey is the issue key the record carried on the source
	// instance, when known. Used only as a hint (project prefix for
	// create-new decisions); it is never trusted as a target key.
	SourceKey string

	Resolution Resolution
}

// Exportable reports whether the record qualifies for export. Records
// without a non-empty summary load fine but are flagged and excluded
// from any automatic batch.
func (r *TestRecord) Exportable() bool {
	return strings.TrimSpace(r.Summary) != ""
}

// Validate checks export requirements on a loaded record.
// Returns ErrMissingRequiredField if the summary is empty.
func (r *TestRecord) Validate() error {
	if !r.Exportable() {
		return ErrMissingRequiredField
	}
	return nil
}

// ProjectPrefix returns the project portion of the record's source
// key, or "" if the key carries none.
func (r *TestRecord) ProjectPrefix() string {
	if i := strings.IndexByte(r.SourceKey, '-'); i > 0 {
		return r.SourceKey[:i]
	}
	return ""
}
