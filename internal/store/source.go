// Source-file decoding for the record store. The backup format is a
// set of JSON files per entity kind; field layouts follow the source
// system's export schema.
package store

import (
	"encoding/json"
	"fmt"
)

// flexID accepts both string and numeric ids. Backup generations
// differ: older archives emit numeric ids, newer ones strings.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

// sourceTest is one entry of a tests*.json file.
type sourceTest struct {
	ID              flexID             `json:"id"`
	TestVersionID   flexID             `json:"testVersionId"`
	Summary         string             `json:"summary"`
	Description     string             `json:"description"`
	Generic         string             `json:"generic"`
	Cucumber        string             `json:"cucumber"`
	Steps           []sourceStep       `json:"steps"`
	PreconditionIDs []flexID           `json:"preConditionTargetIssueIds"`
	Attachments     []sourceAttachment `json:"attachments"`
}

type sourceStep struct {
	Action string `json:"action"`
	Data   string `json:"data"`
	Result string `json:"result"`
}

type sourceAttachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// sourceTestFile is the envelope of a tests*.json file. Files may also
// contain a single bare test object.
type sourceTestFile struct {
	Tests []sourceTest `json:"tests"`
}

// sourceDataset is one entry of a datasets*.json file. Each row keys
// its cell values by parameter _id; positional projection happens at
// load time, in parameter order.
type sourceDataset struct {
	TestIssueID flexID             `json:"testIssueId"`
	Parameters  []sourceParameter  `json:"parameters"`
	Rows        []sourceDatasetRow `json:"rows"`
}

type sourceParameter struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	Combinations bool   `json:"combinations"`
}

// sourceDatasetRow keys cell values by parameter _id. Cells reuse the
// flexible id decoding: numeric cells appear in older backups.
type sourceDatasetRow struct {
	Values map[string]flexID `json:"values"`
}

type sourceDatasetFile struct {
	Datasets []sourceDataset `json:"datasets"`
}

// sourcePrecondition is one entry of a preconditions*.json file.
type sourcePrecondition struct {
	ID         flexID `json:"id"`
	Summary    string `json:"summary"`
	Definition string `json:"definition"`
}

type sourcePreconditionFile struct {
	Preconditions []sourcePrecondition `json:"preconditions"`
}

// sourceTestSet is one entry of a testSets*.json file.
type sourceTestSet struct {
	ID    flexID   `json:"id"`
	Tests []flexID `json:"tests"`
}

type sourceTestSetFile struct {
	TestSets []sourceTestSet `json:"testSets"`
}

// sourceTestPlan is one entry of a testPlans*.json file.
type sourceTestPlan struct {
	ID    flexID   `json:"id"`
	Tests []flexID `json:"tests"`
}

type sourceTestPlanFile struct {
	TestPlans []sourceTestPlan `json:"testPlans"`
}

// issueMeta is one entry of the issue-metadata lookup file, keyed by
// source internal id. Supplies the tracker key and issue fields the
// raw test export lacks.
type issueMeta struct {
	Key         string `json:"key"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	IssueType   string `json:"issuetype"`
}

// attachmentMetaFile is the envelope of a metadata_*.json attachment
// database file, mapping attachment ids to their file descriptors.
type attachmentMetaFile struct {
	AttachmentMetadata map[string]attachmentMeta `json:"attachment_metadata"`
}

type attachmentMeta struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// columnTitle renders a parameter as a CSV column title. Combination
// parameters carry a trailing asterisk in the source system's CSV
// convention.
func (p sourceParameter) columnTitle() string {
	if p.Combinations {
		return p.Name + "*"
	}
	return p.Name
}
