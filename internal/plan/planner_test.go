package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/besa-qa/xmigrate/pkg/types"
)

func resolvedRecord(t *testing.T, id, summary, key string) *types.TestRecord {
	t.Helper()
	rec := &types.TestRecord{ID: id, Summary: summary, TestType: types.TestTypeManual}
	require.NoError(t, rec.Resolve(key))
	return rec
}

func TestBuildPreservesStepOrder(t *testing.T) {
	rec := resolvedRecord(t, "1", "ordered steps", "PROJ-1")
	rec.Steps = []types.Step{
		{Action: "S1", Data: "d1", Expected: "r1"},
		{Action: "S2", Data: "d2", Expected: "r2"},
		{Action: "S3", Data: "d3", Expected: "r3"},
	}

	batch := Build([]*types.TestRecord{rec}, nil, Lookup{})

	require.Len(t, batch.Entries, 1)
	steps := batch.Entries[0].Steps
	require.Len(t, steps, 3)
	assert.Equal(t, "S1", steps[0].Action)
	assert.Equal(t, "S2", steps[1].Action)
	assert.Equal(t, "S3", steps[2].Action)
}

func TestBuildExcludesUnresolved(t *testing.T) {
	a := resolvedRecord(t, "a", "first", "PROJ-1")
	b := &types.TestRecord{ID: "b", Summary: "second"} // unresolved
	c := resolvedRecord(t, "c", "third", "PROJ-3")

	batch := Build([]*types.TestRecord{a, b, c}, nil, Lookup{})

	assert.Equal(t, 2, batch.Planned())
	require.Len(t, batch.Skips, 1)
	assert.Equal(t, "b", batch.Skips[0].RecordID)
	assert.Equal(t, "unresolved: no target key decision", batch.Skips[0].Reason)
}

func TestBuildExcludesMissingSummary(t *testing.T) {
	rec := &types.TestRecord{ID: "x"}
	require.NoError(t, rec.MarkCreateNew("PROJ"))

	batch := Build([]*types.TestRecord{rec}, nil, Lookup{})

	assert.Zero(t, batch.Planned())
	require.Len(t, batch.Skips, 1)
	assert.Equal(t, "missing required field: summary", batch.Skips[0].Reason)
}

func TestBuildCreateNewEntry(t *testing.T) {
	rec := &types.TestRecord{ID: "7", Summary: "brand new", TestType: types.TestTypeGeneric}
	require.NoError(t, rec.MarkCreateNew("PROJ"))

	batch := Build([]*types.TestRecord{rec}, nil, Lookup{})

	require.Len(t, batch.Entries, 1)
	entry := batch.Entries[0]
	assert.Empty(t, entry.Key)
	require.NotNil(t, entry.Fields.Project)
	assert.Equal(t, "PROJ", entry.Fields.Project.Key)
	assert.True(t, entry.CreateNew())
	assert.Equal(t, 1, batch.Creates())
}

func TestBuildLinksPreconditionsAndTestSets(t *testing.T) {
	rec := resolvedRecord(t, "1", "linked", "PROJ-1")
	rec.PreconditionIDs = []string{"900", "901", "902"}

	lk := Lookup{
		KeyByID: map[string]string{
			"900": "PROJ-90",
			"902": "PROJ-92",
			"55":  "PROJ-55",
			// 901 has no known key and is dropped.
		},
		SetsByRecord: map[string][]string{"1": {"55"}},
	}

	batch := Build([]*types.TestRecord{rec}, nil, lk)

	require.Len(t, batch.Entries, 1)
	assert.Equal(t, []string{"PROJ-90", "PROJ-92"}, batch.Entries[0].Preconditions)
	assert.Equal(t, []string{"PROJ-55"}, batch.Entries[0].TestSets)
}

func TestBuildAttachesMissingAttachments(t *testing.T) {
	rec := resolvedRecord(t, "1", "with attachments", "PROJ-1")
	missing := map[string][]types.AttachmentRef{
		"1":       {{RecordID: "1", Filename: "b.png", Size: 50}},
		"ignored": {{RecordID: "ignored", Filename: "x.png", Size: 1}},
	}

	batch := Build([]*types.TestRecord{rec}, missing, Lookup{})

	require.Len(t, batch.Missing, 1)
	assert.Equal(t, "b.png", batch.Missing["1"][0].Filename)
}

func TestBuildDeterministic(t *testing.T) {
	a := resolvedRecord(t, "a", "first", "PROJ-1")
	a.Steps = []types.Step{{Action: "S1"}, {Action: "S2"}}
	b := &types.TestRecord{ID: "b", Summary: "second"}
	c := resolvedRecord(t, "c", "third", "PROJ-3")
	selected := []*types.TestRecord{a, b, c}
	missing := map[string][]types.AttachmentRef{
		"a": {{RecordID: "a", Filename: "a.png", Size: 10}},
	}

	first := Build(selected, missing, Lookup{})
	second := Build(selected, missing, Lookup{})

	p1, err := first.Payload()
	require.NoError(t, err)
	p2, err := second.Payload()
	require.NoError(t, err)
	assert.Equal(t, p1, p2, "identical inputs produce byte-identical payloads")

	// Entry order follows selection order.
	assert.Equal(t, "a", first.Entries[0].ID)
	assert.Equal(t, "c", first.Entries[1].ID)
}

func TestSummary(t *testing.T) {
	a := resolvedRecord(t, "a", "first", "PROJ-1")
	b := &types.TestRecord{ID: "b", Summary: "second"}
	n := &types.TestRecord{ID: "n", Summary: "new one"}
	require.NoError(t, n.MarkCreateNew("PROJ"))

	batch := Build([]*types.TestRecord{a, b, n}, nil, Lookup{})

	assert.Equal(t, "2 planned (1 new), 1 skipped", Summary(batch))
}
