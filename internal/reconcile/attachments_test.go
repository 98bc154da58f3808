package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/besa-qa/xmigrate/pkg/types"
)

func targetWith(key string, atts ...types.TargetAttachment) *types.TargetIndex {
	return types.NewTargetIndex([]types.TargetRecord{
		{Key: key, Summary: "whatever", Attachments: atts},
	})
}

func TestMissingDiff(t *testing.T) {
	rec := &types.TestRecord{
		ID: "1",
		Attachments: []types.AttachmentRef{
			{RecordID: "1", Filename: "a.png", Size: 100},
			{RecordID: "1", Filename: "b.png", Size: 50},
		},
	}
	require.NoError(t, rec.Resolve("PROJ-9"))

	idx := targetWith("PROJ-9", types.TargetAttachment{Filename: "a.png", Size: 100})

	missing := Missing(rec, idx)

	require.Len(t, missing, 1)
	assert.Equal(t, "b.png", missing[0].Filename)
}

func TestMissingSizeMismatchCountsAsMissing(t *testing.T) {
	rec := &types.TestRecord{
		ID:          "1",
		Attachments: []types.AttachmentRef{{RecordID: "1", Filename: "a.png", Size: 100}},
	}
	require.NoError(t, rec.Resolve("PROJ-9"))

	// Same filename, different size: not the same attachment.
	idx := targetWith("PROJ-9", types.TargetAttachment{Filename: "a.png", Size: 999})

	assert.Len(t, Missing(rec, idx), 1)
}

func TestMissingUnresolvedKeepsEverything(t *testing.T) {
	rec := &types.TestRecord{
		ID: "1",
		Attachments: []types.AttachmentRef{
			{RecordID: "1", Filename: "a.png", Size: 100},
			{RecordID: "1", Filename: "a.png", Size: 100},
			{RecordID: "1", Filename: "b.png", Size: 50},
		},
	}

	missing := Missing(rec, targetWith("PROJ-9"))

	assert.Len(t, missing, 2, "deduplicated, and all missing without a resolved key")
}

func TestMissingCreateNewKeepsEverything(t *testing.T) {
	rec := &types.TestRecord{
		ID:          "1",
		Attachments: []types.AttachmentRef{{RecordID: "1", Filename: "a.png", Size: 100}},
	}
	require.NoError(t, rec.MarkCreateNew("PROJ"))

	assert.Len(t, Missing(rec, targetWith("PROJ-9")), 1,
		"a not-yet-created record has nothing on the target")
}

func TestMissingEmptyDeclaration(t *testing.T) {
	rec := &types.TestRecord{ID: "1"}
	require.NoError(t, rec.Resolve("PROJ-9"))

	assert.Empty(t, Missing(rec, targetWith("PROJ-9")))
}

func TestEmbeddedIDs(t *testing.T) {
	rec := &types.TestRecord{
		ID: "1",
		Steps: []types.Step{
			{Action: "see !xray-attachment://aa11-22|screen.png!", Data: "", Expected: ""},
			{Action: "again !xray-attachment://aa11-22!", Data: "!xray-attachment://bb33!", Expected: "plain text"},
		},
	}

	assert.Equal(t, []string{"aa11-22", "bb33"}, EmbeddedIDs(rec))
	assert.Empty(t, EmbeddedIDs(&types.TestRecord{ID: "2"}))
}
