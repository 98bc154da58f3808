package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/besa-qa/xmigrate/pkg/types"
)

func TestPackageResolvedRecord(t *testing.T) {
	rec := &types.TestRecord{ID: "1", Summary: "parameterized"}
	require.NoError(t, rec.Resolve("PROJ-7"))

	datasets := map[string]*types.Dataset{
		"1": {
			RecordID: "1",
			Columns:  []string{"user", "pass"},
			Rows:     [][]string{{"a", "b"}},
		},
	}

	files, err := Package([]*types.TestRecord{rec}, datasets)
	require.NoError(t, err)

	require.Len(t, files, 1)
	content, ok := files["dataset_PROJ-7.csv"]
	require.True(t, ok)
	assert.Equal(t, "user,pass\na,b\n", string(content))
}

func TestPackageUnresolvedPlaceholder(t *testing.T) {
	rec := &types.TestRecord{ID: "42", Summary: "no key yet"}
	datasets := map[string]*types.Dataset{
		"42": {RecordID: "42", Columns: []string{"x"}, Rows: [][]string{{"1"}}},
	}

	files, err := Package([]*types.TestRecord{rec}, datasets)
	require.NoError(t, err)

	_, ok := files["dataset_UNRESOLVED_42.csv"]
	assert.True(t, ok)
}

func TestPackageSkipsRecordsWithoutDatasets(t *testing.T) {
	rec := &types.TestRecord{ID: "1", Summary: "plain"}

	files, err := Package([]*types.TestRecord{rec}, map[string]*types.Dataset{})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestPackagePreservesColumnOrder(t *testing.T) {
	rec := &types.TestRecord{ID: "1", Summary: "combinations"}
	require.NoError(t, rec.Resolve("PROJ-9"))

	datasets := map[string]*types.Dataset{
		"1": {
			RecordID: "1",
			Columns:  []string{"zeta", "alpha*", "mid"},
			Rows:     [][]string{{"1", "2", "3"}, {"4", "5"}},
		},
	}

	files, err := Package([]*types.TestRecord{rec}, datasets)
	require.NoError(t, err)

	content := string(files["dataset_PROJ-9.csv"])
	assert.Equal(t, "zeta,alpha*,mid\n1,2,3\n4,5,\n", content,
		"column order preserved, short rows padded")
}

func TestPackageRejectsFilenameCollisions(t *testing.T) {
	first := &types.TestRecord{ID: "1", Summary: "one"}
	require.NoError(t, first.Resolve("PROJ-7"))
	second := &types.TestRecord{ID: "2", Summary: "two"}
	require.NoError(t, second.ResolveUnverified("PROJ-7"))

	datasets := map[string]*types.Dataset{
		"1": {RecordID: "1", Columns: []string{"a"}, Rows: [][]string{{"x"}}},
		"2": {RecordID: "2", Columns: []string{"a"}, Rows: [][]string{{"y"}}},
	}

	_, err := Package([]*types.TestRecord{first, second}, datasets)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset_PROJ-7.csv")
	assert.Contains(t, err.Error(), "1")
	assert.Contains(t, err.Error(), "2")
}

func TestPackageDeterministic(t *testing.T) {
	rec := &types.TestRecord{ID: "1", Summary: "stable"}
	require.NoError(t, rec.Resolve("PROJ-1"))
	datasets := map[string]*types.Dataset{
		"1": {RecordID: "1", Columns: []string{"a", "b"}, Rows: [][]string{{"x", "y"}}},
	}

	first, err := Package([]*types.TestRecord{rec}, datasets)
	require.NoError(t, err)
	second, err := Package([]*types.TestRecord{rec}, datasets)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
