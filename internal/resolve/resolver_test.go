package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/besa-qa/xmigrate/pkg/types"
)

func newIndex() *types.TargetIndex {
	return types.NewTargetIndex([]types.TargetRecord{
		{Key: "PROJ-42", Summary: "Login with valid credentials"},
		{Key: "PROJ-50", Summary: "Reset password via email"},
		{Key: "PROJ-51", Summary: "Duplicate summary"},
		{Key: "PROJ-52", Summary: "duplicate SUMMARY"},
	})
}

func TestAutomaticExactMatch(t *testing.T) {
	r, err := New("")
	require.NoError(t, err)
	rec := &types.TestRecord{ID: "1", Summary: "login with VALID credentials"}

	result, err := r.Resolve(rec, newIndex(), Automatic, "")

	require.NoError(t, err)
	assert.Equal(t, OutcomeResolved, result.Outcome)
	assert.Equal(t, "PROJ-42", result.Key)
	assert.Equal(t, types.StateResolved, rec.Resolution.State)
}

func TestAutomaticMatchesThroughWikiMarkup(t *testing.T) {
	r, err := New("")
	require.NoError(t, err)
	// Source summaries carry tracker markup; target summaries are plain.
	rec := &types.TestRecord{ID: "1", Summary: "*Login* with _valid_ credentials"}

	result, err := r.Resolve(rec, newIndex(), Automatic, "")

	require.NoError(t, err)
	assert.Equal(t, OutcomeResolved, result.Outcome)
	assert.Equal(t, "PROJ-42", result.Key)
}

func TestAutomaticNeverGuesses(t *testing.T) {
	tests := []struct {
		name    string
		summary string
		reason  string
	}{
		{
			name:    "partial overlap stays unresolved",
			summary: "Login with valid credentials and MFA",
			reason:  "no exact summary match on target",
		},
		{
			name:    "no match at all",
			summary: "something entirely different",
			reason:  "no exact summary match on target",
		},
		{
			name:    "ambiguous exact match stays unresolved",
			summary: "Duplicate Summary",
			reason:  "2 target records share this summary (PROJ-51, PROJ-52)",
		},
		{
			name:    "empty summary",
			summary: "",
			reason:  "record has no summary to match",
		},
	}

	r, err := New("")
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &types.TestRecord{ID: "1", Summary: tt.summary}

			result, err := r.Resolve(rec, newIndex(), Automatic, "")

			require.NoError(t, err, "unresolved is a state, not an error")
			assert.Equal(t, OutcomeUnresolved, result.Outcome)
			assert.Equal(t, tt.reason, result.Reason)
			assert.False(t, rec.Resolution.Decided())
		})
	}
}

func TestManualKeyFormat(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
		wantKey string
	}{
		{name: "valid key", key: "PROJ-7", wantKey: "PROJ-7"},
		{name: "lowercased input is normalized", key: "proj-7", wantKey: "PROJ-7"},
		{name: "surrounding whitespace trimmed", key: "  PROJ-7 ", wantKey: "PROJ-7"},
		{name: "empty key rejected", key: "", wantErr: true},
		{name: "missing number rejected", key: "PROJ-", wantErr: true},
		{name: "zero-padded number rejected", key: "PROJ-0", wantErr: true},
		{name: "no separator rejected", key: "PROJ7", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New("")
			require.NoError(t, err)
			rec := &types.TestRecord{ID: "1", Summary: "anything"}

			result, err := r.Resolve(rec, newIndex(), Manual, tt.key)

			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidKeyFormat)
				assert.Equal(t, OutcomeUnresolved, result.Outcome)
				assert.False(t, rec.Resolution.Decided(), "no state change on bad key")
			} else {
				require.NoError(t, err)
				assert.Equal(t, OutcomeUnverified, result.Outcome)
				assert.Equal(t, tt.wantKey, result.Key)
				assert.Equal(t, types.StateResolvedUnverified, rec.Resolution.State)
			}
		})
	}
}

func TestManualCustomPattern(t *testing.T) {
	r, err := New(`^QA-[0-9]+$`)
	require.NoError(t, err)
	rec := &types.TestRecord{ID: "1"}

	_, err = r.Resolve(rec, newIndex(), Manual, "PROJ-7")
	assert.ErrorIs(t, err, types.ErrInvalidKeyFormat)

	result, err := r.Resolve(rec, newIndex(), Manual, "QA-12")
	require.NoError(t, err)
	assert.Equal(t, "QA-12", result.Key)
}

func TestResolveIdempotent(t *testing.T) {
	r, err := New("")
	require.NoError(t, err)
	idx := newIndex()
	rec := &types.TestRecord{ID: "1", Summary: "Login with valid credentials"}

	first, err := r.Resolve(rec, idx, Automatic, "")
	require.NoError(t, err)
	second, err := r.Resolve(rec, idx, Automatic, "")
	require.NoError(t, err)

	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, first.Outcome, second.Outcome)
}

func TestResolvedKeyNeverFlipsBack(t *testing.T) {
	r, err := New("")
	require.NoError(t, err)
	rec := &types.TestRecord{ID: "1", Summary: "no match on target"}

	_, err = r.Resolve(rec, newIndex(), Manual, "PROJ-9")
	require.NoError(t, err)

	// Automatic resolution would find nothing, but the unverified key
	// must survive until an explicit reset.
	result, err := r.Resolve(rec, newIndex(), Automatic, "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnverified, result.Outcome)
	assert.Equal(t, "PROJ-9", result.Key)

	rec.ResetResolution()
	result, err = r.Resolve(rec, newIndex(), Automatic, "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnresolved, result.Outcome)
}

func TestCreateNew(t *testing.T) {
	r, err := New("")
	require.NoError(t, err)

	t.Run("explicit project", func(t *testing.T) {
		rec := &types.TestRecord{ID: "1"}
		result, err := r.CreateNew(rec, "proj")
		require.NoError(t, err)
		assert.Equal(t, OutcomeCreateNew, result.Outcome)
		assert.Equal(t, "PROJ", rec.Resolution.ProjectKey)
	})

	t.Run("project inferred from source key", func(t *testing.T) {
		rec := &types.TestRecord{ID: "2", SourceKey: "OLD-33"}
		result, err := r.CreateNew(rec, "")
		require.NoError(t, err)
		assert.Equal(t, OutcomeCreateNew, result.Outcome)
		assert.Equal(t, "OLD", rec.Resolution.ProjectKey)
	})

	t.Run("no project detectable", func(t *testing.T) {
		rec := &types.TestRecord{ID: "3"}
		result, err := r.CreateNew(rec, "")
		assert.ErrorIs(t, err, types.ErrInvalidKeyFormat)
		assert.Equal(t, OutcomeUnresolved, result.Outcome)
		assert.False(t, rec.Resolution.Decided())
	})

	t.Run("idempotent on decided record", func(t *testing.T) {
		rec := &types.TestRecord{ID: "4"}
		require.NoError(t, rec.Resolve("PROJ-1"))
		result, err := r.CreateNew(rec, "PROJ")
		require.NoError(t, err)
		assert.Equal(t, OutcomeResolved, result.Outcome, "prior decision wins")
	})
}
