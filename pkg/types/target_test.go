package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSummary(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercase unchanged", in: "login with valid credentials", want: "login with valid credentials"},
		{name: "case folded", in: "Login With VALID Credentials", want: "login with valid credentials"},
		{name: "whitespace collapsed", in: "  login \t with  valid\ncredentials ", want: "login with valid credentials"},
		{name: "empty", in: "", want: ""},
		{name: "whitespace only", in: " \t ", want: ""},
		{name: "bold and italic stripped", in: "*Login* with _valid_ credentials", want: "login with valid credentials"},
		{name: "heading and monospace stripped", in: "h2. Login with {{valid}} credentials", want: "login with valid credentials"},
		{name: "link keeps label", in: "Login via [SSO|https://example.com]", want: "login via sso"},
		{name: "embedded image removed", in: "Login screen !shot.png! check", want: "login screen check"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSummary(tt.in))
		})
	}
}

func TestTargetIndexLookups(t *testing.T) {
	idx := NewTargetIndex([]TargetRecord{
		{Key: "PROJ-42", Summary: "Login with valid credentials", Attachments: []TargetAttachment{{Filename: "a.png", Size: 100}}},
		{Key: "PROJ-43", Summary: "login with VALID credentials"},
		{Key: "PROJ-44", Summary: "logout"},
		{Summary: "keyless snapshot rows are ignored"},
	})

	assert.Equal(t, 3, idx.Len())

	rec, ok := idx.ByKey("PROJ-44")
	assert.True(t, ok)
	assert.Equal(t, "logout", rec.Summary)

	_, ok = idx.ByKey("PROJ-999")
	assert.False(t, ok)

	// Both records fold to the same normalized summary.
	keys := idx.KeysBySummary("login with valid credentials")
	assert.Equal(t, []string{"PROJ-42", "PROJ-43"}, keys)

	assert.Len(t, idx.AttachmentsFor("PROJ-42"), 1)
	assert.Nil(t, idx.AttachmentsFor("PROJ-999"))
}
