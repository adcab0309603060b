package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryLifecycle(t *testing.T) {
	e := &JournalEntry{ID: "e1", Number: "JE-20250110-0001", Date: MustDate("2025-01-10"), Status: StatusDraft,
		Lines: []Line{{Account: "1000", Debit: dec("10")}, {Account: "4000", Credit: dec("10")}}}

	assert.ErrorIs(t, e.Post(time.Now()), ErrInvalidTransition)
	require.NoError(t, e.Approve())
	assert.ErrorIs(t, e.Approve(), ErrInvalidTransition)
	require.NoError(t, e.Post(time.Now()))
	assert.Equal(t, StatusPosted, e.Status)
	assert.NotNil(t, e.PostedAt)
	assert.ErrorIs(t, e.Approve(), ErrInvalidTransition)
	assert.ErrorIs(t, e.Post(time.Now()), ErrInvalidTransition)
}

func TestEntryRows(t *testing.T) {
	e := &JournalEntry{ID: "e1", Number: "JE-1", Reference: "SI-9", Memo: "sale", Date: MustDate("2025-01-10"), Status: StatusPosted,
		Lines: []Line{{Account: "1000", Debit: dec("10")}, {Account: "4000", Credit: dec("10"), Memo: "line memo"}, {Account: "5000"}}}

	rows := e.Rows()
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.True(t, r.Locked)
		assert.Equal(t, "e1", r.OriginEntryID)
		assert.Equal(t, "JE-1", r.EntryNumber)
		assert.Equal(t, "SI-9", r.Reference)
		assert.NoError(t, r.Validate())
	}
	assert.Equal(t, "sale", rows[0].Memo)
	assert.Equal(t, "line memo", rows[1].Memo)
}
