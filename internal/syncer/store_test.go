package syncer

import (
	"testing"

	"taxtrack/internal/model"
	"taxtrack/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchRecordUpdatesResidentEntriesOnly(t *testing.T) {
	store := NewStore()
	rec := testRecord()
	other := testRecord()
	other.Build = "globex"

	store.setDetail(rec)
	store.setList("with-record", ListEntry{Records: []service.TaxRecordResponse{other, rec}, Total: 2})
	store.setList("without-record", ListEntry{Records: []service.TaxRecordResponse{other}, Total: 1})

	updated := paidWHT(rec)
	store.patchRecord(updated)

	detail, ok := store.Detail(rec.Key())
	require.True(t, ok)
	assert.Equal(t, model.StatusPaid, detail.WHTEffectiveStatus)

	entry, ok := store.List("with-record")
	require.True(t, ok)
	assert.Equal(t, model.StatusPaid, entry.Records[1].WHTEffectiveStatus)
	assert.Equal(t, model.Status(""), entry.Records[0].WHTEffectiveStatus)

	// A list the record is not resident in is left for the refetch sequence.
	entry, ok = store.List("without-record")
	require.True(t, ok)
	require.Len(t, entry.Records, 1)
	assert.Equal(t, other.ID, entry.Records[0].ID)
}

func TestInvalidateDetail(t *testing.T) {
	store := NewStore()
	rec := testRecord()
	store.setDetail(rec)

	store.invalidateDetail(rec.Key())
	_, ok := store.Detail(rec.Key())
	assert.False(t, ok)
}
