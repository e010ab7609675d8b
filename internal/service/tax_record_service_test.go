package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"taxtrack/internal/apperr"
	"taxtrack/internal/model"
	"taxtrack/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecordRepo struct {
	rec        *model.MonthlyTaxRecord
	updates    []map[string]interface{}
	lastFilter repository.TaxRecordFilter
}

func (f *fakeRecordRepo) FindByID(_ context.Context, id uuid.UUID) (*model.MonthlyTaxRecord, error) {
	if f.rec == nil || f.rec.ID != id {
		return nil, errors.New("record not found")
	}
	rec := *f.rec
	return &rec, nil
}

func (f *fakeRecordRepo) FindByKey(context.Context, model.RecordKey) (*model.MonthlyTaxRecord, error) {
	rec := *f.rec
	return &rec, nil
}

func (f *fakeRecordRepo) List(_ context.Context, filter repository.TaxRecordFilter) ([]model.MonthlyTaxRecord, int64, error) {
	f.lastFilter = filter
	return []model.MonthlyTaxRecord{*f.rec}, 1, nil
}

func (f *fakeRecordRepo) ListByPeriod(context.Context, int, int) ([]model.MonthlyTaxRecord, error) {
	return []model.MonthlyTaxRecord{*f.rec}, nil
}

func (f *fakeRecordRepo) UpdateFields(_ context.Context, _ uuid.UUID, fields map[string]interface{}) error {
	f.updates = append(f.updates, fields)
	return nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
	logErr  error
}

func (f *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	if f.logErr != nil {
		return f.logErr
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(context.Context, int, int) ([]model.AuditLog, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}

type fakeTxManager struct {
	calls int
}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	f.calls++
	return fn(ctx)
}

func savableRecord() *model.MonthlyTaxRecord {
	rec := &model.MonthlyTaxRecord{
		ID:            uuid.New(),
		Build:         "acme",
		CompanyName:   "Acme Co., Ltd.",
		VATRegistered: true,
		TaxYear:       2026,
		TaxMonth:      2,
	}
	for _, key := range model.AllSubFormKeys {
		rec.SubForms.ByKey(key).Status = model.StatusNotSubmitted
	}
	return rec
}

func newTestService(rec *model.MonthlyTaxRecord) (*taxRecordService, *fakeRecordRepo, *fakeAuditRepo, *fakeTxManager) {
	recordRepo := &fakeRecordRepo{rec: rec}
	auditRepo := &fakeAuditRepo{}
	txManager := &fakeTxManager{}
	svc := &taxRecordService{
		recordRepo: recordRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		now:        func() time.Time { return time.Date(2026, 2, 15, 14, 30, 0, 0, time.UTC) },
	}
	return svc, recordRepo, auditRepo, txManager
}

func TestSaveWHTTabStagesOnlyWHTColumns(t *testing.T) {
	rec := savableRecord()
	svc, recordRepo, auditRepo, txManager := newTestService(rec)

	_, err := svc.Save(context.Background(), model.ActorStatusManager, uuid.New(), rec.ID, SaveRecordRequest{
		Tab: "wht",
		WHT: &ObligationSection{Status: model.StatusPaid},
	})
	require.NoError(t, err)

	require.Len(t, recordRepo.updates, 1)
	fields := recordRepo.updates[0]
	assert.Equal(t, "paid", fields["wht_status"])
	for name := range fields {
		assert.NotContains(t, name, "vat_", "WHT save leaked into %s", name)
	}

	assert.Equal(t, 1, txManager.calls)
	require.Len(t, auditRepo.entries, 1)
	assert.Equal(t, model.ActionUpdateWHT, auditRepo.entries[0].Action)
	assert.Equal(t, rec.ID.String(), auditRepo.entries[0].EntityID)
	assert.Equal(t, "acme:2026:02", auditRepo.entries[0].EntityName)
}

func TestSaveVATDraftCompletedStampsWithoutSentToCustomer(t *testing.T) {
	rec := savableRecord()
	svc, recordRepo, _, _ := newTestService(rec)

	_, err := svc.Save(context.Background(), model.ActorStatusManager, uuid.New(), rec.ID, SaveRecordRequest{
		Tab: "vat",
		VAT: &VATSection{ObligationSection: ObligationSection{Status: model.StatusDraftCompleted}},
	})
	require.NoError(t, err)

	require.Len(t, recordRepo.updates, 1)
	fields := recordRepo.updates[0]
	assert.Equal(t, "draft_completed", fields["vat_status"])
	assert.Contains(t, fields, "vat_draft_completed_at")
	assert.NotContains(t, fields, "vat_sent_to_customer_at")
}

func TestSaveFilerRejectedBeforeAnyWrite(t *testing.T) {
	rec := savableRecord()
	svc, recordRepo, auditRepo, txManager := newTestService(rec)

	_, err := svc.Save(context.Background(), model.ActorFiler, uuid.New(), rec.ID, SaveRecordRequest{
		Tab: "wht",
		WHT: &ObligationSection{Status: model.StatusPaid},
	})

	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Empty(t, recordRepo.updates)
	assert.Empty(t, auditRepo.entries)
	assert.Zero(t, txManager.calls)
}

func TestSaveValidationFailurePersistsNothing(t *testing.T) {
	rec := savableRecord()
	rec.SubForms.PND3.Status = ""
	svc, recordRepo, _, txManager := newTestService(rec)

	_, err := svc.Save(context.Background(), model.ActorStatusManager, uuid.New(), rec.ID, SaveRecordRequest{
		Tab: "wht",
		WHT: &ObligationSection{Status: model.StatusPaid},
	})

	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Empty(t, recordRepo.updates)
	assert.Zero(t, txManager.calls)
}

func TestSaveAuditFailureFailsTheSave(t *testing.T) {
	rec := savableRecord()
	svc, _, auditRepo, _ := newTestService(rec)
	auditRepo.logErr = errors.New("audit insert failed")

	_, err := svc.Save(context.Background(), model.ActorStatusManager, uuid.New(), rec.ID, SaveRecordRequest{
		Tab: "wht",
		WHT: &ObligationSection{Status: model.StatusPaid},
	})
	assert.Error(t, err)
}

func TestSaveGeneralTabNeverTouchesOriginalAssignments(t *testing.T) {
	rec := savableRecord()
	svc, recordRepo, auditRepo, _ := newTestService(rec)

	newName := "Acme Holdings"
	assignee := uuid.New()
	_, err := svc.Save(context.Background(), model.ActorStatusManager, uuid.New(), rec.ID, SaveRecordRequest{
		Tab: "general",
		General: &GeneralSection{
			CompanyName: &newName,
			WHTFiler:    &assignee,
		},
	})
	require.NoError(t, err)

	require.Len(t, recordRepo.updates, 1)
	fields := recordRepo.updates[0]
	assert.Equal(t, newName, fields["company_name"])
	assert.Equal(t, assignee, fields["wht_filer_current"])
	assert.NotContains(t, fields, "wht_filer_original")

	require.Len(t, auditRepo.entries, 1)
	assert.Equal(t, model.ActionUpdateGeneralInfo, auditRepo.entries[0].Action)
}

func TestSaveVATUnregisteredCompanyRejected(t *testing.T) {
	rec := savableRecord()
	rec.VATRegistered = false
	svc, recordRepo, _, _ := newTestService(rec)

	_, err := svc.Save(context.Background(), model.ActorStatusManager, uuid.New(), rec.ID, SaveRecordRequest{
		Tab: "vat",
		VAT: &VATSection{ObligationSection: ObligationSection{Status: model.StatusPaid}},
	})

	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Empty(t, recordRepo.updates)
}

func TestListRecordsFilersAreScopedToTheirOwnRecords(t *testing.T) {
	rec := savableRecord()
	recordRepo := &fakeRecordRepo{rec: rec}
	svc := &taxRecordService{recordRepo: recordRepo, now: time.Now}

	me := uuid.New()
	records, total, err := svc.ListRecords(context.Background(), model.ActorFiler, me, ListTaxRecordsFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, rec.ID, records[0].ID)

	require.NotNil(t, recordRepo.lastFilter.AssigneeID)
	assert.Equal(t, me, *recordRepo.lastFilter.AssigneeID)
}
