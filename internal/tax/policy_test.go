package tax

import (
	"testing"

	"taxtrack/internal/apperr"
	"taxtrack/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selectableOf(options []StatusOption) map[model.Status]bool {
	set := make(map[model.Status]bool)
	for _, opt := range options {
		if opt.Selectable {
			set[opt.Status] = true
		}
	}
	return set
}

func TestAllowedStatusesCoversFullEnum(t *testing.T) {
	for _, actor := range []model.ActorContext{model.ActorInspector, model.ActorStatusManager, model.ActorFiler} {
		options := AllowedStatuses(actor)
		require.Len(t, options, len(model.AllStatuses), string(actor))

		seen := make(map[model.Status]bool)
		for _, opt := range options {
			seen[opt.Status] = true
		}
		for _, s := range model.AllStatuses {
			assert.True(t, seen[s], "%s missing %s", actor, s)
		}
	}
}

func TestAllowedStatusesSelectableFirst(t *testing.T) {
	options := AllowedStatuses(model.ActorInspector)
	sawDisabled := false
	for _, opt := range options {
		if !opt.Selectable {
			sawDisabled = true
		} else {
			assert.False(t, sawDisabled, "selectable option %s after a disabled one", opt.Status)
		}
	}
	assert.True(t, sawDisabled)
}

func TestAllowedStatusesInspector(t *testing.T) {
	selectable := selectableOf(AllowedStatuses(model.ActorInspector))
	assert.Equal(t, map[model.Status]bool{
		model.StatusReceivedReceipt:  true,
		model.StatusPaid:             true,
		model.StatusPassed:           true,
		model.StatusNeedsCorrection:  true,
		model.StatusInquireCustomer:  true,
		model.StatusAdditionalReview: true,
		model.StatusNotSubmitted:     true,
	}, selectable)
}

func TestAllowedStatusesFiler(t *testing.T) {
	selectable := selectableOf(AllowedStatuses(model.ActorFiler))
	assert.Equal(t, map[model.Status]bool{
		model.StatusReceivedReceipt: true,
		model.StatusPaid:            true,
		model.StatusSentToCustomer:  true,
		model.StatusDraftCompleted:  true,
	}, selectable)
}

func TestAllowedStatusesManagerUnrestricted(t *testing.T) {
	selectable := selectableOf(AllowedStatuses(model.ActorStatusManager))
	assert.Len(t, selectable, len(model.AllStatuses))
}

func TestSubFormStatusesManagerBaseWithholdsReviewOutcomes(t *testing.T) {
	selectable := selectableOf(AllowedSubFormStatuses(model.ActorStatusManager, model.StatusNotStarted, model.StatusNotStarted))
	assert.False(t, selectable[model.StatusPendingRecheck])
	assert.False(t, selectable[model.StatusPassed])
	assert.Len(t, selectable, len(model.AllStatuses)-2)
}

func TestSubFormStatusesNeedsCorrectionUnlocksBoth(t *testing.T) {
	for _, sub := range []model.Status{model.StatusNeedsCorrection, model.StatusEdit} {
		selectable := selectableOf(AllowedSubFormStatuses(model.ActorStatusManager, sub, model.StatusNotStarted))
		assert.True(t, selectable[model.StatusPendingRecheck], string(sub))
		assert.True(t, selectable[model.StatusPassed], string(sub))
		assert.Len(t, selectable, len(model.AllStatuses), string(sub))
	}
}

func TestSubFormStatusesInquiryUnlocksRecheckOnly(t *testing.T) {
	for _, sub := range []model.Status{model.StatusInquireCustomer, model.StatusAdditionalReview} {
		selectable := selectableOf(AllowedSubFormStatuses(model.ActorStatusManager, sub, model.StatusNotStarted))
		assert.True(t, selectable[model.StatusPendingRecheck], string(sub))
		assert.False(t, selectable[model.StatusPassed], string(sub))
	}
}

func TestSubFormStatusesMainRecheckUnlocksAll(t *testing.T) {
	selectable := selectableOf(AllowedSubFormStatuses(model.ActorStatusManager, model.StatusNotStarted, model.StatusPendingRecheck))
	assert.Len(t, selectable, len(model.AllStatuses))
}

// Overlays never revoke a base permission.
func TestSubFormOverlaysAreAdditive(t *testing.T) {
	base := selectableOf(AllowedSubFormStatuses(model.ActorStatusManager, model.StatusNotStarted, model.StatusNotStarted))
	for _, sub := range []model.Status{model.StatusNeedsCorrection, model.StatusEdit, model.StatusInquireCustomer, model.StatusAdditionalReview} {
		overlay := selectableOf(AllowedSubFormStatuses(model.ActorStatusManager, sub, model.StatusNotStarted))
		for s := range base {
			assert.True(t, overlay[s], "%s revoked under %s", s, sub)
		}
	}
}

func TestSubFormStatusesInspectorAndFilerIgnoreOverlays(t *testing.T) {
	inspector := selectableOf(AllowedSubFormStatuses(model.ActorInspector, model.StatusNeedsCorrection, model.StatusPendingRecheck))
	assert.Equal(t, selectableOf(AllowedStatuses(model.ActorInspector)), inspector)

	filer := selectableOf(AllowedSubFormStatuses(model.ActorFiler, model.StatusNeedsCorrection, model.StatusPendingRecheck))
	assert.Equal(t, selectableOf(AllowedStatuses(model.ActorFiler)), filer)
}

// validRecord builds a record that passes every preparer-stage check.
func validRecord() *model.MonthlyTaxRecord {
	rec := &model.MonthlyTaxRecord{
		Build:    "acme",
		TaxYear:  2026,
		TaxMonth: 2,
	}
	for _, key := range model.AllSubFormKeys {
		rec.SubForms.ByKey(key).Status = model.StatusNotSubmitted
	}
	return rec
}

func TestValidateSaveSkipsNonManagers(t *testing.T) {
	rec := &model.MonthlyTaxRecord{} // every required field missing
	assert.NoError(t, ValidateSave(model.ActorInspector, rec))
	assert.NoError(t, ValidateSave(model.ActorFiler, rec))
}

func TestValidateSaveAcceptsCompleteRecord(t *testing.T) {
	assert.NoError(t, ValidateSave(model.ActorStatusManager, validRecord()))
}

func TestValidateSaveRequiresEverySubFormStatus(t *testing.T) {
	rec := validRecord()
	rec.SubForms.PND3.Status = ""

	err := ValidateSave(model.ActorStatusManager, rec)
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "PND.3 status")
}

func TestValidateSavePendingReviewNeedsAttachments(t *testing.T) {
	rec := validRecord()
	rec.SubForms.PND53.Status = model.StatusPendingReview

	err := ValidateSave(model.ActorStatusManager, rec)
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "PND.53 attachment count")

	one := 1
	rec.SubForms.PND53.AttachmentCount = &one
	assert.NoError(t, ValidateSave(model.ActorStatusManager, rec))
}

func TestValidateSaveVATRequirements(t *testing.T) {
	rec := validRecord()
	rec.VAT.RawStatus = explicit(model.StatusPendingReview)

	err := ValidateSave(model.ActorStatusManager, rec)
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "purchase document count")
	assert.Contains(t, validation.Fields, "income confirmation")

	three := 3
	rec.PurchaseDocumentCount = &three
	rec.IncomeConfirmed = model.ConfirmConfirmed
	assert.NoError(t, ValidateSave(model.ActorStatusManager, rec))
}

func TestValidateSaveVATNotSubmittedIsExempt(t *testing.T) {
	rec := validRecord()
	rec.VAT.RawStatus = explicit(model.StatusNotSubmitted)
	assert.NoError(t, ValidateSave(model.ActorStatusManager, rec))
}

func TestValidateSavePaymentAmount(t *testing.T) {
	rec := validRecord()
	rec.PaymentStatus = model.PaymentHasPayment

	err := ValidateSave(model.ActorStatusManager, rec)
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "payment amount")

	zero := decimal.Zero
	rec.PaymentAmount = &zero
	assert.Error(t, ValidateSave(model.ActorStatusManager, rec))

	amount := decimal.NewFromFloat(1250.50)
	rec.PaymentAmount = &amount
	assert.NoError(t, ValidateSave(model.ActorStatusManager, rec))
}

// One error reports every problem at once.
func TestValidateSaveCollectsAllProblems(t *testing.T) {
	rec := validRecord()
	rec.SubForms.PP36.Status = ""
	rec.SubForms.PT40.Status = model.StatusPendingReview
	rec.PaymentStatus = model.PaymentHasPayment

	err := ValidateSave(model.ActorStatusManager, rec)
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Len(t, validation.Fields, 3)
	assert.Equal(t, rec.Key(), validation.Key)
}
