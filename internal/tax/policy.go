package tax

import (
	"taxtrack/internal/apperr"
	"taxtrack/internal/model"
)

// StatusOption is one entry of a status picker: the full enum is always
// returned so disallowed options stay visible, selectable entries first.
type StatusOption struct {
	Status     model.Status `json:"status"`
	Selectable bool         `json:"selectable"`
}

var inspectorBase = statusSet(
	model.StatusReceivedReceipt,
	model.StatusPaid,
	model.StatusPassed,
	model.StatusNeedsCorrection,
	model.StatusInquireCustomer,
	model.StatusAdditionalReview,
	model.StatusNotSubmitted,
)

var filerBase = statusSet(
	model.StatusReceivedReceipt,
	model.StatusPaid,
	model.StatusSentToCustomer,
	model.StatusDraftCompleted,
)

// managerSubFormBase withholds the two review-flow outcomes; the overlay
// rules unlock them once the inspector has acted.
var managerSubFormBase = func() map[model.Status]bool {
	set := make(map[model.Status]bool, len(model.AllStatuses))
	for _, s := range model.AllStatuses {
		set[s] = true
	}
	delete(set, model.StatusPendingRecheck)
	delete(set, model.StatusPassed)
	return set
}()

func statusSet(statuses ...model.Status) map[model.Status]bool {
	set := make(map[model.Status]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}

// AllowedStatuses returns the status options for an obligation's main status
// picker. The status manager may choose anything; the inspector and filer are
// limited to their fixed allow-lists.
func AllowedStatuses(actor model.ActorContext) []StatusOption {
	var base map[model.Status]bool
	switch actor {
	case model.ActorInspector:
		base = inspectorBase
	case model.ActorFiler:
		base = filerBase
	default:
		return orderOptions(nil) // nil base means everything selectable
	}
	return orderOptions(base)
}

// AllowedSubFormStatuses returns the options for one WHT sub-form. Overlay
// rules apply to the status manager only and are strictly additive: they
// unlock review-flow outcomes depending on where the inspector left the form,
// and never revoke a base permission.
func AllowedSubFormStatuses(actor model.ActorContext, currentSub, currentMain model.Status) []StatusOption {
	switch actor {
	case model.ActorInspector:
		return orderOptions(inspectorBase)
	case model.ActorFiler:
		return orderOptions(filerBase)
	}

	if currentMain == model.StatusPendingRecheck {
		return orderOptions(nil)
	}

	unlocked := make(map[model.Status]bool, len(managerSubFormBase)+2)
	for s := range managerSubFormBase {
		unlocked[s] = true
	}
	switch currentSub {
	case model.StatusNeedsCorrection, model.StatusEdit:
		unlocked[model.StatusPendingRecheck] = true
		unlocked[model.StatusPassed] = true
	case model.StatusInquireCustomer, model.StatusAdditionalReview:
		unlocked[model.StatusPendingRecheck] = true
	}
	return orderOptions(unlocked)
}

// orderOptions expands a selectable set over the whole enum, selectable
// entries first, enum order preserved within each half. A nil set marks
// everything selectable.
func orderOptions(selectable map[model.Status]bool) []StatusOption {
	options := make([]StatusOption, 0, len(model.AllStatuses))
	for _, s := range model.AllStatuses {
		if selectable == nil || selectable[s] {
			options = append(options, StatusOption{Status: s, Selectable: true})
		}
	}
	for _, s := range model.AllStatuses {
		if selectable != nil && !selectable[s] {
			options = append(options, StatusOption{Status: s, Selectable: false})
		}
	}
	return options
}

// ValidateSave enforces the preparer-stage field requirements against the
// candidate record state. It applies to the status manager only; inspection
// and filing saves skip sub-form validation entirely. All problems are
// reported in a single error and nothing is persisted on failure.
func ValidateSave(actor model.ActorContext, rec *model.MonthlyTaxRecord) error {
	if actor != model.ActorStatusManager {
		return nil
	}

	var fields []string

	for _, key := range model.AllSubFormKeys {
		form := rec.SubForms.ByKey(key)
		if form.Status == "" {
			fields = append(fields, SubFormDisplayName(key)+" status")
		}
	}
	for _, key := range model.AllSubFormKeys {
		form := rec.SubForms.ByKey(key)
		if form.Status == model.StatusPendingReview && (form.AttachmentCount == nil || *form.AttachmentCount <= 0) {
			fields = append(fields, SubFormDisplayName(key)+" attachment count")
		}
	}

	vatStatus, vatStarted := Derive(rec, model.ObligationVAT)
	if vatStarted && vatStatus != model.StatusNotSubmitted {
		if rec.PurchaseDocumentCount == nil || *rec.PurchaseDocumentCount <= 0 {
			fields = append(fields, "purchase document count")
		}
		if rec.IncomeConfirmed == model.ConfirmEmpty {
			fields = append(fields, "income confirmation")
		}
	}
	if rec.PaymentStatus == model.PaymentHasPayment {
		if rec.PaymentAmount == nil || !rec.PaymentAmount.IsPositive() {
			fields = append(fields, "payment amount")
		}
	}

	if len(fields) > 0 {
		return &apperr.ValidationError{
			Key:     rec.Key(),
			Message: "required fields are missing or invalid",
			Fields:  fields,
		}
	}
	return nil
}

// SubFormDisplayName returns the user-facing name of a sub-form key.
func SubFormDisplayName(key model.SubFormKey) string {
	if name, ok := model.SubFormDisplayNames[key]; ok {
		return name
	}
	return string(key)
}
