package syncer

import (
	"taxtrack/internal/model"
	"taxtrack/internal/service"
)

// buildCandidate applies a save request onto a copy of the cached record so
// preparer-stage validation can run locally, before any network call. Only
// the fields validation inspects need to be applied.
func buildCandidate(rec model.MonthlyTaxRecord, req service.SaveRecordRequest) model.MonthlyTaxRecord {
	candidate := rec

	if req.SubForms != nil {
		candidate.SubForms = *req.SubForms
	}
	if req.WHT != nil && req.WHT.Status != "" {
		candidate.WHT.RawStatus = model.RawStatus{Kind: model.RawExplicit, Explicit: req.WHT.Status}
	}
	if req.VAT != nil {
		if req.VAT.Status != "" {
			candidate.VAT.RawStatus = model.RawStatus{Kind: model.RawExplicit, Explicit: req.VAT.Status}
		}
		if req.VAT.PurchaseDocumentCount != nil {
			candidate.PurchaseDocumentCount = req.VAT.PurchaseDocumentCount
		}
		if req.VAT.IncomeConfirmed != nil {
			candidate.IncomeConfirmed = *req.VAT.IncomeConfirmed
		}
		if req.VAT.ExpensesConfirmed != nil {
			candidate.ExpensesConfirmed = *req.VAT.ExpensesConfirmed
		}
		if req.VAT.PaymentStatus != nil {
			candidate.PaymentStatus = *req.VAT.PaymentStatus
		}
		if req.VAT.PaymentAmount != nil {
			candidate.PaymentAmount = req.VAT.PaymentAmount
		}
	}

	return candidate
}
