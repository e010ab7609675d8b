package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"taxtrack/internal/model"
	"taxtrack/internal/repository"
	"taxtrack/internal/tax"
	ws "taxtrack/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

// ObligationSection carries the fields of one obligation's tab as posted by
// the edit form. Status is the status selected in this save; free-text fields
// are pointers so an omitted field is left unchanged.
type ObligationSection struct {
	Status            model.Status    `json:"status"`
	SentToCustomerAt  model.Timestamp `json:"sent_to_customer_at"` // manual override, rarely used
	Inquiry           *string         `json:"inquiry"`
	Response          *string         `json:"response"`
	SubmissionComment *string         `json:"submission_comment"`
	FilingResponse    *string         `json:"filing_response"`
}

// VATSection extends the obligation fields with the VAT-only bookkeeping.
type VATSection struct {
	ObligationSection
	PurchaseDocumentCount *int                `json:"purchase_document_count"`
	IncomeConfirmed       *model.ConfirmState `json:"income_confirmed"`
	ExpensesConfirmed     *model.ConfirmState `json:"expenses_confirmed"`
	PaymentStatus         *string             `json:"payment_status"`
	PaymentAmount         *decimal.Decimal    `json:"payment_amount"`
}

// GeneralSection carries the general-info tab: company data and current
// assignments. Reassignment never rewrites the original assignee.
type GeneralSection struct {
	CompanyName *string    `json:"company_name"`
	Accounting  *uuid.UUID `json:"accounting"`
	Inspection  *uuid.UUID `json:"inspection"`
	DataEntry   *uuid.UUID `json:"data_entry"`
	WHTFiler    *uuid.UUID `json:"wht_filer"`
	VATFiler    *uuid.UUID `json:"vat_filer"`
}

// SaveRecordRequest is one tab-scoped save. Exactly the sections belonging to
// the tab are honored; a WHT save never touches VAT columns and vice versa.
type SaveRecordRequest struct {
	Tab      tax.Tab            `json:"tab" binding:"required,oneof=general wht vat"`
	WHT      *ObligationSection `json:"wht"`
	SubForms *model.WHTSubForms `json:"sub_forms"`
	VAT      *VATSection        `json:"vat"`
	General  *GeneralSection    `json:"general"`
}

// TaxRecordResponse decorates the stored record with the derived effective
// statuses so readers never re-implement derivation.
type TaxRecordResponse struct {
	model.MonthlyTaxRecord
	WHTEffectiveStatus model.Status `json:"wht_effective_status"`
	VATEffectiveStatus model.Status `json:"vat_effective_status"`
}

// ListTaxRecordsFilter mirrors the repository filter plus actor scoping.
type ListTaxRecordsFilter struct {
	Build      string
	TaxYear    int
	TaxMonth   int
	Obligation model.Obligation
	Status     model.Status
	Mine       bool // restrict to records assigned to the caller
	Page       int
	Limit      int
	Sort       string
}

// --- Interface ---

type TaxRecordService interface {
	GetRecord(ctx context.Context, id uuid.UUID) (TaxRecordResponse, error)
	GetRecordByKey(ctx context.Context, key model.RecordKey) (TaxRecordResponse, error)
	ListRecords(ctx context.Context, actor model.ActorContext, employeeID uuid.UUID, filter ListTaxRecordsFilter) ([]TaxRecordResponse, int64, error)
	AllowedStatuses(ctx context.Context, id uuid.UUID, actor model.ActorContext, obligation model.Obligation, subForm model.SubFormKey) ([]tax.StatusOption, error)
	Save(ctx context.Context, actor model.ActorContext, employeeID uuid.UUID, id uuid.UUID, req SaveRecordRequest) (TaxRecordResponse, error)
}

type taxRecordService struct {
	recordRepo repository.TaxRecordRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	hub        *ws.Hub
	now        func() time.Time
}

func NewTaxRecordService(
	recordRepo repository.TaxRecordRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) TaxRecordService {
	return &taxRecordService{
		recordRepo: recordRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		hub:        hub,
		now:        time.Now,
	}
}

// --- Implementation ---

func toTaxRecordResponse(rec *model.MonthlyTaxRecord) TaxRecordResponse {
	wht, _ := tax.Derive(rec, model.ObligationWHT)
	vat, _ := tax.Derive(rec, model.ObligationVAT)
	return TaxRecordResponse{
		MonthlyTaxRecord:   *rec,
		WHTEffectiveStatus: wht,
		VATEffectiveStatus: vat,
	}
}

func (s *taxRecordService) GetRecord(ctx context.Context, id uuid.UUID) (TaxRecordResponse, error) {
	rec, err := s.recordRepo.FindByID(ctx, id)
	if err != nil {
		return TaxRecordResponse{}, fmt.Errorf("failed to fetch tax record: %w", err)
	}
	return toTaxRecordResponse(rec), nil
}

func (s *taxRecordService) GetRecordByKey(ctx context.Context, key model.RecordKey) (TaxRecordResponse, error) {
	rec, err := s.recordRepo.FindByKey(ctx, key)
	if err != nil {
		return TaxRecordResponse{}, fmt.Errorf("failed to fetch tax record %s: %w", key, err)
	}
	return toTaxRecordResponse(rec), nil
}

func (s *taxRecordService) ListRecords(ctx context.Context, actor model.ActorContext, employeeID uuid.UUID, filter ListTaxRecordsFilter) ([]TaxRecordResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.TaxRecordFilter{
		Build:      filter.Build,
		TaxYear:    filter.TaxYear,
		TaxMonth:   filter.TaxMonth,
		Obligation: filter.Obligation,
		Status:     filter.Status,
		Page:       filter.Page,
		Limit:      filter.Limit,
		Sort:       filter.Sort,
	}
	// Filers only ever see their own records.
	if filter.Mine || actor == model.ActorFiler {
		id := employeeID
		repoFilter.AssigneeID = &id
	}

	records, total, err := s.recordRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tax records: %w", err)
	}

	result := make([]TaxRecordResponse, 0, len(records))
	for i := range records {
		result = append(result, toTaxRecordResponse(&records[i]))
	}
	return result, total, nil
}

func (s *taxRecordService) AllowedStatuses(ctx context.Context, id uuid.UUID, actor model.ActorContext, obligation model.Obligation, subForm model.SubFormKey) ([]tax.StatusOption, error) {
	rec, err := s.recordRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tax record: %w", err)
	}

	if subForm == "" {
		return tax.AllowedStatuses(actor), nil
	}

	form := rec.SubForms.ByKey(subForm)
	if form == nil {
		return nil, fmt.Errorf("unknown sub-form %q", subForm)
	}
	main, _ := tax.Derive(rec, model.ObligationWHT)
	return tax.AllowedSubFormStatuses(actor, form.Status, main), nil
}

// Save runs the full pipeline for one tab-scoped save: permission gate,
// preparer-stage validation against the candidate state, timestamp
// resolution, then a single transactional partial update plus audit entry.
// On success the fresh record is broadcast to connected clients.
func (s *taxRecordService) Save(ctx context.Context, actor model.ActorContext, employeeID uuid.UUID, id uuid.UUID, req SaveRecordRequest) (TaxRecordResponse, error) {
	rec, err := s.recordRepo.FindByID(ctx, id)
	if err != nil {
		return TaxRecordResponse{}, fmt.Errorf("failed to fetch tax record: %w", err)
	}

	fields := map[string]interface{}{}
	action := model.ActionUpdateGeneralInfo

	switch req.Tab {
	case tax.TabWHT:
		if err := tax.CheckSubmission(actor, employeeID, rec, model.ObligationWHT); err != nil {
			return TaxRecordResponse{}, err
		}
		action = model.ActionUpdateWHT
		if err := s.applyObligation(rec, model.ObligationWHT, req.WHT, req.SubForms, actor, fields); err != nil {
			return TaxRecordResponse{}, err
		}
	case tax.TabVAT:
		if err := tax.CheckSubmission(actor, employeeID, rec, model.ObligationVAT); err != nil {
			return TaxRecordResponse{}, err
		}
		action = model.ActionUpdateVAT
		if err := s.applyVAT(rec, req.VAT, actor, fields); err != nil {
			return TaxRecordResponse{}, err
		}
	case tax.TabGeneral:
		applyGeneral(req.General, fields)
	default:
		return TaxRecordResponse{}, fmt.Errorf("unknown tab %q", req.Tab)
	}

	employee := employeeID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.recordRepo.UpdateFields(txCtx, id, fields); err != nil {
			return fmt.Errorf("failed to update tax record: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"tab":    req.Tab,
			"fields": fieldNames(fields),
		})
		entry := model.AuditLog{
			EmployeeID: &employee,
			Action:     action,
			EntityID:   id.String(),
			EntityName: rec.Key().String(),
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, &entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return TaxRecordResponse{}, err
	}

	fresh, err := s.recordRepo.FindByID(ctx, id)
	if err != nil {
		return TaxRecordResponse{}, fmt.Errorf("failed to reload tax record: %w", err)
	}

	s.broadcastRecordUpdated(fresh)

	return toTaxRecordResponse(fresh), nil
}

// applyObligation validates and stages a WHT-tab save into the fields map.
func (s *taxRecordService) applyObligation(rec *model.MonthlyTaxRecord, o model.Obligation, section *ObligationSection, subForms *model.WHTSubForms, actor model.ActorContext, fields map[string]interface{}) error {
	if section == nil {
		return fmt.Errorf("missing %s section in save request", o)
	}

	// Validation runs against the candidate state, before anything persists.
	candidate := *rec
	if subForms != nil {
		candidate.SubForms = *subForms
	}
	if section.Status != "" {
		candidate.WHT.RawStatus = model.RawStatus{Kind: model.RawExplicit, Explicit: section.Status}
	}
	if err := tax.ValidateSave(actor, &candidate); err != nil {
		return err
	}

	prev, _ := tax.Derive(rec, o)
	plan := tax.ResolveTimestamps(tax.ResolveInput{
		Actor:                  actor,
		Obligation:             o,
		Previous:               prev,
		New:                    section.Status,
		SentToCustomerOverride: section.SentToCustomerAt,
		Prior:                  rec.Obligation(o),
		Now:                    s.now(),
	})

	stageObligation(o, section, plan, fields)

	if subForms != nil {
		stageSubForms(subForms, fields)
	}
	return nil
}

// applyVAT validates and stages a VAT-tab save into the fields map.
func (s *taxRecordService) applyVAT(rec *model.MonthlyTaxRecord, section *VATSection, actor model.ActorContext, fields map[string]interface{}) error {
	if section == nil {
		return fmt.Errorf("missing vat section in save request")
	}

	candidate := *rec
	if section.Status != "" {
		candidate.VAT.RawStatus = model.RawStatus{Kind: model.RawExplicit, Explicit: section.Status}
	}
	if section.PurchaseDocumentCount != nil {
		candidate.PurchaseDocumentCount = section.PurchaseDocumentCount
	}
	if section.IncomeConfirmed != nil {
		candidate.IncomeConfirmed = *section.IncomeConfirmed
	}
	if section.ExpensesConfirmed != nil {
		candidate.ExpensesConfirmed = *section.ExpensesConfirmed
	}
	if section.PaymentStatus != nil {
		candidate.PaymentStatus = *section.PaymentStatus
	}
	if section.PaymentAmount != nil {
		candidate.PaymentAmount = section.PaymentAmount
	}
	if err := tax.ValidateSave(actor, &candidate); err != nil {
		return err
	}

	prev, _ := tax.Derive(rec, model.ObligationVAT)
	plan := tax.ResolveTimestamps(tax.ResolveInput{
		Actor:                  actor,
		Obligation:             model.ObligationVAT,
		Previous:               prev,
		New:                    section.Status,
		SentToCustomerOverride: section.SentToCustomerAt,
		Prior:                  &rec.VAT,
		Now:                    s.now(),
	})

	stageObligation(model.ObligationVAT, &section.ObligationSection, plan, fields)

	if section.PurchaseDocumentCount != nil {
		fields["purchase_document_count"] = *section.PurchaseDocumentCount
	}
	if section.IncomeConfirmed != nil {
		fields["income_confirmed"] = string(*section.IncomeConfirmed)
	}
	if section.ExpensesConfirmed != nil {
		fields["expenses_confirmed"] = string(*section.ExpensesConfirmed)
	}
	if section.PaymentStatus != nil {
		fields["payment_status"] = *section.PaymentStatus
	}
	if section.PaymentAmount != nil {
		fields["payment_amount"] = *section.PaymentAmount
	}
	return nil
}

// stageObligation writes one obligation's staged columns: the explicit status,
// the resolved timestamp plan and any posted free-text fields. Plan entries
// with Clear set become NULL writes; fields absent from the plan are not
// touched at all.
func stageObligation(o model.Obligation, section *ObligationSection, plan tax.Plan, fields map[string]interface{}) {
	prefix := "wht_"
	if o == model.ObligationVAT {
		prefix = "vat_"
	}

	if section.Status != "" {
		fields[prefix+"status"] = string(section.Status)
	}

	for field, assign := range plan {
		col := prefix + string(field)
		if assign.Clear {
			fields[col] = nil
		} else {
			fields[col] = assign.Value.Time
		}
	}

	if section.Inquiry != nil {
		fields[prefix+"inquiry"] = *section.Inquiry
	}
	if section.Response != nil {
		fields[prefix+"response"] = *section.Response
	}
	if section.SubmissionComment != nil {
		fields[prefix+"submission_comment"] = *section.SubmissionComment
	}
	if section.FilingResponse != nil {
		fields[prefix+"filing_response"] = *section.FilingResponse
	}
}

func stageSubForms(subForms *model.WHTSubForms, fields map[string]interface{}) {
	for _, key := range model.AllSubFormKeys {
		form := subForms.ByKey(key)
		fields[string(key)+"_status"] = string(form.Status)
		if form.AttachmentCount != nil {
			fields[string(key)+"_attachment_count"] = *form.AttachmentCount
		} else {
			fields[string(key)+"_attachment_count"] = nil
		}
	}
}

func applyGeneral(section *GeneralSection, fields map[string]interface{}) {
	if section == nil {
		return
	}
	if section.CompanyName != nil {
		fields["company_name"] = *section.CompanyName
	}
	if section.Accounting != nil {
		fields["accounting_current"] = *section.Accounting
	}
	if section.Inspection != nil {
		fields["inspection_current"] = *section.Inspection
	}
	if section.DataEntry != nil {
		fields["data_entry_current"] = *section.DataEntry
	}
	if section.WHTFiler != nil {
		fields["wht_filer_current"] = *section.WHTFiler
	}
	if section.VATFiler != nil {
		fields["vat_filer_current"] = *section.VATFiler
	}
}

func fieldNames(fields map[string]interface{}) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	return names
}

func (s *taxRecordService) broadcastRecordUpdated(rec *model.MonthlyTaxRecord) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"type":   "record-updated",
		"record": toTaxRecordResponse(rec),
	})
	if err != nil {
		return
	}
	s.hub.Broadcast <- payload
}
