package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ObligationState is the per-obligation slice of a monthly record. It is
// embedded twice (wht_/vat_ column prefixes); the two obligations are tracked
// independently and a save for one must never touch the other's columns.
type ObligationState struct {
	RawStatus         RawStatus `gorm:"type:varchar(50);column:status" json:"status"`
	SentForReviewAt   Timestamp `gorm:"column:sent_for_review_at" json:"sent_for_review_at"`
	ReviewReturnedAt  Timestamp `gorm:"column:review_returned_at" json:"review_returned_at"`
	SentToCustomerAt  Timestamp `gorm:"column:sent_to_customer_at" json:"sent_to_customer_at"`
	DraftCompletedAt  Timestamp `gorm:"column:draft_completed_at" json:"draft_completed_at"`
	Inquiry           string    `gorm:"type:text;column:inquiry" json:"inquiry"`
	Response          string    `gorm:"type:text;column:response" json:"response"`
	SubmissionComment string    `gorm:"type:text;column:submission_comment" json:"submission_comment"`
	FilingResponse    string    `gorm:"type:text;column:filing_response" json:"filing_response"`
}

// SubForm is one of the ten WHT government sub-forms.
type SubForm struct {
	Status          Status `gorm:"type:varchar(50);column:status" json:"status"`
	AttachmentCount *int   `gorm:"column:attachment_count" json:"attachment_count"`
}

// SubFormKey identifies one WHT sub-form.
type SubFormKey string

const (
	SubFormPND1Income401 SubFormKey = "pnd1_40_1"
	SubFormPND1Income402 SubFormKey = "pnd1_40_2"
	SubFormPND3          SubFormKey = "pnd3"
	SubFormPND53         SubFormKey = "pnd53"
	SubFormPND2          SubFormKey = "pnd2"
	SubFormPND54         SubFormKey = "pnd54"
	SubFormPP36          SubFormKey = "pp36"
	SubFormPT40          SubFormKey = "pt40"
	SubFormSocialSec     SubFormKey = "social_security"
	SubFormStudentLoan   SubFormKey = "student_loan"
)

// AllSubFormKeys lists the ten WHT sub-forms in government-form order.
var AllSubFormKeys = []SubFormKey{
	SubFormPND1Income401,
	SubFormPND1Income402,
	SubFormPND3,
	SubFormPND53,
	SubFormPND2,
	SubFormPND54,
	SubFormPP36,
	SubFormPT40,
	SubFormSocialSec,
	SubFormStudentLoan,
}

// SubFormDisplayNames maps keys to the names used in user-facing messages.
var SubFormDisplayNames = map[SubFormKey]string{
	SubFormPND1Income401: "PND.1 (40.1)",
	SubFormPND1Income402: "PND.1 (40.2)",
	SubFormPND3:          "PND.3",
	SubFormPND53:         "PND.53",
	SubFormPND2:          "PND.2",
	SubFormPND54:         "PND.54",
	SubFormPP36:          "PP.36",
	SubFormPT40:          "PT.40",
	SubFormSocialSec:     "Social Security",
	SubFormStudentLoan:   "Student Loan",
}

// WHTSubForms holds the ten sub-forms as a fixed record type; the legacy
// system kept these in a string-keyed map, which allowed silent typos.
type WHTSubForms struct {
	PND1Income401 SubForm `gorm:"embedded;embeddedPrefix:pnd1_40_1_" json:"pnd1_40_1"`
	PND1Income402 SubForm `gorm:"embedded;embeddedPrefix:pnd1_40_2_" json:"pnd1_40_2"`
	PND3          SubForm `gorm:"embedded;embeddedPrefix:pnd3_" json:"pnd3"`
	PND53         SubForm `gorm:"embedded;embeddedPrefix:pnd53_" json:"pnd53"`
	PND2          SubForm `gorm:"embedded;embeddedPrefix:pnd2_" json:"pnd2"`
	PND54         SubForm `gorm:"embedded;embeddedPrefix:pnd54_" json:"pnd54"`
	PP36          SubForm `gorm:"embedded;embeddedPrefix:pp36_" json:"pp36"`
	PT40          SubForm `gorm:"embedded;embeddedPrefix:pt40_" json:"pt40"`
	SocialSec     SubForm `gorm:"embedded;embeddedPrefix:social_security_" json:"social_security"`
	StudentLoan   SubForm `gorm:"embedded;embeddedPrefix:student_loan_" json:"student_loan"`
}

// ByKey returns a pointer to the sub-form for key, or nil for unknown keys.
func (f *WHTSubForms) ByKey(key SubFormKey) *SubForm {
	switch key {
	case SubFormPND1Income401:
		return &f.PND1Income401
	case SubFormPND1Income402:
		return &f.PND1Income402
	case SubFormPND3:
		return &f.PND3
	case SubFormPND53:
		return &f.PND53
	case SubFormPND2:
		return &f.PND2
	case SubFormPND54:
		return &f.PND54
	case SubFormPP36:
		return &f.PP36
	case SubFormPT40:
		return &f.PT40
	case SubFormSocialSec:
		return &f.SocialSec
	case SubFormStudentLoan:
		return &f.StudentLoan
	default:
		return nil
	}
}

// Assignment pairs the currently assigned employee with the originally
// assigned one. Reassignment must not retroactively invalidate historical
// permission checks, so both identities are honored.
type Assignment struct {
	Current  *uuid.UUID `gorm:"type:uuid;column:current" json:"current"`
	Original *uuid.UUID `gorm:"type:uuid;column:original" json:"original"`
}

// Matches reports whether id equals the current or original assignee.
func (a Assignment) Matches(id uuid.UUID) bool {
	if a.Current != nil && *a.Current == id {
		return true
	}
	if a.Original != nil && *a.Original == id {
		return true
	}
	return false
}

// RecordKey identifies a record by its natural key.
type RecordKey struct {
	Build    string `json:"build"`
	TaxYear  int    `json:"tax_year"`
	TaxMonth int    `json:"tax_month"`
}

func (k RecordKey) String() string {
	return fmt.Sprintf("%s:%d:%02d", k.Build, k.TaxYear, k.TaxMonth)
}

// MonthlyTaxRecord is one row per (build, tax year, tax month) tracking the
// WHT and VAT filing obligations through the preparer → inspector → filer
// pipeline.
type MonthlyTaxRecord struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Build         string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_build_period" json:"build"`
	CompanyName   string    `gorm:"type:varchar(255);not null" json:"company_name"`
	VATRegistered bool      `gorm:"not null;default:false" json:"vat_registered"`
	TaxYear       int       `gorm:"not null;uniqueIndex:idx_build_period" json:"tax_year"`
	TaxMonth      int       `gorm:"not null;uniqueIndex:idx_build_period" json:"tax_month"`

	WHT ObligationState `gorm:"embedded;embeddedPrefix:wht_" json:"wht"`
	VAT ObligationState `gorm:"embedded;embeddedPrefix:vat_" json:"vat"`

	SubForms WHTSubForms `gorm:"embedded" json:"sub_forms"`

	// VAT-only bookkeeping.
	PurchaseDocumentCount *int             `gorm:"column:purchase_document_count" json:"purchase_document_count"`
	IncomeConfirmed       ConfirmState     `gorm:"type:varchar(20);column:income_confirmed" json:"income_confirmed"`
	ExpensesConfirmed     ConfirmState     `gorm:"type:varchar(20);column:expenses_confirmed" json:"expenses_confirmed"`
	PaymentStatus         string           `gorm:"type:varchar(20);column:payment_status" json:"payment_status"`
	PaymentAmount         *decimal.Decimal `gorm:"type:decimal(18,2);column:payment_amount" json:"payment_amount"`

	Accounting Assignment `gorm:"embedded;embeddedPrefix:accounting_" json:"accounting"`
	Inspection Assignment `gorm:"embedded;embeddedPrefix:inspection_" json:"inspection"`
	DataEntry  Assignment `gorm:"embedded;embeddedPrefix:data_entry_" json:"data_entry"`
	WHTFiler   Assignment `gorm:"embedded;embeddedPrefix:wht_filer_" json:"wht_filer"`
	VATFiler   Assignment `gorm:"embedded;embeddedPrefix:vat_filer_" json:"vat_filer"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Key returns the record's natural key.
func (r *MonthlyTaxRecord) Key() RecordKey {
	return RecordKey{Build: r.Build, TaxYear: r.TaxYear, TaxMonth: r.TaxMonth}
}

// Obligation returns the state slice for o.
func (r *MonthlyTaxRecord) Obligation(o Obligation) *ObligationState {
	if o == ObligationVAT {
		return &r.VAT
	}
	return &r.WHT
}

// FilerAssignment returns the filer assignment for o.
func (r *MonthlyTaxRecord) FilerAssignment(o Obligation) Assignment {
	if o == ObligationVAT {
		return r.VATFiler
	}
	return r.WHTFiler
}
