package model

// Status is the effective filing status of one obligation or WHT sub-form.
type Status string

const (
	StatusNotStarted       Status = "not_started"
	StatusDraftReady       Status = "draft_ready"
	StatusDraftCompleted   Status = "draft_completed"
	StatusPendingReview    Status = "pending_review"
	StatusPendingRecheck   Status = "pending_recheck"
	StatusNeedsCorrection  Status = "needs_correction"
	StatusEdit             Status = "edit"
	StatusInquireCustomer  Status = "inquire_customer"
	StatusAdditionalReview Status = "additional_review"
	StatusPassed           Status = "passed"
	StatusSentToCustomer   Status = "sent_to_customer"
	StatusNotSubmitted     Status = "not_submitted"
	StatusReceivedReceipt  Status = "received_receipt"
	StatusPaid             Status = "paid"
)

// AllStatuses is the canonical display order of the status enum. Transition
// policy output covers this list in full, selectable entries first.
var AllStatuses = []Status{
	StatusNotStarted,
	StatusDraftReady,
	StatusDraftCompleted,
	StatusPendingReview,
	StatusPendingRecheck,
	StatusNeedsCorrection,
	StatusEdit,
	StatusInquireCustomer,
	StatusAdditionalReview,
	StatusPassed,
	StatusSentToCustomer,
	StatusNotSubmitted,
	StatusReceivedReceipt,
	StatusPaid,
}

// ActorContext identifies which stage of the pipeline is acting on a record.
type ActorContext string

const (
	ActorInspector     ActorContext = "inspector"
	ActorStatusManager ActorContext = "status_manager"
	ActorFiler         ActorContext = "filer"
)

// Obligation selects one of the two independently tracked tax duties.
type Obligation string

const (
	ObligationWHT Obligation = "wht"
	ObligationVAT Obligation = "vat"
)

// ConfirmState is used for the VAT income/expenses confirmation fields.
type ConfirmState string

const (
	ConfirmEmpty       ConfirmState = ""
	ConfirmConfirmed   ConfirmState = "confirmed"
	ConfirmUnconfirmed ConfirmState = "unconfirmed"
)

// PaymentStatus enum constants for the VAT obligation.
const (
	PaymentHasPayment = "has_payment"
	PaymentNoPayment  = "no_payment"
)
