package tax

import (
	"time"

	"taxtrack/internal/model"
)

// TimestampField names one of the four lifecycle timestamps of an obligation.
type TimestampField string

const (
	FieldSentForReviewAt  TimestampField = "sent_for_review_at"
	FieldReviewReturnedAt TimestampField = "review_returned_at"
	FieldSentToCustomerAt TimestampField = "sent_to_customer_at"
	FieldDraftCompletedAt TimestampField = "draft_completed_at"
)

// Assignment is one planned write: either a clear or a set-to(value). Fields
// absent from a Plan are omitted entirely. Omission means "leave unchanged"
// and is distinct from an explicit clear.
type Assignment struct {
	Clear bool
	Value model.Timestamp
}

// Plan maps the timestamp fields a save must touch to their assignments.
type Plan map[TimestampField]Assignment

func setTo(t time.Time) Assignment {
	return Assignment{Value: model.NewTimestamp(t)}
}

// noTimestampSentinels are the statuses for which a user-supplied or prior
// sent-to-customer value must not be adopted.
var noTimestampSentinels = statusSet(
	model.StatusReceivedReceipt,
	model.StatusNotSubmitted,
	model.StatusAdditionalReview,
	model.StatusInquireCustomer,
	model.StatusDraftReady,
	model.StatusPaid,
	model.StatusDraftCompleted,
	model.StatusPendingReview,
	model.StatusPendingRecheck,
)

// ResolveInput carries everything the resolver needs for one obligation of
// one save. Previous is the derived status before the save; New is the status
// selected in this save (empty when the actor left it unset).
type ResolveInput struct {
	Actor      model.ActorContext
	Obligation model.Obligation
	Previous   model.Status
	New        model.Status
	// SentToCustomerOverride is a manually supplied sent-to-customer value.
	SentToCustomerOverride model.Timestamp
	// Prior is the stored obligation state before the save.
	Prior *model.ObligationState
	Now   time.Time
}

// ResolveTimestamps computes which lifecycle timestamps a save must stamp for
// one obligation. It is evaluated only for obligations whose form is part of
// the save; a save that never opens an obligation's form yields no plan at
// all, so unrelated saves leave every timestamp untouched.
func ResolveTimestamps(in ResolveInput) Plan {
	plan := Plan{}

	// Review submission stamp: re-affirmed on every save while the status
	// stays in the review set, and never cleared once set.
	if in.New == model.StatusPendingReview || in.New == model.StatusPendingRecheck {
		plan[FieldSentForReviewAt] = setTo(in.Now)
	}

	// Only the inspector ever writes the review-returned stamp.
	if in.Actor == model.ActorInspector && in.New != "" {
		switch in.New {
		case model.StatusPendingReview, model.StatusPendingRecheck,
			model.StatusDraftCompleted, model.StatusSentToCustomer:
			// review still open, no return stamp
		default:
			plan[FieldReviewReturnedAt] = setTo(in.Now)
		}
	}

	switch {
	case in.New == model.StatusSentToCustomer &&
		(in.Actor == model.ActorStatusManager || in.Actor == model.ActorFiler):
		plan[FieldSentToCustomerAt] = setTo(in.Now)
	case in.SentToCustomerOverride.Valid && !noTimestampSentinels[in.New]:
		plan[FieldSentToCustomerAt] = Assignment{Value: in.SentToCustomerOverride}
	case in.Prior != nil && in.Prior.SentToCustomerAt.Valid && !noTimestampSentinels[in.New]:
		plan[FieldSentToCustomerAt] = Assignment{Value: in.Prior.SentToCustomerAt}
	}

	// The inspector never touches the draft-completed stamp. For VAT the
	// sent-to-customer entry is dropped in the same save so a stale stamp
	// cannot outlive a reversion to draft.
	if in.New == model.StatusDraftCompleted &&
		(in.Actor == model.ActorStatusManager || in.Actor == model.ActorFiler) {
		plan[FieldDraftCompletedAt] = setTo(in.Now)
		if in.Obligation == model.ObligationVAT {
			delete(plan, FieldSentToCustomerAt)
		}
	}

	return plan
}
