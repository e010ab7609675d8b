package tax

import (
	"testing"
	"time"

	"taxtrack/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var resolveNow = time.Date(2026, 2, 15, 14, 30, 0, 0, time.UTC)

func resolve(actor model.ActorContext, o model.Obligation, newStatus model.Status, mutate ...func(*ResolveInput)) Plan {
	in := ResolveInput{
		Actor:      actor,
		Obligation: o,
		New:        newStatus,
		Prior:      &model.ObligationState{},
		Now:        resolveNow,
	}
	for _, m := range mutate {
		m(&in)
	}
	return ResolveTimestamps(in)
}

func TestResolveNoStatusNoPlan(t *testing.T) {
	plan := resolve(model.ActorStatusManager, model.ObligationWHT, "")
	assert.Empty(t, plan)
}

func TestResolveReviewSubmissionStamp(t *testing.T) {
	for _, status := range []model.Status{model.StatusPendingReview, model.StatusPendingRecheck} {
		plan := resolve(model.ActorStatusManager, model.ObligationWHT, status)
		assign, ok := plan[FieldSentForReviewAt]
		require.True(t, ok, string(status))
		assert.False(t, assign.Clear)
		assert.Equal(t, resolveNow, assign.Value.Time)
	}
}

// The stamp is re-affirmed on every save while the review is open, even when
// an earlier one already exists.
func TestResolveReviewStampReaffirmed(t *testing.T) {
	plan := resolve(model.ActorStatusManager, model.ObligationWHT, model.StatusPendingReview, func(in *ResolveInput) {
		in.Previous = model.StatusPendingReview
		in.Prior.SentForReviewAt = at(2026, 2, 1, 9)
	})
	assign, ok := plan[FieldSentForReviewAt]
	require.True(t, ok)
	assert.Equal(t, resolveNow, assign.Value.Time)
}

func TestResolveReviewReturnedInspectorOnly(t *testing.T) {
	plan := resolve(model.ActorInspector, model.ObligationWHT, model.StatusNeedsCorrection)
	assign, ok := plan[FieldReviewReturnedAt]
	require.True(t, ok)
	assert.Equal(t, resolveNow, assign.Value.Time)

	// The same outcome chosen by the status manager stamps nothing.
	plan = resolve(model.ActorStatusManager, model.ObligationWHT, model.StatusNeedsCorrection)
	_, ok = plan[FieldReviewReturnedAt]
	assert.False(t, ok)
}

func TestResolveReviewStillOpenNoReturnStamp(t *testing.T) {
	for _, status := range []model.Status{
		model.StatusPendingReview,
		model.StatusPendingRecheck,
		model.StatusDraftCompleted,
		model.StatusSentToCustomer,
	} {
		plan := resolve(model.ActorInspector, model.ObligationWHT, status)
		_, ok := plan[FieldReviewReturnedAt]
		assert.False(t, ok, string(status))
	}
}

func TestResolveSentToCustomerStamp(t *testing.T) {
	for _, actor := range []model.ActorContext{model.ActorStatusManager, model.ActorFiler} {
		plan := resolve(actor, model.ObligationWHT, model.StatusSentToCustomer)
		assign, ok := plan[FieldSentToCustomerAt]
		require.True(t, ok, string(actor))
		assert.Equal(t, resolveNow, assign.Value.Time)
	}

	// The inspector cannot reach sent_to_customer, and even if posted it
	// stamps nothing.
	plan := resolve(model.ActorInspector, model.ObligationWHT, model.StatusSentToCustomer)
	_, ok := plan[FieldSentToCustomerAt]
	assert.False(t, ok)
}

func TestResolveManualOverrideAdopted(t *testing.T) {
	manual := at(2026, 2, 3, 11)
	plan := resolve(model.ActorStatusManager, model.ObligationWHT, model.StatusPassed, func(in *ResolveInput) {
		in.SentToCustomerOverride = manual
	})
	assign, ok := plan[FieldSentToCustomerAt]
	require.True(t, ok)
	assert.Equal(t, manual, assign.Value)
}

func TestResolveSentinelBlocksOverrideAndCarry(t *testing.T) {
	manual := at(2026, 2, 3, 11)
	for _, status := range []model.Status{
		model.StatusReceivedReceipt,
		model.StatusNotSubmitted,
		model.StatusAdditionalReview,
		model.StatusInquireCustomer,
		model.StatusDraftReady,
		model.StatusPaid,
	} {
		plan := resolve(model.ActorStatusManager, model.ObligationWHT, status, func(in *ResolveInput) {
			in.SentToCustomerOverride = manual
			in.Prior.SentToCustomerAt = at(2026, 1, 20, 8)
		})
		_, ok := plan[FieldSentToCustomerAt]
		assert.False(t, ok, string(status))
	}
}

func TestResolvePriorSentToCustomerCarried(t *testing.T) {
	prior := at(2026, 1, 20, 8)
	plan := resolve(model.ActorStatusManager, model.ObligationWHT, model.StatusEdit, func(in *ResolveInput) {
		in.Prior.SentToCustomerAt = prior
	})
	assign, ok := plan[FieldSentToCustomerAt]
	require.True(t, ok)
	assert.Equal(t, prior, assign.Value)
}

func TestResolveOverrideBeatsPrior(t *testing.T) {
	manual := at(2026, 2, 3, 11)
	plan := resolve(model.ActorStatusManager, model.ObligationWHT, model.StatusEdit, func(in *ResolveInput) {
		in.SentToCustomerOverride = manual
		in.Prior.SentToCustomerAt = at(2026, 1, 20, 8)
	})
	assert.Equal(t, manual, plan[FieldSentToCustomerAt].Value)
}

func TestResolveDraftCompletedStamp(t *testing.T) {
	for _, actor := range []model.ActorContext{model.ActorStatusManager, model.ActorFiler} {
		plan := resolve(actor, model.ObligationWHT, model.StatusDraftCompleted)
		assign, ok := plan[FieldDraftCompletedAt]
		require.True(t, ok, string(actor))
		assert.Equal(t, resolveNow, assign.Value.Time)
	}
}

func TestResolveInspectorNeverStampsDraftCompleted(t *testing.T) {
	plan := resolve(model.ActorInspector, model.ObligationWHT, model.StatusDraftCompleted)
	assert.Empty(t, plan)
}

// Reverting VAT to draft_completed must not leave any sent_to_customer write
// in the plan; the field is omitted, not cleared.
func TestResolveVATDraftCompletedDropsSentToCustomer(t *testing.T) {
	plan := resolve(model.ActorStatusManager, model.ObligationVAT, model.StatusDraftCompleted, func(in *ResolveInput) {
		in.SentToCustomerOverride = at(2026, 2, 3, 11)
		in.Prior.SentToCustomerAt = at(2026, 1, 20, 8)
	})
	_, ok := plan[FieldSentToCustomerAt]
	assert.False(t, ok)
	_, ok = plan[FieldDraftCompletedAt]
	assert.True(t, ok)
}
