package tax

import (
	"testing"
	"time"

	"taxtrack/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(year, month, day, hour int) model.Timestamp {
	return model.NewTimestamp(time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC))
}

func explicit(s model.Status) model.RawStatus {
	return model.RawStatus{Kind: model.RawExplicit, Explicit: s}
}

func legacy(v bool) model.RawStatus {
	return model.RawStatus{Kind: model.RawLegacyBool, Legacy: v}
}

func TestDeriveExplicitStatusWins(t *testing.T) {
	rec := &model.MonthlyTaxRecord{}
	rec.WHT.RawStatus = explicit(model.StatusPaid)
	// A lifecycle timestamp never outranks an explicitly chosen status.
	rec.WHT.SentToCustomerAt = at(2026, 2, 10, 9)

	status, ok := Derive(rec, model.ObligationWHT)
	require.True(t, ok)
	assert.Equal(t, model.StatusPaid, status)
}

func TestDeriveLatestTimestampWins(t *testing.T) {
	rec := &model.MonthlyTaxRecord{}
	rec.WHT.SentForReviewAt = at(2026, 2, 1, 9)
	rec.WHT.DraftCompletedAt = at(2026, 2, 2, 10)

	status, ok := Derive(rec, model.ObligationWHT)
	require.True(t, ok)
	assert.Equal(t, model.StatusDraftCompleted, status)
}

func TestDeriveTimestampTieKeepsDeclaredOrder(t *testing.T) {
	rec := &model.MonthlyTaxRecord{}
	rec.WHT.SentToCustomerAt = at(2026, 2, 1, 9)
	rec.WHT.DraftCompletedAt = at(2026, 2, 1, 9)

	status, ok := Derive(rec, model.ObligationWHT)
	require.True(t, ok)
	assert.Equal(t, model.StatusSentToCustomer, status)
}

func TestDeriveEachTimestampAlone(t *testing.T) {
	cases := []struct {
		name string
		set  func(s *model.ObligationState)
		want model.Status
	}{
		{"sent to customer", func(s *model.ObligationState) { s.SentToCustomerAt = at(2026, 1, 5, 9) }, model.StatusSentToCustomer},
		{"review returned", func(s *model.ObligationState) { s.ReviewReturnedAt = at(2026, 1, 5, 9) }, model.StatusPendingRecheck},
		{"sent for review", func(s *model.ObligationState) { s.SentForReviewAt = at(2026, 1, 5, 9) }, model.StatusPendingReview},
		{"draft completed", func(s *model.ObligationState) { s.DraftCompletedAt = at(2026, 1, 5, 9) }, model.StatusDraftCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &model.MonthlyTaxRecord{}
			tc.set(&rec.VAT)
			status, ok := Derive(rec, model.ObligationVAT)
			require.True(t, ok)
			assert.Equal(t, tc.want, status)
		})
	}
}

func TestDeriveLegacyBoolFallback(t *testing.T) {
	rec := &model.MonthlyTaxRecord{}
	rec.WHT.RawStatus = legacy(true)

	status, ok := Derive(rec, model.ObligationWHT)
	require.True(t, ok)
	assert.Equal(t, model.StatusNotStarted, status)

	rec.WHT.RawStatus = legacy(false)
	_, ok = Derive(rec, model.ObligationWHT)
	assert.False(t, ok)
}

func TestDeriveUntouchedObligation(t *testing.T) {
	rec := &model.MonthlyTaxRecord{}
	_, ok := Derive(rec, model.ObligationVAT)
	assert.False(t, ok)
}

func TestDeriveObligationsAreIndependent(t *testing.T) {
	rec := &model.MonthlyTaxRecord{}
	rec.VAT.SentToCustomerAt = at(2026, 2, 10, 9)

	_, whtStarted := Derive(rec, model.ObligationWHT)
	assert.False(t, whtStarted)

	vat, ok := Derive(rec, model.ObligationVAT)
	require.True(t, ok)
	assert.Equal(t, model.StatusSentToCustomer, vat)
}

func TestDeriveIsPure(t *testing.T) {
	rec := &model.MonthlyTaxRecord{}
	rec.WHT.RawStatus = legacy(true)
	rec.WHT.SentForReviewAt = at(2026, 2, 1, 9)

	first, ok1 := Derive(rec, model.ObligationWHT)
	second, ok2 := Derive(rec, model.ObligationWHT)
	assert.Equal(t, first, second)
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, model.StatusPendingReview, first)
}
