// Package tax implements the status engine for monthly filing records: pure
// status derivation, the per-actor transition policy, save-time validation,
// timestamp side-effect resolution and the assignment permission gate.
package tax

import (
	"taxtrack/internal/model"
)

// statusCandidate maps a lifecycle timestamp to the status it implies. The
// slice order is the declared candidate order; on a timestamp tie the
// earlier-declared candidate wins. The tie-break is preserved legacy behavior,
// not a business rule; do not strengthen it.
type statusCandidate struct {
	status model.Status
	at     func(*model.ObligationState) model.Timestamp
}

var deriveCandidates = []statusCandidate{
	{model.StatusSentToCustomer, func(s *model.ObligationState) model.Timestamp { return s.SentToCustomerAt }},
	{model.StatusPendingRecheck, func(s *model.ObligationState) model.Timestamp { return s.ReviewReturnedAt }},
	{model.StatusPendingReview, func(s *model.ObligationState) model.Timestamp { return s.SentForReviewAt }},
	{model.StatusDraftCompleted, func(s *model.ObligationState) model.Timestamp { return s.DraftCompletedAt }},
}

// Derive computes the effective status of one obligation. An explicit
// non-legacy status wins outright; otherwise the most recent lifecycle
// timestamp decides; otherwise a truthy legacy flag falls back to
// not_started. The second return is false when the obligation has not been
// started at all. Pure: same record always yields the same status.
func Derive(rec *model.MonthlyTaxRecord, o model.Obligation) (model.Status, bool) {
	state := rec.Obligation(o)

	if explicit, ok := state.RawStatus.ExplicitStatus(); ok {
		return explicit, true
	}

	best := -1
	for i, c := range deriveCandidates {
		ts := c.at(state)
		if !ts.Valid {
			continue
		}
		if best == -1 || ts.Time.After(deriveCandidates[best].at(state).Time) {
			best = i
		}
	}
	if best >= 0 {
		return deriveCandidates[best].status, true
	}

	if state.RawStatus.Kind == model.RawLegacyBool && state.RawStatus.Legacy {
		return model.StatusNotStarted, true
	}

	return "", false
}
