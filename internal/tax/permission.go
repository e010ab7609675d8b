package tax

import (
	"github.com/google/uuid"

	"taxtrack/internal/apperr"
	"taxtrack/internal/model"
)

// Tab identifies one view of the record edit screen.
type Tab string

const (
	TabGeneral Tab = "general"
	TabWHT     Tab = "wht"
	TabVAT     Tab = "vat"
)

// CheckSubmission authorizes a save against one obligation's tab. Filers may
// only submit the obligation they are assigned to, matching either the
// current or the original assignment; inspectors and status managers are
// scoped by role alone. The check runs before any network or repository call.
func CheckSubmission(actor model.ActorContext, employeeID uuid.UUID, rec *model.MonthlyTaxRecord, o model.Obligation) error {
	if o == model.ObligationVAT && !rec.VATRegistered {
		return &apperr.ValidationError{
			Key:        rec.Key(),
			Obligation: o,
			Message:    "company is not VAT-registered",
		}
	}

	if actor != model.ActorFiler {
		return nil
	}

	if !rec.FilerAssignment(o).Matches(employeeID) {
		msg := "you are not the assigned WHT filer for this record"
		if o == model.ObligationVAT {
			msg = "you are not the assigned VAT filer for this record"
		}
		return &apperr.ValidationError{
			Key:        rec.Key(),
			Obligation: o,
			Message:    msg,
		}
	}
	return nil
}

// ReachableTabs lists the tabs an actor may open on a record. The VAT tab is
// unreachable for everyone when the company is not VAT-registered, and a
// filer only reaches the tabs of the obligations assigned to them.
func ReachableTabs(actor model.ActorContext, employeeID uuid.UUID, rec *model.MonthlyTaxRecord) []Tab {
	tabs := []Tab{TabGeneral}

	whtReachable := true
	vatReachable := rec.VATRegistered
	if actor == model.ActorFiler {
		whtReachable = rec.WHTFiler.Matches(employeeID)
		vatReachable = vatReachable && rec.VATFiler.Matches(employeeID)
	}

	if whtReachable {
		tabs = append(tabs, TabWHT)
	}
	if vatReachable {
		tabs = append(tabs, TabVAT)
	}
	return tabs
}

// DefaultTab picks the tab an actor lands on: the first reachable obligation
// tab, falling back to general info when neither is reachable.
func DefaultTab(actor model.ActorContext, employeeID uuid.UUID, rec *model.MonthlyTaxRecord) Tab {
	for _, tab := range ReachableTabs(actor, employeeID, rec) {
		if tab != TabGeneral {
			return tab
		}
	}
	return TabGeneral
}
