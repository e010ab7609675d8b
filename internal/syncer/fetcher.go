package syncer

import (
	"context"

	"taxtrack/internal/model"
	"taxtrack/internal/service"

	"github.com/google/uuid"
)

// ListGroupSpec registers one list view with the coordinator. Matches decides
// whether a changed record key concerns the group; when nil, year/month of
// the filter are compared (zero filter values match everything).
type ListGroupSpec struct {
	ID      string
	Filter  service.ListTaxRecordsFilter
	Matches func(model.RecordKey) bool
}

func (g ListGroupSpec) matches(key model.RecordKey) bool {
	if g.Matches != nil {
		return g.Matches(key)
	}
	if g.Filter.TaxYear != 0 && g.Filter.TaxYear != key.TaxYear {
		return false
	}
	if g.Filter.TaxMonth != 0 && g.Filter.TaxMonth != key.TaxMonth {
		return false
	}
	if g.Filter.Build != "" && g.Filter.Build != key.Build {
		return false
	}
	return true
}

// SummaryGroupSpec registers one summary view.
type SummaryGroupSpec struct {
	ID       string
	TaxYear  int
	TaxMonth int
}

func (g SummaryGroupSpec) matches(key model.RecordKey) bool {
	return g.TaxYear == key.TaxYear && g.TaxMonth == key.TaxMonth
}

// Fetcher reads record data from the backing store. Implementations map
// transport failures onto the apperr taxonomy; the coordinator's retry and
// skip decisions depend on the error class.
type Fetcher interface {
	FetchRecord(ctx context.Context, key model.RecordKey) (service.TaxRecordResponse, error)
	FetchList(ctx context.Context, group ListGroupSpec) (ListEntry, error)
	FetchSummary(ctx context.Context, group SummaryGroupSpec) (service.SummaryResponse, error)
}

// Updater persists one tab-scoped save.
type Updater interface {
	UpdateRecord(ctx context.Context, id uuid.UUID, req service.SaveRecordRequest) (service.TaxRecordResponse, error)
}
