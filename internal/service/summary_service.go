package service

import (
	"context"
	"fmt"

	"taxtrack/internal/model"
	"taxtrack/internal/repository"
	"taxtrack/internal/tax"
)

// ObligationSummary buckets a period's records by derived effective status.
type ObligationSummary struct {
	Total    int                  `json:"total"`
	NotBegun int                  `json:"not_begun"`
	ByStatus map[model.Status]int `json:"by_status"`
}

// SummaryResponse is the month dashboard: one bucket set per obligation. VAT
// counts only cover VAT-registered companies.
type SummaryResponse struct {
	TaxYear  int               `json:"tax_year"`
	TaxMonth int               `json:"tax_month"`
	WHT      ObligationSummary `json:"wht"`
	VAT      ObligationSummary `json:"vat"`
}

type SummaryService interface {
	GetSummary(ctx context.Context, taxYear, taxMonth int) (SummaryResponse, error)
}

type summaryService struct {
	recordRepo repository.TaxRecordRepository
}

func NewSummaryService(recordRepo repository.TaxRecordRepository) SummaryService {
	return &summaryService{recordRepo: recordRepo}
}

// GetSummary derives every record's effective statuses in memory; derivation
// is the single authority, the stored status column alone is not trustworthy
// for records still on the legacy boolean encoding.
func (s *summaryService) GetSummary(ctx context.Context, taxYear, taxMonth int) (SummaryResponse, error) {
	records, err := s.recordRepo.ListByPeriod(ctx, taxYear, taxMonth)
	if err != nil {
		return SummaryResponse{}, fmt.Errorf("failed to fetch records for %d-%02d: %w", taxYear, taxMonth, err)
	}

	response := SummaryResponse{
		TaxYear:  taxYear,
		TaxMonth: taxMonth,
		WHT:      ObligationSummary{ByStatus: map[model.Status]int{}},
		VAT:      ObligationSummary{ByStatus: map[model.Status]int{}},
	}

	for i := range records {
		rec := &records[i]

		response.WHT.Total++
		if status, ok := tax.Derive(rec, model.ObligationWHT); ok {
			response.WHT.ByStatus[status]++
		} else {
			response.WHT.NotBegun++
		}

		if !rec.VATRegistered {
			continue
		}
		response.VAT.Total++
		if status, ok := tax.Derive(rec, model.ObligationVAT); ok {
			response.VAT.ByStatus[status]++
		} else {
			response.VAT.NotBegun++
		}
	}

	return response, nil
}
