package repository

import (
	"context"
	"fmt"

	"taxtrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaxRecordFilter narrows the record list. Status filters match the stored
// status column of the chosen obligation; derived statuses are the service
// layer's concern.
type TaxRecordFilter struct {
	Build      string
	TaxYear    int
	TaxMonth   int
	Obligation model.Obligation
	Status     model.Status
	AssigneeID *uuid.UUID
	Page       int
	Limit      int
	Sort       string // validated against sortColumns before use
}

// sortColumns whitelists sortable columns; anything else falls back to the
// default ordering.
var sortColumns = map[string]string{
	"build":      "build",
	"company":    "company_name",
	"period":     "tax_year desc, tax_month desc",
	"updated_at": "updated_at desc",
}

type TaxRecordRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.MonthlyTaxRecord, error)
	FindByKey(ctx context.Context, key model.RecordKey) (*model.MonthlyTaxRecord, error)
	List(ctx context.Context, filter TaxRecordFilter) ([]model.MonthlyTaxRecord, int64, error)
	ListByPeriod(ctx context.Context, taxYear, taxMonth int) ([]model.MonthlyTaxRecord, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
}

type taxRecordRepository struct {
	db *gorm.DB
}

func NewTaxRecordRepository(db *gorm.DB) TaxRecordRepository {
	return &taxRecordRepository{db: db}
}

func (r *taxRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.MonthlyTaxRecord, error) {
	var rec model.MonthlyTaxRecord
	if err := GetDB(ctx, r.db).First(&rec, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *taxRecordRepository) FindByKey(ctx context.Context, key model.RecordKey) (*model.MonthlyTaxRecord, error) {
	var rec model.MonthlyTaxRecord
	err := GetDB(ctx, r.db).
		First(&rec, "build = ? AND tax_year = ? AND tax_month = ?", key.Build, key.TaxYear, key.TaxMonth).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *taxRecordRepository) List(ctx context.Context, filter TaxRecordFilter) ([]model.MonthlyTaxRecord, int64, error) {
	var records []model.MonthlyTaxRecord
	var total int64

	query := GetDB(ctx, r.db).Model(&model.MonthlyTaxRecord{})

	if filter.Build != "" {
		query = query.Where("build = ?", filter.Build)
	}
	if filter.TaxYear != 0 {
		query = query.Where("tax_year = ?", filter.TaxYear)
	}
	if filter.TaxMonth != 0 {
		query = query.Where("tax_month = ?", filter.TaxMonth)
	}
	if filter.Status != "" {
		col := "wht_status"
		if filter.Obligation == model.ObligationVAT {
			col = "vat_status"
		}
		query = query.Where(col+" = ?", string(filter.Status))
	}
	if filter.AssigneeID != nil {
		id := *filter.AssigneeID
		query = query.Where(
			`accounting_current = ? OR accounting_original = ?
			 OR inspection_current = ? OR inspection_original = ?
			 OR data_entry_current = ? OR data_entry_original = ?
			 OR wht_filer_current = ? OR wht_filer_original = ?
			 OR vat_filer_current = ? OR vat_filer_original = ?`,
			id, id, id, id, id, id, id, id, id, id)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "tax_year desc, tax_month desc, build"
	if col, ok := sortColumns[filter.Sort]; ok {
		order = col
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order(order).Offset(offset).Limit(filter.Limit).Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *taxRecordRepository) ListByPeriod(ctx context.Context, taxYear, taxMonth int) ([]model.MonthlyTaxRecord, error) {
	var records []model.MonthlyTaxRecord
	err := GetDB(ctx, r.db).
		Where("tax_year = ? AND tax_month = ?", taxYear, taxMonth).
		Order("build").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateFields writes exactly the given columns. A key mapped to nil clears
// the column; a key absent from the map leaves the column unchanged. Callers
// must keep the two apart: the save pipeline depends on the distinction.
func (r *taxRecordRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := GetDB(ctx, r.db).Model(&model.MonthlyTaxRecord{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("tax record %s not found", id)
	}
	return nil
}
