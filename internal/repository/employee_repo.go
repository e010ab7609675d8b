package repository

import (
	"context"

	"taxtrack/internal/model"

	"gorm.io/gorm"
)

// EmployeeRepository defines data access for Employee entities.
type EmployeeRepository interface {
	List(ctx context.Context, page, limit int) ([]model.Employee, int64, error)
}

type employeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) List(ctx context.Context, page, limit int) ([]model.Employee, int64, error) {
	var employees []model.Employee
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Employee{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("full_name").Offset(offset).Limit(limit).Find(&employees).Error; err != nil {
		return nil, 0, err
	}

	return employees, total, nil
}
