package service

import (
	"context"
	"fmt"

	"taxtrack/internal/model"
	"taxtrack/internal/repository"
)

// EmployeeResponse is a directory entry for the assignment pickers.
type EmployeeResponse struct {
	ID       string             `json:"id"`
	FullName string             `json:"full_name"`
	Email    string             `json:"email"`
	Role     model.ActorContext `json:"role"`
}

type EmployeeService interface {
	ListEmployees(ctx context.Context, page, limit int) ([]EmployeeResponse, int64, error)
}

type employeeService struct {
	employeeRepo repository.EmployeeRepository
}

func NewEmployeeService(employeeRepo repository.EmployeeRepository) EmployeeService {
	return &employeeService{employeeRepo: employeeRepo}
}

func (s *employeeService) ListEmployees(ctx context.Context, page, limit int) ([]EmployeeResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	employees, total, err := s.employeeRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch employees: %w", err)
	}

	res := make([]EmployeeResponse, 0, len(employees))
	for _, emp := range employees {
		res = append(res, EmployeeResponse{
			ID:       emp.ID.String(),
			FullName: emp.FullName,
			Email:    emp.Email,
			Role:     emp.Role,
		})
	}
	return res, total, nil
}
