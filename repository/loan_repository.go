package repository

import (
	"context"

	"solar-loan/domain"
)

// LoanRepository keeps the history of calculations served.
//
//go:generate mockgen -destination=mocks/mock_loan_repository.go -package=mock_repository -source=loan_repository.go LoanRepository
type LoanRepository interface {
	Save(ctx context.Context, record domain.CalculationRecord) error
	Recent(ctx context.Context, n int) ([]domain.CalculationRecord, error)
}
