package repository

import (
	"context"
	"sync"

	"solar-loan/domain"
)

const defaultHistorySize = 1000

// LoanRepositoryMemory is an in-memory implementation of LoanRepository.
// Only the most recent records are kept.
type LoanRepositoryMemory struct {
	mu    sync.Mutex
	limit int
	data  []domain.CalculationRecord
}

// NewLoanRepositoryMemory creates a new in-memory loan repository holding at
// most limit records. A non-positive limit uses the default.
func NewLoanRepositoryMemory(limit int) *LoanRepositoryMemory {
	if limit <= 0 {
		limit = defaultHistorySize
	}
	return &LoanRepositoryMemory{
		limit: limit,
		data:  []domain.CalculationRecord{},
	}
}

// Save stores the record in memory, dropping the oldest one when full.
func (r *LoanRepositoryMemory) Save(
	_ context.Context,
	record domain.CalculationRecord,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.data) >= r.limit {
		r.data = r.data[1:]
	}
	r.data = append(r.data, record)
	return nil
}

// Recent returns up to n records, newest first. A non-positive n returns all.
func (r *LoanRepositoryMemory) Recent(
	_ context.Context,
	n int,
) ([]domain.CalculationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 || n > len(r.data) {
		n = len(r.data)
	}
	out := make([]domain.CalculationRecord, 0, n)
	for i := len(r.data) - 1; i >= len(r.data)-n; i-- {
		out = append(out, r.data[i])
	}
	return out, nil
}
