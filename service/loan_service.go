package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"solar-loan/domain"
	"solar-loan/repository"
)

// roundToCents rounds a dollar amount half away from zero to two decimals.
func roundToCents(value float64) float64 {
	return decimal.NewFromFloat(value).Round(2).InexactFloat64()
}

// inRange reports lo <= v <= hi; NaN is never in range.
func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

// Defaults fill the optional parts of a request and describe the product
// scenario used by Quote.
type Defaults struct {
	AnnualRate               float64
	LumpMonth                int
	TermYears                int
	PrimaryCreditFraction    float64
	ComparisonCreditFraction float64
}

// DefaultSettings is the stock solar scenario: 7% over 20 years with the
// tax credit landing in month 6.
func DefaultSettings() Defaults {
	return Defaults{
		AnnualRate:               0.07,
		LumpMonth:                domain.DefaultLumpMonth,
		TermYears:                20,
		PrimaryCreditFraction:    0.30,
		ComparisonCreditFraction: 0.15,
	}
}

type LoanService struct {
	repo     repository.LoanRepository
	cache    repository.CacheRepository
	defaults Defaults
	now      func() time.Time
}

// NewLoanService creates a new LoanService with the given repository and cache.
func NewLoanService(repo repository.LoanRepository,
	cache repository.CacheRepository,
	defaults Defaults,
) *LoanService {
	return &LoanService{repo: repo, cache: cache, defaults: defaults, now: time.Now}
}

// Defaults returns the settings the service was built with.
func (s *LoanService) Defaults() Defaults {
	return s.defaults
}

func (s *LoanService) termOrDefault(years int) int {
	if years == 0 {
		return s.defaults.TermYears
	}
	return years
}

func (s *LoanService) lumpMonthOrDefault(month int) int {
	if month == 0 {
		return s.defaults.LumpMonth
	}
	return month
}

func validateRateAndTerm(rate float64, termYears int) error {
	if !inRange(rate, 0, MaxAnnualRate) {
		return fmt.Errorf("%w (máximo %.2f)", ErrInvalidRate, MaxAnnualRate)
	}
	if termYears < MinTermYears || termYears > MaxTermYears {
		return fmt.Errorf("%w (entre %d y %d años)", ErrInvalidTerm, MinTermYears, MaxTermYears)
	}
	return nil
}

func validateLumpMonth(month, termYears int) error {
	if month < MinLumpMonth || month > termYears*12 {
		return fmt.Errorf("%w (mes %d)", ErrInvalidLumpMonth, month)
	}
	return nil
}

// CalculatePayment returns the monthly payment that retires the loan at term
// end, with the lump sum applied at the given month.
func (s *LoanService) CalculatePayment(
	ctx context.Context,
	input domain.PaymentInput,
) (domain.PaymentResult, error) {

	terms := domain.LoanTerms{
		Principal:    input.Principal,
		AnnualRate:   input.AnnualRate,
		LumpFraction: input.LumpFraction,
		LumpMonth:    s.lumpMonthOrDefault(input.LumpMonth),
		TermYears:    s.termOrDefault(input.TermYears),
	}

	if !inRange(terms.Principal, 0, MaxPrincipal) || terms.Principal == 0 {
		return domain.PaymentResult{}, fmt.Errorf("%w (máximo $%.2f)", ErrInvalidPrincipal, MaxPrincipal)
	}
	if err := validateRateAndTerm(terms.AnnualRate, terms.TermYears); err != nil {
		return domain.PaymentResult{}, err
	}
	if !inRange(terms.LumpFraction, 0, 1) {
		return domain.PaymentResult{}, ErrInvalidLumpFraction
	}
	if err := validateLumpMonth(terms.LumpMonth, terms.TermYears); err != nil {
		return domain.PaymentResult{}, err
	}

	key := fmt.Sprintf("payment:%g:%g:%g:%d:%d",
		terms.Principal, terms.AnnualRate, terms.LumpFraction, terms.LumpMonth, terms.TermYears)

	var result domain.PaymentResult
	if s.fromCache(ctx, key, &result) {
		return result, nil
	}

	res := SolvePayment(terms)
	if !res.Converged {
		slog.Warn("payment solve did not converge",
			"principal", terms.Principal,
			"residual", res.Residual,
			"iterations", res.Iterations)
	}

	months := float64(terms.TermYears * 12)
	lump := terms.LumpFraction * terms.Principal
	total := res.MonthlyPayment*months + lump

	result = domain.PaymentResult{
		MonthlyPayment: roundToCents(res.MonthlyPayment),
		TotalPayment:   roundToCents(total),
		LumpPayment:    roundToCents(lump),
		TotalInterest:  roundToCents(total - terms.Principal),
		Residual:       res.Residual,
		Converged:      res.Converged,
	}

	s.remember(ctx, domain.KindPayment, key, result, result.MonthlyPayment, result.Converged)
	return result, nil
}

// CalculateCreditLine returns the largest principal the monthly budget can
// carry once the credit fraction is paid down at the lump month.
func (s *LoanService) CalculateCreditLine(
	ctx context.Context,
	input domain.CreditLineInput,
) (domain.CreditLineResult, error) {

	query := domain.BudgetQuery{
		MonthlyBudget:         input.MonthlyBudget,
		AnnualRate:            input.AnnualRate,
		AppliedCreditFraction: input.AppliedCreditFraction,
		TermYears:             s.termOrDefault(input.TermYears),
		LumpMonth:             s.lumpMonthOrDefault(input.LumpMonth),
	}

	if err := validateBudget(query.MonthlyBudget); err != nil {
		return domain.CreditLineResult{}, err
	}
	if err := validateRateAndTerm(query.AnnualRate, query.TermYears); err != nil {
		return domain.CreditLineResult{}, err
	}
	if err := validateCreditFraction(query.AppliedCreditFraction, query.AnnualRate); err != nil {
		return domain.CreditLineResult{}, err
	}
	if err := validateLumpMonth(query.LumpMonth, query.TermYears); err != nil {
		return domain.CreditLineResult{}, err
	}

	key := fmt.Sprintf("credit_line:%g:%g:%g:%d:%d",
		query.MonthlyBudget, query.AnnualRate, query.AppliedCreditFraction, query.LumpMonth, query.TermYears)

	var result domain.CreditLineResult
	if s.fromCache(ctx, key, &result) {
		return result, nil
	}

	res := InvertBudget(query)
	if !res.Converged {
		slog.Warn("budget inversion did not converge",
			"budget", query.MonthlyBudget,
			"residual", res.Residual,
			"iterations", res.Iterations)
	}

	result = domain.CreditLineResult{
		Principal: roundToCents(res.Principal),
		Residual:  res.Residual,
		Converged: res.Converged,
	}

	s.remember(ctx, domain.KindCreditLine, key, result, result.Principal, result.Converged)
	return result, nil
}

// Quote inverts the budget at the primary credit fraction, then re-amortizes
// that principal at the primary and comparison fractions so the two monthly
// payments can be shown side by side.
func (s *LoanService) Quote(
	ctx context.Context,
	input domain.QuoteInput,
) (domain.QuoteResult, error) {

	termYears := s.termOrDefault(input.TermYears)

	if err := validateBudget(input.MonthlyBudget); err != nil {
		return domain.QuoteResult{}, err
	}
	if err := validateRateAndTerm(input.AnnualRate, termYears); err != nil {
		return domain.QuoteResult{}, err
	}
	if err := validateLumpMonth(s.defaults.LumpMonth, termYears); err != nil {
		return domain.QuoteResult{}, err
	}
	if err := validateCreditFraction(s.defaults.PrimaryCreditFraction, input.AnnualRate); err != nil {
		return domain.QuoteResult{}, err
	}

	key := fmt.Sprintf("quote:%g:%g:%d:%g:%g",
		input.MonthlyBudget, input.AnnualRate, termYears,
		s.defaults.PrimaryCreditFraction, s.defaults.ComparisonCreditFraction)

	var result domain.QuoteResult
	if s.fromCache(ctx, key, &result) {
		return result, nil
	}

	line := InvertBudget(domain.BudgetQuery{
		MonthlyBudget:         input.MonthlyBudget,
		AnnualRate:            input.AnnualRate,
		AppliedCreditFraction: s.defaults.PrimaryCreditFraction,
		TermYears:             termYears,
		LumpMonth:             s.defaults.LumpMonth,
	})
	if !line.Converged {
		slog.Warn("budget inversion did not converge",
			"budget", input.MonthlyBudget,
			"residual", line.Residual,
			"iterations", line.Iterations)
	}

	fractions := []float64{s.defaults.PrimaryCreditFraction, s.defaults.ComparisonCreditFraction}
	scenarios := make([]domain.ScenarioPayment, 0, len(fractions))
	for _, fraction := range fractions {
		res := SolvePayment(domain.LoanTerms{
			Principal:    line.Principal,
			AnnualRate:   input.AnnualRate,
			LumpFraction: fraction,
			LumpMonth:    s.defaults.LumpMonth,
			TermYears:    termYears,
		})
		scenarios = append(scenarios, domain.ScenarioPayment{
			CreditFraction: fraction,
			MonthlyPayment: roundToCents(res.MonthlyPayment),
			Converged:      res.Converged,
		})
	}

	result = domain.QuoteResult{
		Principal: roundToCents(line.Principal),
		Scenarios: scenarios,
	}

	s.remember(ctx, domain.KindQuote, key, result, result.Principal, line.Converged)
	return result, nil
}

// validateCreditFraction rejects a credit that repays the whole loan at zero
// interest: every principal then needs a zero payment and no budget inverts.
func validateCreditFraction(fraction, rate float64) error {
	if !inRange(fraction, 0, 1) {
		return ErrInvalidCreditFraction
	}
	if rate == 0 && fraction >= 1 {
		return fmt.Errorf("%w (sin interés el crédito no puede cubrir todo el monto)", ErrInvalidCreditFraction)
	}
	return nil
}

func validateBudget(budget float64) error {
	if !inRange(budget, 0, MaxMonthlyBudget) || budget == 0 {
		return fmt.Errorf("%w (máximo $%.2f)", ErrInvalidBudget, MaxMonthlyBudget)
	}
	return nil
}

// History returns up to limit recent calculations, newest first. A zero
// limit returns everything the repository still holds.
func (s *LoanService) History(
	ctx context.Context,
	limit int,
) ([]domain.CalculationRecord, error) {
	if limit < 0 || limit > MaxHistoryLimit {
		return nil, fmt.Errorf("%w: límite entre 0 y %d", ErrInvalidInput, MaxHistoryLimit)
	}
	records, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load calculation history: %w", err)
	}
	return records, nil
}

// fromCache decodes a cached result into out. A corrupt entry counts as a miss.
func (s *LoanService) fromCache(ctx context.Context, key string, out any) bool {
	cached, ok := s.cache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(cached), out); err != nil {
		slog.Warn("discarding unreadable cache entry", "key", key, "error", err)
		return false
	}
	return true
}

// remember caches the result and appends it to the history. Neither is
// critical, so failures are only logged.
func (s *LoanService) remember(
	ctx context.Context,
	kind domain.CalculationKind,
	key string,
	result any,
	value float64,
	converged bool,
) {
	if encoded, err := json.Marshal(result); err != nil {
		slog.Warn("failed to encode result for cache", "key", key, "error", err)
	} else if err := s.cache.Set(ctx, key, string(encoded)); err != nil {
		slog.Warn("failed to cache result", "key", key, "error", err)
	}

	record := domain.CalculationRecord{
		Kind:      kind,
		Key:       key,
		Value:     value,
		Converged: converged,
		CreatedAt: s.now(),
	}
	if err := s.repo.Save(ctx, record); err != nil {
		slog.Warn("failed to save calculation", "kind", kind, "error", err)
	}
}
