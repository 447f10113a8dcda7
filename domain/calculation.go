package domain

import "time"

// PaymentInput is the caller-facing form of LoanTerms. Zero LumpMonth and
// TermYears fall back to the configured defaults; a zero rate is a real rate.
type PaymentInput struct {
	Principal    float64 `json:"principal"`
	AnnualRate   float64 `json:"annual_rate"`
	LumpFraction float64 `json:"lump_fraction"`
	LumpMonth    int     `json:"lump_month"`
	TermYears    int     `json:"term_years"`
}

type PaymentResult struct {
	MonthlyPayment float64 `json:"monthly_payment"`
	TotalPayment   float64 `json:"total_payment"`
	LumpPayment    float64 `json:"lump_payment"`
	TotalInterest  float64 `json:"total_interest"`
	Residual       float64 `json:"residual"`
	Converged      bool    `json:"converged"`
}

// CreditLineInput is the caller-facing form of BudgetQuery.
type CreditLineInput struct {
	MonthlyBudget         float64 `json:"monthly_budget"`
	AnnualRate            float64 `json:"annual_rate"`
	AppliedCreditFraction float64 `json:"credit_fraction"`
	TermYears             int     `json:"term_years"`
	LumpMonth             int     `json:"lump_month"`
}

type CreditLineResult struct {
	Principal float64 `json:"principal"`
	Residual  float64 `json:"residual"`
	Converged bool    `json:"converged"`
}

// QuoteInput drives the comparison quote: the budget is inverted once at the
// primary credit fraction and the principal re-amortized at each scenario.
type QuoteInput struct {
	MonthlyBudget float64 `json:"monthly_budget"`
	AnnualRate    float64 `json:"annual_rate"`
	TermYears     int     `json:"term_years"`
}

type ScenarioPayment struct {
	CreditFraction float64 `json:"credit_fraction"`
	MonthlyPayment float64 `json:"monthly_payment"`
	Converged      bool    `json:"converged"`
}

type QuoteResult struct {
	Principal float64           `json:"principal"`
	Scenarios []ScenarioPayment `json:"scenarios"`
}

type CalculationKind string

const (
	KindPayment    CalculationKind = "payment"
	KindCreditLine CalculationKind = "credit_line"
	KindQuote      CalculationKind = "quote"
)

// CalculationRecord is one entry of the calculation history.
type CalculationRecord struct {
	Kind      CalculationKind `json:"kind"`
	Key       string          `json:"key"`
	Value     float64         `json:"value"`
	Converged bool            `json:"converged"`
	CreatedAt time.Time       `json:"created_at"`
}
