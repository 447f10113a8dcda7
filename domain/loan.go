package domain

// LoanTerms are the inputs to a single amortization solve.
type LoanTerms struct {
	Principal    float64
	AnnualRate   float64 // 0.07 for 7%
	LumpFraction float64 // fraction of the original principal paid once at LumpMonth
	LumpMonth    int     // 1-indexed
	TermYears    int
}

type AmortizationResult struct {
	MonthlyPayment float64
	Residual       float64 // balance left at term end when paying MonthlyPayment
	Iterations     int
	Converged      bool
}

// BudgetQuery asks for the largest principal a monthly budget can carry.
type BudgetQuery struct {
	MonthlyBudget         float64
	AnnualRate            float64
	AppliedCreditFraction float64
	TermYears             int
	LumpMonth             int // zero means DefaultLumpMonth
}

type BudgetResult struct {
	Principal  float64
	Residual   float64 // solved payment minus the budget
	Iterations int
	Converged  bool
}

// DefaultLumpMonth is the month the tax credit lands in when a query doesn't say.
const DefaultLumpMonth = 6
