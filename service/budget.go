package service

import (
	"math"

	"solar-loan/domain"
)

const (
	newtonMaxIter = 20
	newtonTol     = 1e-6
	derivStep     = 1e-4
	minDerivative = 1e-8
)

// InvertBudget finds the largest principal whose amortized payment matches
// the monthly budget. SolvePayment has no closed-form inverse, so this runs
// Newton's method with a central-difference derivative on top of it.
func InvertBudget(q domain.BudgetQuery) domain.BudgetResult {
	lumpMonth := q.LumpMonth
	if lumpMonth == 0 {
		lumpMonth = domain.DefaultLumpMonth
	}

	f := func(principal float64) float64 {
		res := SolvePayment(domain.LoanTerms{
			Principal:    principal,
			AnnualRate:   q.AnnualRate,
			LumpFraction: q.AppliedCreditFraction,
			LumpMonth:    lumpMonth,
			TermYears:    q.TermYears,
		})
		return res.MonthlyPayment - q.MonthlyBudget
	}
	df := func(principal float64) float64 {
		return (f(principal+derivStep) - f(principal-derivStep)) / (2 * derivStep)
	}

	// Nominal total of all payments, an upper bound for any positive rate.
	principal := q.MonthlyBudget * float64(q.TermYears*12)

	var (
		fp        float64
		iter      int
		converged bool
	)
	for iter < newtonMaxIter {
		fp = f(principal)
		dfp := df(principal)
		if math.Abs(dfp) < minDerivative {
			dfp = minDerivative
		}
		principal -= fp / dfp
		iter++
		if math.Abs(fp) < newtonTol {
			converged = true
			break
		}
	}

	return domain.BudgetResult{
		Principal:  principal,
		Residual:   fp,
		Iterations: iter,
		Converged:  converged,
	}
}
