package service

import (
	"math"

	"solar-loan/domain"
)

const (
	secantMaxIter      = 80
	secantStallTol     = 1e-12
	secantStepTol      = 1e-8
	boundGrowth        = 1.5
	maxBoundExpansions = 100

	// balanceTolerance is the end-of-term balance still counted as paid off.
	balanceTolerance = 1e-4
)

// FinalBalance simulates the loan month by month at a constant payment and
// returns what is left after the last month. The lump sum is taken out at the
// end of LumpMonth, after that month's payment.
func FinalBalance(terms domain.LoanTerms, payment float64) float64 {
	monthlyRate := terms.AnnualRate / 12
	totalMonths := terms.TermYears * 12
	lump := terms.LumpFraction * terms.Principal

	balance := terms.Principal
	for m := 1; m <= totalMonths; m++ {
		balance = balance*(1+monthlyRate) - payment
		if m == terms.LumpMonth {
			balance -= lump
		}
	}
	return balance
}

// annuityPayment is the fixed-rate payment that retires principal over n
// months with no lump sum. A zero rate degrades to straight-line repayment.
func annuityPayment(principal, monthlyRate float64, n int) float64 {
	if monthlyRate == 0 {
		return principal / float64(n)
	}
	growth := math.Pow(1+monthlyRate, float64(n))
	return principal * monthlyRate * growth / (growth - 1)
}

// SolvePayment finds the constant monthly payment that brings the balance to
// zero at term end. Inputs are not validated; callers range-check first.
// The solve never fails: a payment is always returned and Converged reports
// whether the residual is inside tolerance.
func SolvePayment(terms domain.LoanTerms) domain.AmortizationResult {
	balanceAt := func(payment float64) float64 {
		return FinalBalance(terms, payment)
	}

	hi := annuityPayment(terms.Principal, terms.AnnualRate/12, terms.TermYears*12)
	for i := 0; i < maxBoundExpansions && balanceAt(hi) > 0; i++ {
		if hi == 0 {
			break
		}
		hi *= boundGrowth
	}

	p0, f0 := 0.0, balanceAt(0)
	p1, f1 := hi, balanceAt(hi)

	iter := 0
	for ; iter < secantMaxIter; iter++ {
		if math.Abs(f1-f0) < secantStallTol || math.Abs(p1-p0) < secantStepTol {
			break
		}
		p2 := p1 - f1*(p1-p0)/(f1-f0)
		f2 := balanceAt(p2)
		p0, f0 = p1, f1
		p1, f1 = p2, f2
	}

	return domain.AmortizationResult{
		MonthlyPayment: p1,
		Residual:       f1,
		Iterations:     iter,
		Converged:      math.Abs(f1) <= balanceTolerance,
	}
}
