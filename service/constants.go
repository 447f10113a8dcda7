package service

const (
	MaxPrincipal     = 100_000_000.0 // 100 millones
	MaxAnnualRate    = 1.0           // 100% anual, como fracción
	MaxMonthlyBudget = 1_000_000.0
	MaxTermYears     = 50 // 600 meses
	MinTermYears     = 1
	MinLumpMonth     = 1
	MaxHistoryLimit  = 500
)
