package service

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is wrapped by every validation failure so transports can
// tell a bad request apart from an internal fault.
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrInvalidPrincipal      = fmt.Errorf("%w: monto inválido", ErrInvalidInput)
	ErrInvalidRate           = fmt.Errorf("%w: tasa inválida", ErrInvalidInput)
	ErrInvalidTerm           = fmt.Errorf("%w: plazo inválido", ErrInvalidInput)
	ErrInvalidLumpFraction   = fmt.Errorf("%w: fracción de abono inválida", ErrInvalidInput)
	ErrInvalidLumpMonth      = fmt.Errorf("%w: mes de abono fuera del plazo", ErrInvalidInput)
	ErrInvalidBudget         = fmt.Errorf("%w: pago mensual inválido", ErrInvalidInput)
	ErrInvalidCreditFraction = fmt.Errorf("%w: fracción de crédito inválida", ErrInvalidInput)
)
