package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar-loan/domain"
	"solar-loan/repository"
	mock_repository "solar-loan/repository/mocks"
	"solar-loan/service"
)

func newMockedService(t *testing.T) (*service.LoanService, *mock_repository.MockLoanRepository, *mock_repository.MockCacheRepository) {
	ctrl := gomock.NewController(t)
	repo := mock_repository.NewMockLoanRepository(ctrl)
	cache := mock_repository.NewMockCacheRepository(ctrl)
	return service.NewLoanService(repo, cache, service.DefaultSettings()), repo, cache
}

func TestCalculatePayment_WithInterest(t *testing.T) {
	svc, repo, cache := newMockedService(t)
	ctx := context.Background()

	cache.EXPECT().Get(ctx, gomock.Any()).Return("", false)
	cache.EXPECT().Set(ctx, gomock.Any(), gomock.Any()).Return(nil)
	repo.EXPECT().Save(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, record domain.CalculationRecord) error {
			assert.Equal(t, domain.KindPayment, record.Kind)
			assert.True(t, record.Converged)
			return nil
		})

	result, err := svc.CalculatePayment(ctx, domain.PaymentInput{
		Principal:  300_000,
		AnnualRate: 0.07,
		TermYears:  30,
	})

	require.NoError(t, err)
	assert.Equal(t, 1995.91, result.MonthlyPayment)
	assert.Equal(t, 0.0, result.LumpPayment)
	assert.True(t, result.Converged)
	assert.InDelta(t, 1995.91*360-300_000, result.TotalInterest, 5)
}

func TestCalculatePayment_ZeroInterest(t *testing.T) {
	svc := service.NewLoanService(
		repository.NewLoanRepositoryMemory(10),
		repository.NewMemoryCache(),
		service.DefaultSettings(),
	)

	result, err := svc.CalculatePayment(context.Background(), domain.PaymentInput{
		Principal:  1200,
		AnnualRate: 0,
		LumpMonth:  6,
		TermYears:  1,
	})

	require.NoError(t, err)
	assert.Equal(t, 100.0, result.MonthlyPayment)
	assert.Equal(t, 1200.0, result.TotalPayment)
	assert.Equal(t, 0.0, result.TotalInterest)
}

func TestCalculatePayment_LumpSum(t *testing.T) {
	svc := service.NewLoanService(
		repository.NewLoanRepositoryMemory(10),
		repository.NewMemoryCache(),
		service.DefaultSettings(),
	)
	ctx := context.Background()

	plain, err := svc.CalculatePayment(ctx, domain.PaymentInput{Principal: 30_000, AnnualRate: 0.07})
	require.NoError(t, err)

	credited, err := svc.CalculatePayment(ctx, domain.PaymentInput{Principal: 30_000, AnnualRate: 0.07, LumpFraction: 0.30})
	require.NoError(t, err)

	assert.Less(t, credited.MonthlyPayment, plain.MonthlyPayment)
	assert.Equal(t, 9000.0, credited.LumpPayment)
}

func TestCalculatePayment_CacheHit(t *testing.T) {
	svc, _, cache := newMockedService(t)
	ctx := context.Background()

	cached := domain.PaymentResult{MonthlyPayment: 42, Converged: true}
	encoded, err := json.Marshal(cached)
	require.NoError(t, err)

	cache.EXPECT().Get(ctx, "payment:10000:0.05:0:6:20").Return(string(encoded), true)

	result, err := svc.CalculatePayment(ctx, domain.PaymentInput{Principal: 10_000, AnnualRate: 0.05})
	require.NoError(t, err)
	assert.Equal(t, cached, result)
}

func TestCalculatePayment_StoreFailuresAreNotFatal(t *testing.T) {
	svc, repo, cache := newMockedService(t)
	ctx := context.Background()

	cache.EXPECT().Get(ctx, gomock.Any()).Return("{not json", true)
	cache.EXPECT().Set(ctx, gomock.Any(), gomock.Any()).Return(errors.New("cache down"))
	repo.EXPECT().Save(ctx, gomock.Any()).Return(errors.New("save error"))

	result, err := svc.CalculatePayment(ctx, domain.PaymentInput{Principal: 10_000, AnnualRate: 0.05})
	require.NoError(t, err)
	assert.Greater(t, result.MonthlyPayment, 0.0)
}

func TestCalculatePayment_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input domain.PaymentInput
		want  error
	}{
		{"zero principal", domain.PaymentInput{Principal: 0, AnnualRate: 0.07}, service.ErrInvalidPrincipal},
		{"principal too large", domain.PaymentInput{Principal: service.MaxPrincipal + 1, AnnualRate: 0.07}, service.ErrInvalidPrincipal},
		{"negative rate", domain.PaymentInput{Principal: 1000, AnnualRate: -0.01}, service.ErrInvalidRate},
		{"term too long", domain.PaymentInput{Principal: 1000, AnnualRate: 0.07, TermYears: 51}, service.ErrInvalidTerm},
		{"lump fraction above one", domain.PaymentInput{Principal: 1000, AnnualRate: 0.07, LumpFraction: 1.5}, service.ErrInvalidLumpFraction},
		{"lump month past term", domain.PaymentInput{Principal: 1000, AnnualRate: 0.07, TermYears: 1, LumpMonth: 13}, service.ErrInvalidLumpMonth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No cache or repository calls are expected.
			svc, _, _ := newMockedService(t)

			_, err := svc.CalculatePayment(context.Background(), tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, service.ErrInvalidInput)
		})
	}
}

func TestCalculateCreditLine(t *testing.T) {
	repo := repository.NewLoanRepositoryMemory(10)
	svc := service.NewLoanService(repo, repository.NewMemoryCache(), service.DefaultSettings())
	ctx := context.Background()

	line, err := svc.CalculateCreditLine(ctx, domain.CreditLineInput{
		MonthlyBudget:         200,
		AnnualRate:            0.07,
		AppliedCreditFraction: 0.30,
	})
	require.NoError(t, err)
	assert.True(t, line.Converged)

	payment, err := svc.CalculatePayment(ctx, domain.PaymentInput{
		Principal:    line.Principal,
		AnnualRate:   0.07,
		LumpFraction: 0.30,
	})
	require.NoError(t, err)
	assert.InEpsilon(t, 200.0, payment.MonthlyPayment, 0.01)

	history, err := svc.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.KindPayment, history[0].Kind)
	assert.Equal(t, domain.KindCreditLine, history[1].Kind)
}

func TestCalculateCreditLine_InvalidInput(t *testing.T) {
	svc, _, _ := newMockedService(t)
	ctx := context.Background()

	_, err := svc.CalculateCreditLine(ctx, domain.CreditLineInput{MonthlyBudget: 0, AnnualRate: 0.07})
	assert.ErrorIs(t, err, service.ErrInvalidBudget)

	_, err = svc.CalculateCreditLine(ctx, domain.CreditLineInput{MonthlyBudget: 100, AnnualRate: 0.07, AppliedCreditFraction: -0.1})
	assert.ErrorIs(t, err, service.ErrInvalidCreditFraction)

	// At zero interest a full credit repays every principal, so no budget inverts.
	_, err = svc.CalculateCreditLine(ctx, domain.CreditLineInput{MonthlyBudget: 200, AnnualRate: 0, AppliedCreditFraction: 1})
	assert.ErrorIs(t, err, service.ErrInvalidCreditFraction)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestCalculateCreditLine_FullCreditWithInterest(t *testing.T) {
	svc := service.NewLoanService(
		repository.NewLoanRepositoryMemory(10),
		repository.NewMemoryCache(),
		service.DefaultSettings(),
	)

	line, err := svc.CalculateCreditLine(context.Background(), domain.CreditLineInput{
		MonthlyBudget:         200,
		AnnualRate:            0.07,
		AppliedCreditFraction: 1,
	})
	require.NoError(t, err)
	assert.True(t, line.Converged)
	assert.Greater(t, line.Principal, 0.0)
}

func TestQuote_FullPrimaryCreditAtZeroRate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defaults := service.DefaultSettings()
	defaults.PrimaryCreditFraction = 1

	// No cache or repository calls are expected.
	svc := service.NewLoanService(
		mock_repository.NewMockLoanRepository(ctrl),
		mock_repository.NewMockCacheRepository(ctrl),
		defaults,
	)

	_, err := svc.Quote(context.Background(), domain.QuoteInput{MonthlyBudget: 200, AnnualRate: 0})
	assert.ErrorIs(t, err, service.ErrInvalidCreditFraction)
}

func TestQuote(t *testing.T) {
	svc := service.NewLoanService(
		repository.NewLoanRepositoryMemory(10),
		repository.NewMemoryCache(),
		service.DefaultSettings(),
	)

	quote, err := svc.Quote(context.Background(), domain.QuoteInput{
		MonthlyBudget: 250,
		AnnualRate:    0.07,
	})
	require.NoError(t, err)
	require.Len(t, quote.Scenarios, 2)

	primary, comparison := quote.Scenarios[0], quote.Scenarios[1]
	assert.Equal(t, 0.30, primary.CreditFraction)
	assert.Equal(t, 0.15, comparison.CreditFraction)
	assert.InDelta(t, 250.0, primary.MonthlyPayment, 0.01)
	assert.Greater(t, comparison.MonthlyPayment, primary.MonthlyPayment)
	assert.Greater(t, quote.Principal, 0.0)
}

func TestHistory(t *testing.T) {
	svc, repo, _ := newMockedService(t)
	ctx := context.Background()

	records := []domain.CalculationRecord{{Kind: domain.KindQuote, Key: "quote:1"}}
	repo.EXPECT().Recent(ctx, 5).Return(records, nil)

	got, err := svc.History(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, records, got)

	repo.EXPECT().Recent(ctx, 0).Return(nil, errors.New("store unavailable"))
	_, err = svc.History(ctx, 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrInvalidInput)

	_, err = svc.History(ctx, service.MaxHistoryLimit+1)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
