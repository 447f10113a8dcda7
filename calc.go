package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"solar-loan/domain"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// rateFlag returns the --rate value, or the configured default when unset.
func rateFlag(cmd *cobra.Command) (float64, error) {
	if !cmd.Flags().Changed("rate") {
		return cfg.Calculation.AnnualRate, nil
	}
	rate, err := cmd.Flags().GetFloat64("rate")
	if err != nil {
		return 0, fmt.Errorf("failed to read --rate: %w", err)
	}
	return rate, nil
}

func paymentCmd() *cobra.Command {
	var input domain.PaymentInput

	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Monthly payment for a principal with a lump-sum paydown",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := newLoanService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if input.AnnualRate, err = rateFlag(cmd); err != nil {
				return err
			}
			result, err := svc.CalculatePayment(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().Float64Var(&input.Principal, "principal", 0, "loan principal in dollars")
	cmd.Flags().Float64("rate", 0, "annual interest rate as a fraction (default from config)")
	cmd.Flags().Float64Var(&input.LumpFraction, "lump-fraction", 0, "fraction of the principal paid as a lump sum")
	cmd.Flags().IntVar(&input.LumpMonth, "lump-month", 0, "month the lump sum is paid (default from config)")
	cmd.Flags().IntVar(&input.TermYears, "term-years", 0, "loan term in years (default from config)")
	_ = cmd.MarkFlagRequired("principal")
	return cmd
}

func helocCmd() *cobra.Command {
	var input domain.CreditLineInput

	cmd := &cobra.Command{
		Use:   "heloc",
		Short: "Largest principal a monthly budget supports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := newLoanService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if input.AnnualRate, err = rateFlag(cmd); err != nil {
				return err
			}
			if !cmd.Flags().Changed("credit-fraction") {
				input.AppliedCreditFraction = cfg.Calculation.PrimaryCreditFraction
			}
			result, err := svc.CalculateCreditLine(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().Float64Var(&input.MonthlyBudget, "budget", 0, "monthly payment budget in dollars")
	cmd.Flags().Float64("rate", 0, "annual interest rate as a fraction (default from config)")
	cmd.Flags().Float64Var(&input.AppliedCreditFraction, "credit-fraction", 0, "fraction of the principal returned as a credit (default from config)")
	cmd.Flags().IntVar(&input.LumpMonth, "lump-month", 0, "month the credit is paid down (default from config)")
	cmd.Flags().IntVar(&input.TermYears, "term-years", 0, "loan term in years (default from config)")
	_ = cmd.MarkFlagRequired("budget")
	return cmd
}

func quoteCmd() *cobra.Command {
	var input domain.QuoteInput

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Credit line for a budget and the payments at both credit fractions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := newLoanService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if input.AnnualRate, err = rateFlag(cmd); err != nil {
				return err
			}
			result, err := svc.Quote(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().Float64Var(&input.MonthlyBudget, "budget", 0, "monthly payment budget in dollars")
	cmd.Flags().Float64("rate", 0, "annual interest rate as a fraction (default from config)")
	cmd.Flags().IntVar(&input.TermYears, "term-years", 0, "loan term in years (default from config)")
	_ = cmd.MarkFlagRequired("budget")
	return cmd
}
