package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"solar-loan/domain"
	"solar-loan/service"
)

type LoanHandler struct {
	service *service.LoanService
}

func NewLoanHandler(service *service.LoanService) *LoanHandler {
	return &LoanHandler{service: service}
}

// Routes registers the loan endpoints on mux.
func (h *LoanHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/loan/payment", h.CalculatePayment)
	mux.HandleFunc("/loan/heloc", h.CalculateCreditLine)
	mux.HandleFunc("/loan/quote", h.Quote)
	mux.HandleFunc("/loan/history", h.History)
	mux.HandleFunc("/healthz", Health)
}

// queryParser collects the first malformed parameter so handlers can read
// every field and check once.
type queryParser struct {
	values url.Values
	err    error
}

func (p *queryParser) float(name string, fallback float64) float64 {
	raw := p.values.Get(name)
	if raw == "" || p.err != nil {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.err = fmt.Errorf("parámetro %s inválido: %q", name, raw)
		return fallback
	}
	return v
}

func (p *queryParser) requiredFloat(name string) float64 {
	if p.err == nil && p.values.Get(name) == "" {
		p.err = fmt.Errorf("falta el parámetro %s", name)
		return 0
	}
	return p.float(name, 0)
}

func (p *queryParser) integer(name string) int {
	raw := p.values.Get(name)
	if raw == "" || p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.err = fmt.Errorf("parámetro %s inválido: %q", name, raw)
		return 0
	}
	return v
}

func (h *LoanHandler) CalculatePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := queryParser{values: r.URL.Query()}
	input := domain.PaymentInput{
		Principal:    q.requiredFloat("principal"),
		AnnualRate:   q.float("rate", h.service.Defaults().AnnualRate),
		LumpFraction: q.float("lump_fraction", 0),
		LumpMonth:    q.integer("lump_month"),
		TermYears:    q.integer("term_years"),
	}
	if q.err != nil {
		http.Error(w, q.err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.CalculatePayment(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, result)
}

func (h *LoanHandler) CalculateCreditLine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defaults := h.service.Defaults()
	q := queryParser{values: r.URL.Query()}
	input := domain.CreditLineInput{
		MonthlyBudget:         q.requiredFloat("budget"),
		AnnualRate:            q.float("rate", defaults.AnnualRate),
		AppliedCreditFraction: q.float("credit_fraction", defaults.PrimaryCreditFraction),
		TermYears:             q.integer("term_years"),
		LumpMonth:             q.integer("lump_month"),
	}
	if q.err != nil {
		http.Error(w, q.err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.CalculateCreditLine(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, result)
}

func (h *LoanHandler) Quote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := queryParser{values: r.URL.Query()}
	input := domain.QuoteInput{
		MonthlyBudget: q.requiredFloat("budget"),
		AnnualRate:    q.float("rate", h.service.Defaults().AnnualRate),
		TermYears:     q.integer("term_years"),
	}
	if q.err != nil {
		http.Error(w, q.err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.Quote(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, result)
}

// History lists recent calculations served by this process.
func (h *LoanHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := queryParser{values: r.URL.Query()}
	limit := q.integer("limit")
	if q.err != nil {
		http.Error(w, q.err.Error(), http.StatusBadRequest)
		return
	}

	records, err := h.service.History(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, records)
}

func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrInvalidInput) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	slog.Error("calculation failed", "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// writeJSON encodes into a buffer first so a failed encode can still send a 500.
func writeJSON(w http.ResponseWriter, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("error encoding response", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("error writing response", "error", err)
	}
}
