package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"financas/internal/calendar"
	"financas/internal/core"
	"financas/internal/currency"
	applog "financas/internal/log"
	"financas/internal/remote"
)

type transactionRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Kind        string `json:"kind"`
	Date        string `json:"date"`
	BudgetID    string `json:"budget_id,omitempty"`
}

type budgetRequest struct {
	Name  string `json:"name"`
	Limit string `json:"limit"`
}

type balanceRequest struct {
	Amount string `json:"amount"`
}

type monthResponse struct {
	MonthKey string               `json:"month_key"`
	Data     core.MonthData       `json:"data"`
	Summary  core.Summary         `json:"summary"`
	Calendar calendar.MonthLayout `json:"calendar"`
}

type summaryResponse struct {
	MonthKey  string            `json:"month_key"`
	Summary   core.Summary      `json:"summary"`
	Currency  string            `json:"currency"`
	Formatted map[string]string `json:"formatted"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// selectMonth resolves the "month" query parameter (current month when
// absent) and moves the store's date selection there. Handlers operate
// on the returned pair, never on the shared selection, so concurrent
// requests for different months cannot cross.
func (s *Server) selectMonth(r *http.Request) (int, int, error) {
	key := r.URL.Query().Get("month")
	if key == "" {
		now := time.Now()
		year, month := now.Year(), int(now.Month())
		s.store.Select(year, month)
		return year, month, nil
	}
	year, month, err := calendar.ParseMonthKey(key)
	if err != nil {
		return 0, 0, err
	}
	s.store.Select(year, month)
	return year, month, nil
}

// currencyFor resolves the display currency from the request, falling
// back to the configured default for absent or unknown codes.
func (s *Server) currencyFor(r *http.Request) currency.Code {
	if c := currency.Code(r.URL.Query().Get("currency")); c.IsValid() {
		return c
	}
	return s.defaultCurrency
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps domain errors onto HTTP statuses: validation
// failures are the client's fault, missing entities are 404, and remote
// errors mean the backend is unreachable.
func writeDomainError(w http.ResponseWriter, err error) {
	var re *remote.Error
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &re):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func (s *Server) handleGetMonth(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.selectMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := s.store.Partition(r.Context(), year, month)
	if err != nil {
		// Local data is still served; flag the degraded read.
		slog.WarnContext(r.Context(), "Serving partition without remote data", applog.FieldError, err)
		w.Header().Set("X-Data-Source", "local")
	}

	key := calendar.MonthKey(year, month)
	writeJSON(w, http.StatusOK, monthResponse{
		MonthKey: key,
		Data:     data,
		Summary:  core.Summarize(data),
		Calendar: calendar.Layout(year, month),
	})
}

func (s *Server) handleGetCalendar(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.selectMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, calendar.Layout(year, month))
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.selectMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	key := calendar.MonthKey(year, month)

	summary, ok := s.summaryCache.Get(key)
	if !ok {
		data, err := s.store.Partition(r.Context(), year, month)
		if err != nil {
			slog.WarnContext(r.Context(), "Summary computed without remote data", applog.FieldError, err)
		}
		summary = core.Summarize(data)
		s.summaryCache.Set(key, summary)
	}

	code := s.currencyFor(r)
	writeJSON(w, http.StatusOK, summaryResponse{
		MonthKey: key,
		Summary:  summary,
		Currency: string(code),
		Formatted: map[string]string{
			"total_income":      currency.Format(code, summary.TotalIncome.Cents),
			"total_expenses":    currency.Format(code, summary.TotalExpenses.Cents),
			"total_investments": currency.Format(code, summary.TotalInvestments.Cents),
			"balance":           currency.Format(code, summary.Balance.Cents),
			"total_budgeted":    currency.Format(code, summary.TotalBudgeted.Cents),
			"total_used":        currency.Format(code, summary.TotalUsed.Cents),
			"remaining_budget":  currency.Format(code, summary.RemainingBudget.Cents),
			"estimated_balance": currency.Format(code, summary.EstimatedBalance.Cents),
		},
	})
}

func (s *Server) handleSetBalance(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.selectMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req balanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Non-numeric input degrades to zero instead of failing: the balance
	// field is free-form on purpose.
	cents := core.CoerceDecimalToCents(req.Amount)
	s.store.SetInitialBalance(r.Context(), year, month, cents)
	s.summaryCache.Delete(calendar.MonthKey(year, month))

	writeJSON(w, http.StatusOK, map[string]int64{"balance_cents": cents})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.selectMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	key := calendar.MonthKey(year, month)

	data, err := s.store.Reload(r.Context(), year, month)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.summaryCache.Delete(key)

	writeJSON(w, http.StatusOK, monthResponse{
		MonthKey: key,
		Data:     data,
		Summary:  core.Summarize(data),
		Calendar: calendar.Layout(year, month),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.selectMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := s.parseTransaction(r, year, month)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.store.AddTransaction(r.Context(), t)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.summaryCache.Delete(calendar.MonthKeyFor(created.Date.Time))

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.selectMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := s.parseTransaction(r, year, month)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	if err := s.store.EditTransaction(r.Context(), year, month, id, t); err != nil {
		writeDomainError(w, err)
		return
	}
	// The record may have moved partitions; invalidate both months.
	s.summaryCache.Delete(calendar.MonthKey(year, month))
	s.summaryCache.Delete(calendar.MonthKeyFor(t.Date.Time))

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.selectMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	if err := s.store.RemoveTransaction(r.Context(), year, month, id); err != nil {
		writeDomainError(w, err)
		return
	}
	s.summaryCache.Delete(calendar.MonthKey(year, month))

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.selectMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := parseBudget(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.store.AddBudget(r.Context(), year, month, b)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.summaryCache.Delete(calendar.MonthKey(year, month))

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.selectMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := parseBudget(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	if err := s.store.EditBudget(r.Context(), year, month, id, b); err != nil {
		writeDomainError(w, err)
		return
	}
	s.summaryCache.Delete(calendar.MonthKey(year, month))

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.selectMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	if err := s.store.RemoveBudget(r.Context(), year, month, id); err != nil {
		writeDomainError(w, err)
		return
	}
	s.summaryCache.Delete(calendar.MonthKey(year, month))

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetUsage(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.selectMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := s.store.Partition(r.Context(), year, month)
	if err != nil {
		slog.WarnContext(r.Context(), "Budget usage computed without remote data", applog.FieldError, err)
	}

	id := r.PathValue("id")
	writeJSON(w, http.StatusOK, data.Usage(id))
}

func (s *Server) handleSyncFailures(w http.ResponseWriter, r *http.Request) {
	failures := s.store.Failures()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(failures),
		"failures": failures,
	})
}

func (s *Server) parseTransaction(r *http.Request, year, month int) (core.Transaction, error) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return core.Transaction{}, errors.New("invalid request body")
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		// Absent date falls back to the selected day within the
		// request's month.
		if req.Date != "" {
			return core.Transaction{}, err
		}
		date = core.NewDate(year, month, calendar.ClampDay(s.store.SelectedDay(), year, month))
	}

	return core.Transaction{
		Description: req.Description,
		Amount:      core.Money{Cents: cents},
		Kind:        core.Kind(req.Kind),
		Date:        date,
		BudgetID:    req.BudgetID,
	}, nil
}

func parseBudget(r *http.Request) (core.Budget, error) {
	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return core.Budget{}, errors.New("invalid request body")
	}

	cents, err := core.ParseDecimalToCents(req.Limit)
	if err != nil {
		return core.Budget{}, err
	}

	return core.Budget{
		Name:  req.Name,
		Limit: core.Money{Cents: cents},
	}, nil
}
