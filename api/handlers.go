/*
handlers.go - HTTP handlers for the payroll consolidation service

PURPOSE:
  Exposes the consolidation engine and the source-record store via REST.
  Handles HTTP request/response, JSON serialization and DTO validation, and
  delegates everything else to the payroll package.

ENDPOINTS:
  Reference data:
    GET/POST /api/workers        Roster
    GET/POST /api/functions      Function catalog

  Source records:
    GET/POST /api/workdays       Attendance (GET accepts ?date=YYYY-MM-DD)
    GET/POST /api/bonuses
    GET/POST /api/discounts
    GET/POST /api/taxes

  Ledger (derived view):
    GET /api/ledger                                 Full consolidation
    GET /api/ledger/{date}                          One date
    PUT /api/ledger/{date}/workers/{workerID}/paid  Toggle paid flag

  Preview:
    POST /api/preview/daily-value  Points and suggested value

ERROR HANDLING:
  - 400: DTO validation, bad dates, engine ValidationError
  - 404: Missing ledger entry or payroll line
  - 500: Store failures

SEE ALSO:
  - dto.go: Request/response shapes
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/dirgocs/daywin/factory"
	"github.com/dirgocs/daywin/payroll"
	"github.com/dirgocs/daywin/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Engine   *payroll.ConsolidationEngine
	Settings factory.Settings

	validate *validator.Validate
}

// NewHandler creates a handler over the given store and settings.
func NewHandler(store *sqlite.Store, settings factory.Settings) *Handler {
	return &Handler{
		Store:    store,
		Engine:   &payroll.ConsolidationEngine{},
		Settings: settings,
		validate: validator.New(),
	}
}

// decodeAndValidate decodes the body into req and runs DTO validation.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return false
	}
	return true
}

// =============================================================================
// REFERENCE DATA HANDLERS
// =============================================================================

// ListWorkers returns the roster.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Store.ListWorkers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list workers", err)
		return
	}

	dtos := make([]WorkerDTO, len(workers))
	for i, worker := range workers {
		dtos[i] = WorkerDTO{ID: string(worker.ID), DisplayName: worker.DisplayName}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveWorker upserts a roster entry.
func (h *Handler) SaveWorker(w http.ResponseWriter, r *http.Request) {
	var req WorkerRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	worker := payroll.Worker{ID: payroll.WorkerID(req.ID), DisplayName: req.DisplayName}
	if err := h.Store.SaveWorker(r.Context(), worker); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save worker", err)
		return
	}
	writeJSON(w, http.StatusCreated, WorkerDTO{ID: req.ID, DisplayName: req.DisplayName})
}

// ListFunctions returns the function catalog.
func (h *Handler) ListFunctions(w http.ResponseWriter, r *http.Request) {
	functions, err := h.Store.ListFunctions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list functions", err)
		return
	}

	dtos := make([]FunctionDTO, len(functions))
	for i, fn := range functions {
		dtos[i] = FunctionDTO{
			ID:     string(fn.ID),
			Name:   fn.Name,
			Weight: fn.Weight.InexactFloat64(),
			Sector: string(fn.Sector()),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveFunction upserts a catalog entry.
func (h *Handler) SaveFunction(w http.ResponseWriter, r *http.Request) {
	var req FunctionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	fn := payroll.Function{
		ID:     payroll.FunctionID(req.ID),
		Name:   req.Name,
		Weight: decimal.NewFromFloat(req.Weight),
	}
	if err := h.Store.SaveFunction(r.Context(), fn); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save function", err)
		return
	}
	writeJSON(w, http.StatusCreated, FunctionDTO{
		ID: req.ID, Name: req.Name, Weight: req.Weight, Sector: string(fn.Sector()),
	})
}

// =============================================================================
// SOURCE RECORD HANDLERS
// =============================================================================

// ListWorkedDays returns attendance records, optionally for one date.
func (h *Handler) ListWorkedDays(w http.ResponseWriter, r *http.Request) {
	var date payroll.Date
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := payroll.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date filter", err)
			return
		}
		date = parsed
	}

	days, err := h.Store.ListWorkedDays(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list worked days", err)
		return
	}

	dtos := make([]WorkedDayDTO, len(days))
	for i, wd := range days {
		dtos[i] = WorkedDayDTO{
			ID:         wd.ID,
			Date:       wd.Date.String(),
			WorkerID:   string(wd.WorkerID),
			FunctionID: string(wd.FunctionID),
			Hours:      wd.Hours.InexactFloat64(),
			DailyValue: cents(wd.DailyValue),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveWorkedDay records attendance; a body with an id replaces that record.
func (h *Handler) SaveWorkedDay(w http.ResponseWriter, r *http.Request) {
	var req WorkedDayRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	date, err := payroll.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	saved, err := h.Store.SaveWorkedDay(r.Context(), payroll.WorkedDay{
		ID:         req.ID,
		Date:       date,
		WorkerID:   payroll.WorkerID(req.WorkerID),
		FunctionID: payroll.FunctionID(req.FunctionID),
		Hours:      decimal.NewFromFloat(req.Hours),
		DailyValue: decimal.NewFromFloat(req.DailyValue),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save worked day", err)
		return
	}

	writeJSON(w, http.StatusCreated, WorkedDayDTO{
		ID:         saved.ID,
		Date:       saved.Date.String(),
		WorkerID:   req.WorkerID,
		FunctionID: req.FunctionID,
		Hours:      req.Hours,
		DailyValue: req.DailyValue,
	})
}

// ListBonuses returns all bonus records.
func (h *Handler) ListBonuses(w http.ResponseWriter, r *http.Request) {
	bonuses, err := h.Store.ListBonuses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bonuses", err)
		return
	}

	dtos := make([]AmountDTO, len(bonuses))
	for i, b := range bonuses {
		dtos[i] = AmountDTO{ID: b.ID, Date: b.Date.String(), WorkerID: string(b.WorkerID), Amount: cents(b.Amount)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveBonus records a bonus.
func (h *Handler) SaveBonus(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	date, err := payroll.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	saved, err := h.Store.SaveBonus(r.Context(), payroll.Bonus{
		ID:       req.ID,
		Date:     date,
		WorkerID: payroll.WorkerID(req.WorkerID),
		Amount:   decimal.NewFromFloat(req.Amount),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save bonus", err)
		return
	}
	writeJSON(w, http.StatusCreated, AmountDTO{ID: saved.ID, Date: req.Date, WorkerID: req.WorkerID, Amount: req.Amount})
}

// ListDiscounts returns all discount records.
func (h *Handler) ListDiscounts(w http.ResponseWriter, r *http.Request) {
	discounts, err := h.Store.ListDiscounts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list discounts", err)
		return
	}

	dtos := make([]AmountDTO, len(discounts))
	for i, d := range discounts {
		dtos[i] = AmountDTO{ID: d.ID, Date: d.Date.String(), WorkerID: string(d.WorkerID), Amount: cents(d.Amount)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveDiscount records a discount.
func (h *Handler) SaveDiscount(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	date, err := payroll.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	saved, err := h.Store.SaveDiscount(r.Context(), payroll.Discount{
		ID:       req.ID,
		Date:     date,
		WorkerID: payroll.WorkerID(req.WorkerID),
		Amount:   decimal.NewFromFloat(req.Amount),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save discount", err)
		return
	}
	writeJSON(w, http.StatusCreated, AmountDTO{ID: saved.ID, Date: req.Date, WorkerID: req.WorkerID, Amount: req.Amount})
}

// ListTaxCollections returns all tax-collection records.
func (h *Handler) ListTaxCollections(w http.ResponseWriter, r *http.Request) {
	taxes, err := h.Store.ListTaxCollections(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tax collections", err)
		return
	}

	dtos := make([]TaxCollectionDTO, len(taxes))
	for i, tc := range taxes {
		dtos[i] = TaxCollectionDTO{ID: tc.ID, Date: tc.Date.String(), Amount: cents(tc.AmountCollected)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveTaxCollection records site-wide tax intake for a date.
func (h *Handler) SaveTaxCollection(w http.ResponseWriter, r *http.Request) {
	var req TaxCollectionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	date, err := payroll.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	saved, err := h.Store.SaveTaxCollection(r.Context(), payroll.TaxCollection{
		ID:              req.ID,
		Date:            date,
		AmountCollected: decimal.NewFromFloat(req.Amount),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save tax collection", err)
		return
	}
	writeJSON(w, http.StatusCreated, TaxCollectionDTO{ID: saved.ID, Date: req.Date, Amount: req.Amount})
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// buildLedger assembles the engine input from the store and consolidates.
func (h *Handler) buildLedger(r *http.Request) (*payroll.Ledger, error) {
	input, err := h.Store.LoadConsolidationInput(r.Context())
	if err != nil {
		return nil, err
	}
	return h.Engine.Consolidate(input)
}

// GetLedger rebuilds and returns the full consolidated ledger, newest first.
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.buildLedger(r)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerDTO(ledger))
}

// GetLedgerEntry returns the consolidated entry for one date.
func (h *Handler) GetLedgerEntry(w http.ResponseWriter, r *http.Request) {
	date, err := payroll.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	ledger, err := h.buildLedger(r)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	entry := ledger.Entry(date)
	if entry == nil {
		writeError(w, http.StatusNotFound, "No ledger entry for date", nil)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerEntryDTO(entry))
}

// SetPaid toggles one payroll line's paid flag, persists it, and returns the
// recomputed entry.
func (h *Handler) SetPaid(w http.ResponseWriter, r *http.Request) {
	date, err := payroll.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	workerID := payroll.WorkerID(chi.URLParam(r, "workerID"))

	var req SetPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ledger, err := h.buildLedger(r)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	entry, err := ledger.SetPaid(date, workerID, req.Paid)
	if err != nil {
		if errors.Is(err, payroll.ErrLineNotFound) {
			writeError(w, http.StatusNotFound, "Payroll line not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to set paid flag", err)
		return
	}

	// The flag is the only durable ledger state; persist it so the next
	// rebuild picks it up.
	key := payroll.PaidKey{Date: date, WorkerID: workerID}
	if err := h.Store.SetPaidFlag(r.Context(), key, req.Paid); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist paid flag", err)
		return
	}

	writeJSON(w, http.StatusOK, toLedgerEntryDTO(entry))
}

// =============================================================================
// PREVIEW HANDLER
// =============================================================================

// PreviewDailyValue computes the advisory points and suggested daily value
// for a function selection. The selection order in the request body is the
// order the user added the functions, which "primeira" depends on.
func (h *Handler) PreviewDailyValue(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	functions, err := h.Store.ListFunctions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list functions", err)
		return
	}
	byID := make(map[payroll.FunctionID]payroll.Function, len(functions))
	for _, fn := range functions {
		byID[fn.ID] = fn
	}

	selected := make([]payroll.Function, 0, len(req.FunctionIDs))
	for _, id := range req.FunctionIDs {
		fn, ok := byID[payroll.FunctionID(id)]
		if !ok {
			writeError(w, http.StatusBadRequest, "Unknown function: "+id, nil)
			return
		}
		selected = append(selected, fn)
	}

	policy := h.Settings.PointsPolicy
	if req.Policy != "" {
		policy = payroll.SelectionPolicy(req.Policy)
	}

	hours := decimal.NewFromFloat(req.Hours)
	multiplier := payroll.EffectiveMultiplier(selected, policy)

	writeJSON(w, http.StatusOK, PreviewDTO{
		Policy:              string(policy),
		Multiplier:          multiplier.InexactFloat64(),
		Points:              payroll.Points(hours, multiplier).InexactFloat64(),
		SuggestedDailyValue: cents(payroll.SuggestedDailyValue(hours, h.Settings.BaseRate, multiplier)),
	})
}

// ResetDatabase clears all data. Dev only.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeLedgerError maps consolidation failures: a ValidationError means a bad
// source record (client-fixable), anything else is a store failure.
func writeLedgerError(w http.ResponseWriter, err error) {
	if errors.Is(err, payroll.ErrNegativeAmount) {
		writeError(w, http.StatusBadRequest, "Invalid source record", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "Failed to consolidate ledger", err)
}
