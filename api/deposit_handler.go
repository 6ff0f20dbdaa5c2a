package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"piggyvault/domain/entities"
)

// DepositService is the slice of the application facade the deposit
// endpoints depend on
type DepositService interface {
	CreateDeposit(ctx context.Context, owner string, amount, planID int64) (*entities.DepositResult, error)
	Withdraw(ctx context.Context, owner string, depositID int64) (*entities.WithdrawalResult, error)
	EmergencyWithdraw(ctx context.Context, owner string, depositID int64) (*entities.WithdrawalResult, error)
	GetDeposit(ctx context.Context, depositID int64) (*entities.Deposit, error)
	CalculateCurrentInterest(ctx context.Context, depositID int64) (int64, error)
	ListDeposits(ctx context.Context, owner string) ([]*entities.Deposit, error)
	GetUserSummary(ctx context.Context, owner string) (*entities.UserSummary, error)
}

// DepositHandler serves the deposit lifecycle and the per-user read
// endpoints
type DepositHandler struct {
	service DepositService
}

// NewDepositHandler creates a DepositHandler
func NewDepositHandler(service DepositService) *DepositHandler {
	return &DepositHandler{service: service}
}

// Create opens a new time-locked deposit.
// POST /api/deposits
func (h *DepositHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "validation", "request body is not valid JSON")
		return
	}
	if req.Owner == "" {
		writeError(w, http.StatusBadRequest, entities.ErrCodeInvalidOwner, "validation", "owner is required")
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, entities.ErrCodeInvalidAmount, "validation", err.Error())
		return
	}

	result, err := h.service.CreateDeposit(r.Context(), req.Owner, amount, req.PlanID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCreateDepositResponse(result))
}

// Withdraw settles a matured deposit and pays out principal, interest and
// bonus.
// POST /api/deposits/{id}/withdraw
func (h *DepositHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	depositID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "validation", err.Error())
		return
	}
	owner, ok := decodeOwner(w, r)
	if !ok {
		return
	}

	result, err := h.service.Withdraw(r.Context(), owner, depositID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toWithdrawalResponse(result))
}

// EmergencyWithdraw exits a deposit before maturity, forfeiting interest
// and charging the early-exit penalty.
// POST /api/deposits/{id}/emergency-withdraw
func (h *DepositHandler) EmergencyWithdraw(w http.ResponseWriter, r *http.Request) {
	depositID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "validation", err.Error())
		return
	}
	owner, ok := decodeOwner(w, r)
	if !ok {
		return
	}

	result, err := h.service.EmergencyWithdraw(r.Context(), owner, depositID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toWithdrawalResponse(result))
}

// Get returns one deposit.
// GET /api/deposits/{id}
func (h *DepositHandler) Get(w http.ResponseWriter, r *http.Request) {
	depositID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "validation", err.Error())
		return
	}

	deposit, err := h.service.GetDeposit(r.Context(), depositID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if deposit == nil {
		writeError(w, http.StatusNotFound, entities.ErrCodeDepositNotFound, "validation", "deposit not found")
		return
	}

	writeJSON(w, http.StatusOK, toDepositResponse(deposit))
}

// Interest projects the interest accrued up to now without mutating
// anything. Settled deposits report their frozen accrual.
// GET /api/deposits/{id}/interest
func (h *DepositHandler) Interest(w http.ResponseWriter, r *http.Request) {
	depositID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "validation", err.Error())
		return
	}

	accrued, err := h.service.CalculateCurrentInterest(r.Context(), depositID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, interestResponse{
		DepositID:       depositID,
		AccruedInterest: formatUnits(accrued),
	})
}

// ListByOwner returns the owner's deposits in creation order.
// GET /api/users/{owner}/deposits
func (h *DepositHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")

	deposits, err := h.service.ListDeposits(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]depositResponse, 0, len(deposits))
	for _, deposit := range deposits {
		resp = append(resp, toDepositResponse(deposit))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Summary returns the owner's aggregate savings counters. Unknown owners
// get a zeroed summary rather than a 404.
// GET /api/users/{owner}/summary
func (h *DepositHandler) Summary(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")

	summary, err := h.service.GetUserSummary(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserSummaryResponse(summary))
}

// decodeOwner reads the owner field from a withdrawal request body and
// writes the error response itself when the body is unusable
func decodeOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "validation", "request body is not valid JSON")
		return "", false
	}
	if req.Owner == "" {
		writeError(w, http.StatusBadRequest, entities.ErrCodeInvalidOwner, "validation", "owner is required")
		return "", false
	}
	return req.Owner, true
}

// pathID parses a positive integer URL parameter
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}
