package api

import (
	"context"
	"encoding/json"
	"net/http"

	"piggyvault/domain/entities"
)

// AdminService is the slice of the application facade behind the
// token-guarded admin surface
type AdminService interface {
	SetPlan(ctx context.Context, plan *entities.SavingsPlan) (*entities.SavingsPlan, error)
	SetPlanMultiplier(ctx context.Context, planID, multiplierBasisPoints int64) error
	SetGlobalMultiplier(ctx context.Context, multiplierBasisPoints int64) error
	FundRewardPool(ctx context.Context, funder string, amount int64) (*entities.RewardPool, error)
}

// AdminHandler serves plan administration and reward pool funding
type AdminHandler struct {
	service AdminService
}

// NewAdminHandler creates an AdminHandler
func NewAdminHandler(service AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// UpsertPlan creates or replaces the plan definition stored under the path
// ID.
// PUT /api/admin/plans/{id}
func (h *AdminHandler) UpsertPlan(w http.ResponseWriter, r *http.Request) {
	planID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "validation", err.Error())
		return
	}

	var req upsertPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "validation", "request body is not valid JSON")
		return
	}

	plan, err := req.toPlan(planID)
	if err != nil {
		writeError(w, http.StatusBadRequest, entities.ErrCodeInvalidAmount, "validation", err.Error())
		return
	}

	stored, err := h.service.SetPlan(r.Context(), plan)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPlanResponse(stored))
}

// SetPlanMultiplier adjusts one plan's APY multiplier.
// POST /api/admin/plans/{id}/multiplier
func (h *AdminHandler) SetPlanMultiplier(w http.ResponseWriter, r *http.Request) {
	planID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "validation", err.Error())
		return
	}

	var req multiplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "validation", "request body is not valid JSON")
		return
	}

	if err := h.service.SetPlanMultiplier(r.Context(), planID, req.MultiplierBasisPoints); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{
		"plan_id":                 planID,
		"multiplier_basis_points": req.MultiplierBasisPoints,
	})
}

// SetGlobalMultiplier adjusts the vault-wide APY multiplier applied to
// every plan.
// POST /api/admin/global-multiplier
func (h *AdminHandler) SetGlobalMultiplier(w http.ResponseWriter, r *http.Request) {
	var req multiplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "validation", "request body is not valid JSON")
		return
	}

	if err := h.service.SetGlobalMultiplier(r.Context(), req.MultiplierBasisPoints); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{
		"multiplier_basis_points": req.MultiplierBasisPoints,
	})
}

// FundPool moves funds from the funder's account into the maturity bonus
// pool. An empty funder debits the configured admin account.
// POST /api/admin/reward-pool/fund
func (h *AdminHandler) FundPool(w http.ResponseWriter, r *http.Request) {
	var req fundPoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "validation", "request body is not valid JSON")
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, entities.ErrCodeInvalidAmount, "validation", err.Error())
		return
	}

	pool, err := h.service.FundRewardPool(r.Context(), req.Funder, amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRewardPoolResponse(pool))
}
