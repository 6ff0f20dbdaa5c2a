package api

import (
	"context"
	"net/http"

	"piggyvault/domain/entities"
)

// PlanService is the slice of the application facade the plan read
// endpoints depend on
type PlanService interface {
	GetPlan(ctx context.Context, planID int64) (*entities.SavingsPlan, error)
	ListPlans(ctx context.Context, activeOnly bool) ([]*entities.SavingsPlan, error)
}

// PlanHandler serves the savings plan catalog
type PlanHandler struct {
	service PlanService
}

// NewPlanHandler creates a PlanHandler
func NewPlanHandler(service PlanService) *PlanHandler {
	return &PlanHandler{service: service}
}

// List returns the plan catalog. Inactive plans are included only with
// ?include_inactive=true.
// GET /api/plans
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("include_inactive") != "true"

	plans, err := h.service.ListPlans(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]planResponse, 0, len(plans))
	for _, plan := range plans {
		resp = append(resp, toPlanResponse(plan))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one plan.
// GET /api/plans/{id}
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	planID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "validation", err.Error())
		return
	}

	plan, err := h.service.GetPlan(r.Context(), planID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if plan == nil {
		writeError(w, http.StatusNotFound, entities.ErrCodePlanNotFound, "validation", "savings plan not found")
		return
	}

	writeJSON(w, http.StatusOK, toPlanResponse(plan))
}
