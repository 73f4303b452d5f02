package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/iho/mutledger/internal/adapter/http/dto"
	"github.com/iho/mutledger/internal/domain"
)

type dashboardService interface {
	Stats(ctx context.Context, actor *domain.Actor, start, end *time.Time) (domain.Dashboard, error)
}

// DashboardHandler serves dashboard statistics.
type DashboardHandler struct {
	dashboardUC dashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardUC dashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardUC: dashboardUC}
}

// Stats aggregates the caller's own entries over an optional date range.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	start, err := parseDateQuery(r, "startDate")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	end, err := parseDateQuery(r, "endDate")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	dash, err := h.dashboardUC.Stats(r.Context(), actorFrom(r), start, end)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DashboardFromDomain(dash))
}
