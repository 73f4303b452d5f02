package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/mutledger/internal/adapter/http/dto"
)

func TestDashboardHandler_Stats(t *testing.T) {
	h := newHandlers()
	createEntry(t, h, userActor)
	createEntry(t, h, userActor)
	createEntry(t, h, otherUser)

	rec := httptest.NewRecorder()
	h.dashboard.Stats(rec, withActor(httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil), userActor))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[dto.DashboardResponse](t, rec)
	assert.Equal(t, "2200", resp.Totals.TotalDeposit.String())
	assert.Len(t, resp.Recent, 2)
	require.Len(t, resp.Daily, 1)
	assert.Equal(t, "2200", resp.Daily[0].TotalDeposit.String())

	t.Run("invalid range", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/dashboard/stats?startDate=2024-05-02&endDate=2024-05-01", nil)
		h.dashboard.Stats(rec, withActor(req, userActor))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty range", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/dashboard/stats?startDate=2001-01-01&endDate=2001-01-02", nil)
		h.dashboard.Stats(rec, withActor(req, userActor))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"daily":[]`)
	})
}
