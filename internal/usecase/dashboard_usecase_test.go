package usecase_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/mutledger/internal/domain"
)

func TestDashboardUseCase_Stats(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	day := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	put := func(id, owner string, at time.Time, deposit string) {
		f.entries.Put(&domain.Entry{
			ID:             id,
			OwnerID:        owner,
			Status:         domain.StatusApproved,
			CreatedAt:      at,
			PanelDeposit:   *dec(deposit),
			CommissionRate: domain.DefaultCommissionRate,
		})
	}
	put("a1", admin.ID, day.Add(time.Hour), "100")
	put("a2", admin.ID, day.AddDate(0, 0, 1), "50")
	put("u1", alice.ID, day.Add(2*time.Hour), "999")

	t.Run("only own entries, even for admin", func(t *testing.T) {
		dash, err := f.dashUC.Stats(ctx, admin, nil, nil)
		require.NoError(t, err)

		assert.True(t, dash.Totals.TotalDeposit.Equal(*dec("150")), "got %s", dash.Totals.TotalDeposit)
		assert.Equal(t, []string{"2/4", "3/4"}, slices.Collect(dash.Daily.Labels()))
		require.Len(t, dash.Recent, 2)
		assert.Equal(t, "a2", dash.Recent[0].ID)
	})

	t.Run("date range", func(t *testing.T) {
		dash, err := f.dashUC.Stats(ctx, admin, &day, &day)
		require.NoError(t, err)

		assert.True(t, dash.Totals.TotalDeposit.Equal(*dec("100")))
		assert.Equal(t, 1, dash.Daily.Len())
	})

	t.Run("no entries", func(t *testing.T) {
		dash, err := f.dashUC.Stats(ctx, bob, nil, nil)
		require.NoError(t, err)

		assert.Zero(t, dash.Daily.Len())
		assert.Empty(t, dash.Recent)
	})

	t.Run("missing actor", func(t *testing.T) {
		_, err := f.dashUC.Stats(ctx, nil, nil, nil)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
