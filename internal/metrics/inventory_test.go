package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/server/internal/models"
)

func TestInventoryYoYRatio(t *testing.T) {
	e := testEngine()

	data := models.MarketData{
		Weekly: map[string][]models.WeeklyPoint{
			models.SeriesMonthsSupply: {
				// current 20, delta +5: year-ago level 15, ratio 1/3
				weekYoY(2026, 2, 22, 20, 5),
			},
			models.SeriesNewListings: {week(2026, 2, 22, 310)},
			models.SeriesHomesSold:   {week(2026, 2, 22, 185)},
		},
	}

	rows := e.Inventory(data)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].SupplyYoYRatio)
	assert.InDelta(t, 1.0/3.0, *rows[0].SupplyYoYRatio, 1e-9)
	assert.Equal(t, 310.0, rows[0].NewListings)
	assert.Equal(t, 185.0, rows[0].HomesSold)
}

func TestInventoryYoYRatioGuardedDenominator(t *testing.T) {
	e := testEngine()

	data := models.MarketData{
		Weekly: map[string][]models.WeeklyPoint{
			models.SeriesMonthsSupply: {
				// current 4, delta +10: year-ago level would be -6, so the
				// ratio must be reported as unavailable, not a negative number
				weekYoY(2026, 2, 22, 4, 10),
			},
		},
	}

	rows := e.Inventory(data)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].SupplyYoYRatio)
}

func TestInventoryMarketState(t *testing.T) {
	tests := []struct {
		name     string
		supply   float64
		expected string
	}{
		{"High supply favors buyers", 18.5, "Buyer's Market"},
		{"Low supply favors sellers", 7.9, "Seller's Market"},
		{"Boundary stays balanced", 18.0, "Balanced Market"},
		{"Mid-range balanced", 12.0, "Balanced Market"},
	}

	e := testEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := models.MarketData{
				Weekly: map[string][]models.WeeklyPoint{
					models.SeriesMonthsSupply: {week(2026, 2, 22, tt.supply)},
				},
			}
			rows := e.Inventory(data)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.expected, rows[0].MarketState)
		})
	}
}

func TestInventoryMissingSource(t *testing.T) {
	e := testEngine()
	assert.Empty(t, e.Inventory(models.MarketData{}))
}
