package metrics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/server/internal/models"
)

func TestPricePressureSignalSequence(t *testing.T) {
	e := testEngine()

	data := models.MarketData{
		Weekly: map[string][]models.WeeklyPoint{
			models.SeriesMedianSalePrice: {
				week(2026, 2, 8, 420000),
				week(2026, 2, 15, 428000),
				week(2026, 2, 22, 418250),
			},
			models.SeriesSaleToList: {
				week(2026, 2, 8, 1.01),
				week(2026, 2, 15, 0.961),
				week(2026, 2, 22, 0.9526),
			},
		},
	}

	rows := e.PricePressure(data)
	require.Len(t, rows, 3)

	// Earliest week has no prior comparator.
	assert.Nil(t, rows[0].WoWPct)
	require.NotNil(t, rows[1].WoWPct)
	assert.InDelta(t, 0.019, *rows[1].WoWPct, 0.0005)
	require.NotNil(t, rows[2].WoWPct)
	assert.InDelta(t, -0.023, *rows[2].WoWPct, 0.0005)

	assert.True(t, strings.HasPrefix(rows[0].Signal, "SELLERS CONTROL"))
	assert.True(t, strings.HasPrefix(rows[1].Signal, "NEUTRAL"))
	assert.True(t, strings.HasPrefix(rows[2].Signal, "BUYERS LEVERAGE"))

	// Trend direction appears only once the WoW delta is known.
	assert.NotContains(t, rows[0].Signal, "trending")
	assert.Contains(t, rows[1].Signal, "price trending up")
	assert.Contains(t, rows[2].Signal, "price trending down")
}

func TestPressureSignalBoundaries(t *testing.T) {
	tests := []struct {
		ratio    float64
		expected string
	}{
		{1.01, "SELLERS CONTROL"},
		{1.00, "NEUTRAL"},
		{0.961, "NEUTRAL"},
		{0.96, "NEUTRAL"},
		{0.9599, "BUYERS LEVERAGE"},
		{0.9526, "BUYERS LEVERAGE"},
	}

	for _, tt := range tests {
		signal := pressureSignal(tt.ratio, nil)
		assert.True(t, strings.HasPrefix(signal, tt.expected), "ratio %.4f got %s", tt.ratio, signal)
	}
}

func TestPricePressureWindowIsLatestFourWeeks(t *testing.T) {
	e := testEngine()

	var prices []models.WeeklyPoint
	for i := 0; i < 10; i++ {
		prices = append(prices, week(2026, 1, 1+7*i, 400000+float64(i)*1000))
	}
	data := models.MarketData{
		Weekly: map[string][]models.WeeklyPoint{models.SeriesMedianSalePrice: prices},
	}

	rows := e.PricePressure(data)
	require.Len(t, rows, 4)
	assert.Equal(t, 406000.0, rows[0].MedianPrice)
	assert.Equal(t, 409000.0, rows[3].MedianPrice)
	// Chronologically ascending
	assert.True(t, rows[0].Week < rows[3].Week)
}

func TestPricePressureCarriesSourceYoY(t *testing.T) {
	e := testEngine()

	data := models.MarketData{
		Weekly: map[string][]models.WeeklyPoint{
			models.SeriesMedianSalePrice: {
				weekYoY(2026, 2, 22, 418250, 0.042),
			},
		},
	}

	rows := e.PricePressure(data)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].YoYPct)
	assert.InDelta(t, 0.042, *rows[0].YoYPct, 1e-9)
}

func TestPricePressureMissingSource(t *testing.T) {
	e := testEngine()

	assert.Empty(t, e.PricePressure(models.MarketData{}))
	assert.Empty(t, e.PricePressure(models.MarketData{
		Weekly: map[string][]models.WeeklyPoint{},
	}))
}
