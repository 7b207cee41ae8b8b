package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkgate/backend/services/parking-service/internal/models"
)

func tariffLot(tariff, dayTariff int64) *models.ParkingLot {
	return &models.ParkingLot{
		ID:        1,
		Capacity:  100,
		Tariff:    decimal.NewFromInt(tariff),
		DayTariff: decimal.NewFromInt(dayTariff),
	}
}

func TestCalculateCost(t *testing.T) {
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	calc := NewCalculator()

	tests := []struct {
		name      string
		lot       *models.ParkingLot
		duration  time.Duration
		wantPrice int64
		wantHours int
		wantDays  int
	}{
		{
			name:      "five minutes bills one hour",
			lot:       tariffLot(2, 20),
			duration:  5 * time.Minute,
			wantPrice: 2,
			wantHours: 1,
		},
		{
			name:      "zero duration bills one hour",
			lot:       tariffLot(2, 20),
			duration:  0,
			wantPrice: 2,
			wantHours: 1,
		},
		{
			name:      "partial hour rounds up",
			lot:       tariffLot(2, 20),
			duration:  90 * time.Minute,
			wantPrice: 4,
			wantHours: 2,
		},
		{
			name:      "exact hours",
			lot:       tariffLot(2, 20),
			duration:  3 * time.Hour,
			wantPrice: 6,
			wantHours: 3,
		},
		{
			name:      "remainder capped at day tariff",
			lot:       tariffLot(3, 20),
			duration:  10 * time.Hour,
			wantPrice: 20,
			wantHours: 10,
		},
		{
			name:      "full day",
			lot:       tariffLot(2, 20),
			duration:  24 * time.Hour,
			wantPrice: 20,
			wantHours: 24,
			wantDays:  1,
		},
		{
			name:      "day plus remainder",
			lot:       tariffLot(2, 20),
			duration:  26 * time.Hour,
			wantPrice: 24,
			wantHours: 26,
			wantDays:  1,
		},
		{
			name:      "two days with capped remainder",
			lot:       tariffLot(3, 20),
			duration:  (48 + 12) * time.Hour,
			wantPrice: 60,
			wantHours: 60,
			wantDays:  2,
		},
		{
			name:      "zero day tariff leaves remainder uncapped",
			lot:       tariffLot(3, 0),
			duration:  10 * time.Hour,
			wantPrice: 30,
			wantHours: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := calc.CalculateCost(tt.lot, start, start.Add(tt.duration))
			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(tt.wantPrice).Equal(quote.Price),
				"want %d, got %s", tt.wantPrice, quote.Price)
			assert.Equal(t, tt.wantHours, quote.BillableHours)
			assert.Equal(t, tt.wantDays, quote.BillableDays)
		})
	}
}

func TestCalculateCostErrors(t *testing.T) {
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	calc := NewCalculator()

	_, err := calc.CalculateCost(nil, start, start.Add(time.Hour))
	assert.ErrorIs(t, err, ErrNoLot)

	_, err = calc.CalculateCost(tariffLot(2, 20), start, start.Add(-time.Minute))
	assert.ErrorIs(t, err, ErrStopBeforeStart)
}
