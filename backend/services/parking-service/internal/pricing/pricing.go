package pricing

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"parkgate/backend/services/parking-service/internal/models"
)

// Quote is the outcome of a cost calculation.
type Quote struct {
	Price         decimal.Decimal
	BillableHours int
	BillableDays  int
}

var (
	// ErrNoLot is returned when the lot reference is missing.
	ErrNoLot = errors.New("pricing: lot is required")
	// ErrStopBeforeStart is returned for inverted time ranges.
	ErrStopBeforeStart = errors.New("pricing: stop time precedes start time")
)

// Calculator prices a parked interval from the lot's tariffs. Parking is billed
// per started hour; each block of 24 hours is charged at the lot's day tariff,
// and the remainder never exceeds one extra day tariff.
type Calculator struct{}

// NewCalculator returns the tariff calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// CalculateCost prices the interval [start, stop] against the lot tariffs.
func (c *Calculator) CalculateCost(lot *models.ParkingLot, start, stop time.Time) (Quote, error) {
	if lot == nil {
		return Quote{}, ErrNoLot
	}
	if stop.Before(start) {
		return Quote{}, ErrStopBeforeStart
	}

	hours := int(math.Ceil(stop.Sub(start).Hours()))
	if hours < 1 {
		hours = 1
	}
	days := hours / 24
	remainder := hours % 24

	remainderCost := lot.Tariff.Mul(decimal.NewFromInt(int64(remainder)))
	if lot.DayTariff.IsPositive() && remainderCost.GreaterThan(lot.DayTariff) {
		remainderCost = lot.DayTariff
	}
	price := lot.DayTariff.Mul(decimal.NewFromInt(int64(days))).Add(remainderCost)

	return Quote{
		Price:         price,
		BillableHours: hours,
		BillableDays:  days,
	}, nil
}
