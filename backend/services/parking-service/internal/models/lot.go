package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ParkingLot holds the capacity counters and tariffs for one physical lot.
// Version guards reserved-count updates against concurrent writers.
type ParkingLot struct {
	ID        int64           `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Location  string          `db:"location" json:"location"`
	Capacity  int             `db:"capacity" json:"capacity"`
	Reserved  int             `db:"reserved" json:"reserved"`
	Tariff    decimal.Decimal `db:"tariff" json:"tariff"`
	DayTariff decimal.Decimal `db:"day_tariff" json:"day_tariff"`
	Version   int64           `db:"version" json:"version"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// AvailableSpots never reports negative capacity.
func (l *ParkingLot) AvailableSpots() int {
	available := l.Capacity - l.Reserved
	if available < 0 {
		return 0
	}
	return available
}
