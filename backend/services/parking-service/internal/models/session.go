package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ParkingSession represents a vehicle occupying a reservable slot in a lot from
// gate-in to gate-out. Stopped and Cost are nil while the session is running.
type ParkingSession struct {
	ID            int64            `db:"id" json:"id"`
	LotID         int64            `db:"lot_id" json:"lot_id"`
	LicensePlate  string           `db:"license_plate" json:"license_plate"`
	Started       time.Time        `db:"started_at" json:"started_at"`
	Stopped       *time.Time       `db:"stopped_at" json:"stopped_at,omitempty"`
	Cost          *decimal.Decimal `db:"cost" json:"cost,omitempty"`
	PaymentStatus PaymentStatus    `db:"payment_status" json:"payment_status"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// Active reports whether the session is still running.
func (s *ParkingSession) Active() bool {
	return s.Stopped == nil
}
