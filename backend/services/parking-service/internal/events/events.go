package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Queue names consumed by downstream billing and notification workers.
const (
	QueueSessionStarted = "parking.session.started"
	QueueSessionStopped = "parking.session.stopped"
)

// SessionStarted is published after a start saga commits.
type SessionStarted struct {
	SessionID      int64     `json:"session_id"`
	LotID          int64     `json:"lot_id"`
	LicensePlate   string    `json:"license_plate"`
	Started        time.Time `json:"started_at"`
	AvailableSpots int       `json:"available_spots"`
}

// SessionStopped is published after a stop saga commits.
type SessionStopped struct {
	SessionID    int64           `json:"session_id"`
	LotID        int64           `json:"lot_id"`
	LicensePlate string          `json:"license_plate"`
	Started      time.Time       `json:"started_at"`
	Stopped      time.Time       `json:"stopped_at"`
	Cost         decimal.Decimal `json:"cost"`
}
