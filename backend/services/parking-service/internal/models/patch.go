package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionPatch is the caller-supplied changeset for a session update. Nil fields
// were not provided. The store receives it alongside the mutated entity so it can
// keep partial-update semantics at the storage layer.
type SessionPatch struct {
	Stopped       *time.Time       `json:"stopped_at,omitempty"`
	Cost          *decimal.Decimal `json:"cost,omitempty"`
	PaymentStatus *PaymentStatus   `json:"payment_status,omitempty"`
}
