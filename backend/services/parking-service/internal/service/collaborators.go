package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"parkgate/backend/services/parking-service/internal/clients"
	"parkgate/backend/services/parking-service/internal/events"
	"parkgate/backend/services/parking-service/internal/models"
	"parkgate/backend/services/parking-service/internal/pricing"
	redisstore "parkgate/backend/services/parking-service/internal/redis"
)

// The engine owns no transaction spanning its collaborators; each is an
// independent system reached through one of these contracts. Absence is
// signaled with the repository sentinel errors.

// SessionStore is the durable record of sessions.
type SessionStore interface {
	GetByID(ctx context.Context, id int64) (*models.ParkingSession, error)
	GetActiveByPlate(ctx context.Context, plate string) (*models.ParkingSession, error)
	GetByLot(ctx context.Context, lotID int64) ([]models.ParkingSession, error)
	GetByPlate(ctx context.Context, plate string) ([]models.ParkingSession, error)
	GetByStatus(ctx context.Context, status models.PaymentStatus) ([]models.ParkingSession, error)
	GetAll(ctx context.Context) ([]models.ParkingSession, error)
	GetActive(ctx context.Context) ([]models.ParkingSession, error)
	GetRecentByPlate(ctx context.Context, plate string, within time.Duration) ([]models.ParkingSession, error)
	CreateWithID(ctx context.Context, s *models.ParkingSession) (created bool, id int64, err error)
	Update(ctx context.Context, s *models.ParkingSession, patch models.SessionPatch) (bool, error)
	Delete(ctx context.Context, s *models.ParkingSession) (bool, error)
	Count(ctx context.Context) (int, error)
}

// LotCapacityService reads lots and writes the reserved counter.
type LotCapacityService interface {
	GetByID(ctx context.Context, id int64) (*models.ParkingLot, error)
	UpdateReserved(ctx context.Context, lot *models.ParkingLot) error
}

// PricingGateway computes the cost of a parked interval.
type PricingGateway interface {
	CalculateCost(lot *models.ParkingLot, start, stop time.Time) (pricing.Quote, error)
}

// PaymentAuthorizer approves or declines a card hold.
type PaymentAuthorizer interface {
	Preauthorize(ctx context.Context, cardToken string, amount decimal.Decimal, simulateDecline bool) (clients.PreAuthDecision, error)
}

// GateActuator opens the physical gate for a lot.
type GateActuator interface {
	OpenGate(ctx context.Context, lotID int64, plate string) (bool, error)
}

// OwnershipDirectory maps users to their registered plates.
type OwnershipDirectory interface {
	GetByUser(ctx context.Context, userID int64) ([]models.UserPlate, error)
}

// ActiveSessionCache is the optional fast-path lookup for running sessions.
type ActiveSessionCache interface {
	Save(ctx context.Context, session redisstore.ActiveSession) error
	Get(ctx context.Context, plate string) (*redisstore.ActiveSession, error)
	Delete(ctx context.Context, plate string) error
}

// EventPublisher emits lifecycle events after a saga commits.
type EventPublisher interface {
	SessionStarted(ctx context.Context, event events.SessionStarted)
	SessionStopped(ctx context.Context, event events.SessionStopped)
}
