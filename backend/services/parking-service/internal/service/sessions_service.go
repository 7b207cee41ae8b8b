package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"parkgate/backend/services/parking-service/internal/events"
	"parkgate/backend/services/parking-service/internal/models"
	"parkgate/backend/services/parking-service/internal/monitoring"
	redisstore "parkgate/backend/services/parking-service/internal/redis"
	"parkgate/backend/services/parking-service/internal/repository"
)

// timeNow is overridable in tests.
var timeNow = func() time.Time { return time.Now().UTC() }

// Collaborators are the external systems the engine orchestrates. Cache and
// Events are optional; everything else is required.
type Collaborators struct {
	Store   SessionStore
	Lots    LotCapacityService
	Plates  OwnershipDirectory
	Pricing PricingGateway
	Gate    GateActuator
	PreAuth PaymentAuthorizer
	Cache   ActiveSessionCache
	Events  EventPublisher
}

// SessionsService orchestrates the parking session lifecycle. Start and Stop
// are sagas: each step commits against one collaborator, and committed steps
// are undone via an explicit compensation stack when a later step fails.
type SessionsService struct {
	store   SessionStore
	lots    LotCapacityService
	plates  OwnershipDirectory
	pricing PricingGateway
	gate    GateActuator
	preAuth PaymentAuthorizer
	cache   ActiveSessionCache
	events  EventPublisher
	logger  *zap.Logger
}

// NewSessionsService builds the engine.
func NewSessionsService(c Collaborators, logger *zap.Logger) *SessionsService {
	return &SessionsService{
		store:   c.Store,
		lots:    c.Lots,
		plates:  c.Plates,
		pricing: c.Pricing,
		gate:    c.Gate,
		preAuth: c.PreAuth,
		cache:   c.Cache,
		events:  c.Events,
		logger:  logger,
	}
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// StartSessionInput is the gate-in request.
type StartSessionInput struct {
	LotID           int64
	LicensePlate    string
	CardToken       string
	EstimatedAmount decimal.Decimal
	// RequestedBy is recorded for audit only and never affects the outcome.
	RequestedBy     string
	SimulateDecline bool
}

// StopSessionInput is the gate-out request.
type StopSessionInput struct {
	LicensePlate string
	CardToken    string
}

// StartSession runs the gate-in saga: lot lookup, capacity check, one-active-
// session check, pre-authorization, capacity reservation, persistence, gate
// actuation. Each step short-circuits; committed steps are compensated when a
// later one fails.
func (s *SessionsService) StartSession(ctx context.Context, input StartSessionInput) StartSessionResult {
	plate := normalizePlate(input.LicensePlate)

	lot, err := s.lots.GetByID(ctx, input.LotID)
	if err != nil {
		if errors.Is(err, repository.ErrLotNotFound) {
			return s.startOutcome(StartLotNotFound{})
		}
		return s.startOutcome(StartError{Message: err.Error()})
	}

	if lot.Capacity-lot.Reserved <= 0 {
		return s.startOutcome(StartLotFull{})
	}

	if _, err := s.activeSessionByPlate(ctx, plate); err == nil {
		return s.startOutcome(StartAlreadyActive{})
	} else if !errors.Is(err, repository.ErrSessionNotFound) {
		return s.startOutcome(StartError{Message: err.Error()})
	}

	decision, err := s.preAuth.Preauthorize(ctx, input.CardToken, input.EstimatedAmount, input.SimulateDecline)
	if err != nil {
		return s.startOutcome(StartError{Message: err.Error()})
	}
	if !decision.Approved {
		reason := decision.Reason
		if reason == "" {
			reason = "Card declined"
		}
		return s.startOutcome(StartPreAuthFailed{Reason: reason})
	}

	session := &models.ParkingSession{
		LotID:         lot.ID,
		LicensePlate:  plate,
		Started:       timeNow(),
		PaymentStatus: models.PaymentPreAuthorized,
	}

	comps := newCompensationStack("start", s.logger)

	lot.Reserved = clamp(lot.Reserved+1, 0, lot.Capacity)
	if err := s.lots.UpdateReserved(ctx, lot); err != nil {
		return s.startOutcome(StartError{Message: err.Error()})
	}
	comps.push("release-capacity", func(ctx context.Context) error {
		lot.Reserved = clamp(lot.Reserved-1, 0, lot.Capacity)
		return s.lots.UpdateReserved(ctx, lot)
	})

	created, id, err := s.store.CreateWithID(ctx, session)
	if err != nil {
		comps.rollback(ctx)
		return s.startOutcome(StartError{Message: err.Error()})
	}
	if !created {
		comps.rollback(ctx)
		return s.startOutcome(StartError{Message: "Failed to persist parking session (database error)."})
	}
	session.ID = id
	comps.push("delete-session", func(ctx context.Context) error {
		if session.ID <= 0 {
			return nil
		}
		_, err := s.store.Delete(ctx, session)
		return err
	})

	opened, err := s.gate.OpenGate(ctx, lot.ID, plate)
	monitoring.GateOpen(opened && err == nil)
	if err != nil || !opened {
		comps.rollback(ctx)
		reason := "gate did not confirm"
		if err != nil {
			reason = err.Error()
		}
		return s.startOutcome(StartError{Message: "Failed to open gate: " + reason})
	}

	s.cacheActiveSession(ctx, session)
	if s.events != nil {
		s.events.SessionStarted(ctx, events.SessionStarted{
			SessionID:      session.ID,
			LotID:          lot.ID,
			LicensePlate:   plate,
			Started:        session.Started,
			AvailableSpots: lot.AvailableSpots(),
		})
	}

	s.logger.Info("parking session started",
		zap.Int64("session_id", session.ID),
		zap.Int64("lot_id", lot.ID),
		zap.String("license_plate", plate),
		zap.String("requested_by", input.RequestedBy))

	return s.startOutcome(StartSuccess{Session: session, AvailableSpots: lot.AvailableSpots()})
}

// StopSession runs the gate-out saga: active lookup, lot fetch, pricing,
// payment capture, session finalization, gate actuation. A gate failure after
// capture reverts the session's bookkeeping fields but does not refund the
// payment; that gap is deliberate and documented.
func (s *SessionsService) StopSession(ctx context.Context, input StopSessionInput) StopSessionResult {
	plate := normalizePlate(input.LicensePlate)

	active, err := s.store.GetActiveByPlate(ctx, plate)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return s.stopOutcome(StopPlateNotFound{})
		}
		return s.stopOutcome(StopError{Message: err.Error()})
	}
	if active.Stopped != nil {
		return s.stopOutcome(StopAlreadyStopped{})
	}

	lot, err := s.lots.GetByID(ctx, active.LotID)
	if err != nil {
		return s.stopOutcome(StopError{Message: "Failed to retrieve parking lot."})
	}

	quote, err := s.pricing.CalculateCost(lot, active.Started, timeNow())
	if err != nil {
		return s.stopOutcome(StopError{Message: "Failed to calculate parking cost."})
	}

	decision, err := s.preAuth.Preauthorize(ctx, input.CardToken, quote.Price, false)
	if err != nil {
		return s.stopOutcome(StopError{Message: err.Error()})
	}
	if !decision.Approved {
		reason := decision.Reason
		if reason == "" {
			reason = "Payment declined"
		}
		return s.stopOutcome(StopPaymentFailed{Reason: reason})
	}

	prevStopped, prevCost, prevStatus := active.Stopped, active.Cost, active.PaymentStatus

	stopped := timeNow()
	cost := quote.Price
	active.Stopped = &stopped
	active.Cost = &cost
	active.PaymentStatus = models.PaymentPaid

	paid := models.PaymentPaid
	patch := models.SessionPatch{Stopped: &stopped, Cost: &cost, PaymentStatus: &paid}
	updated, err := s.store.Update(ctx, active, patch)
	if err != nil || !updated {
		// Payment is already captured here; the session keeps its stored state.
		return s.stopOutcome(StopError{Message: "Failed to update session after payment."})
	}

	comps := newCompensationStack("stop", s.logger)
	comps.push("revert-session-fields", func(ctx context.Context) error {
		active.Stopped = prevStopped
		active.Cost = prevCost
		active.PaymentStatus = prevStatus
		status := prevStatus
		_, err := s.store.Update(ctx, active, models.SessionPatch{PaymentStatus: &status})
		return err
	})

	opened, err := s.gate.OpenGate(ctx, active.LotID, plate)
	monitoring.GateOpen(opened && err == nil)
	if err != nil || !opened {
		comps.rollback(ctx)
		reason := "gate did not confirm"
		if err != nil {
			reason = err.Error()
		}
		return s.stopOutcome(StopError{Message: "Payment successful but gate error: " + reason})
	}

	s.dropCachedSession(ctx, plate)
	if s.events != nil {
		s.events.SessionStopped(ctx, events.SessionStopped{
			SessionID:    active.ID,
			LotID:        active.LotID,
			LicensePlate: plate,
			Started:      active.Started,
			Stopped:      stopped,
			Cost:         cost,
		})
	}

	s.logger.Info("parking session stopped",
		zap.Int64("session_id", active.ID),
		zap.Int64("lot_id", active.LotID),
		zap.String("license_plate", plate),
		zap.String("cost", cost.String()))

	return s.stopOutcome(StopSuccess{Session: active, Amount: quote.Price})
}

// activeSessionByPlate consults the cache before the store. Only existence
// matters to the callers; the full record always comes from the store.
func (s *SessionsService) activeSessionByPlate(ctx context.Context, plate string) (*models.ParkingSession, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, plate)
		if err == nil && cached != nil {
			return &models.ParkingSession{
				ID:            cached.SessionID,
				LotID:         cached.LotID,
				LicensePlate:  cached.LicensePlate,
				Started:       cached.Started,
				PaymentStatus: models.PaymentPreAuthorized,
			}, nil
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			s.logger.Warn("active session cache read failed", zap.String("license_plate", plate), zap.Error(err))
		}
	}
	return s.store.GetActiveByPlate(ctx, plate)
}

func (s *SessionsService) cacheActiveSession(ctx context.Context, session *models.ParkingSession) {
	if s.cache == nil {
		return
	}
	err := s.cache.Save(ctx, redisstore.ActiveSession{
		SessionID:    session.ID,
		LotID:        session.LotID,
		LicensePlate: session.LicensePlate,
		Started:      session.Started,
	})
	if err != nil {
		s.logger.Warn("failed to cache active session", zap.Int64("session_id", session.ID), zap.Error(err))
	}
}

func (s *SessionsService) dropCachedSession(ctx context.Context, plate string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, plate); err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn("failed to drop cached session", zap.String("license_plate", plate), zap.Error(err))
	}
}

func (s *SessionsService) startOutcome(result StartSessionResult) StartSessionResult {
	monitoring.SagaOutcome("start", startLabel(result))
	return result
}

func (s *SessionsService) stopOutcome(result StopSessionResult) StopSessionResult {
	monitoring.SagaOutcome("stop", stopLabel(result))
	return result
}

func startLabel(result StartSessionResult) string {
	switch result.(type) {
	case StartSuccess:
		return "success"
	case StartLotNotFound:
		return "lot_not_found"
	case StartLotFull:
		return "lot_full"
	case StartAlreadyActive:
		return "already_active"
	case StartPreAuthFailed:
		return "preauth_failed"
	default:
		return "error"
	}
}

func stopLabel(result StopSessionResult) string {
	switch result.(type) {
	case StopSuccess:
		return "success"
	case StopPlateNotFound:
		return "plate_not_found"
	case StopAlreadyStopped:
		return "already_stopped"
	case StopPaymentFailed:
		return "payment_failed"
	default:
		return "error"
	}
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
