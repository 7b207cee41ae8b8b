package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"parkgate/backend/services/parking-service/internal/models"
	"parkgate/backend/services/parking-service/internal/repository"
)

// CreateSessionInput is a direct create, bypassing the start saga. Used by
// back-office tooling; the saga is the normal entry path.
type CreateSessionInput struct {
	LotID        int64
	LicensePlate string
	Started      time.Time
}

// CreateSession stores a session without reserving capacity or gating.
func (s *SessionsService) CreateSession(ctx context.Context, input CreateSessionInput) CreateSessionResult {
	plate := normalizePlate(input.LicensePlate)

	if _, err := s.store.GetActiveByPlate(ctx, plate); err == nil {
		return CreateAlreadyExists{}
	} else if !errors.Is(err, repository.ErrSessionNotFound) {
		return CreateError{Message: err.Error()}
	}

	started := input.Started
	if started.IsZero() {
		started = timeNow()
	}
	session := &models.ParkingSession{
		LotID:         input.LotID,
		LicensePlate:  plate,
		Started:       started,
		PaymentStatus: models.PaymentPreAuthorized,
	}

	created, id, err := s.store.CreateWithID(ctx, session)
	if err != nil {
		return CreateError{Message: err.Error()}
	}
	if !created {
		return CreateError{Message: "Database insertion failed."}
	}
	session.ID = id
	return CreateSuccess{Session: session}
}

// GetSessionByID fetches one session.
func (s *SessionsService) GetSessionByID(ctx context.Context, id int64) GetSessionResult {
	session, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return GetNotFound{}
		}
		return GetError{Message: err.Error()}
	}
	return GetSuccess{Session: session}
}

// GetActiveSessionByPlate returns the running session for a plate.
func (s *SessionsService) GetActiveSessionByPlate(ctx context.Context, plate string) GetSessionResult {
	session, err := s.store.GetActiveByPlate(ctx, normalizePlate(plate))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return GetNotFound{}
		}
		return GetError{Message: err.Error()}
	}
	return GetSuccess{Session: session}
}

func listResult(sessions []models.ParkingSession, err error) SessionListResult {
	if err != nil {
		return ListError{Message: err.Error()}
	}
	if len(sessions) == 0 {
		return ListNotFound{}
	}
	return ListSuccess{Sessions: sessions}
}

// GetSessionsByLot lists all sessions for a lot.
func (s *SessionsService) GetSessionsByLot(ctx context.Context, lotID int64) SessionListResult {
	sessions, err := s.store.GetByLot(ctx, lotID)
	return listResult(sessions, err)
}

// GetSessionsByPlate lists all sessions for a plate.
func (s *SessionsService) GetSessionsByPlate(ctx context.Context, plate string) SessionListResult {
	sessions, err := s.store.GetByPlate(ctx, normalizePlate(plate))
	return listResult(sessions, err)
}

// GetSessionsByStatus lists sessions filtered by payment status. Blank or
// unparsable filters short-circuit without touching the store.
func (s *SessionsService) GetSessionsByStatus(ctx context.Context, raw string) SessionListResult {
	if strings.TrimSpace(raw) == "" {
		return ListInvalidInput{Reason: "payment status is required"}
	}
	status, err := models.ParsePaymentStatus(raw)
	if err != nil {
		return ListInvalidInput{Reason: err.Error()}
	}

	sessions, err := s.store.GetByStatus(ctx, status)
	return listResult(sessions, err)
}

// GetAllSessions lists every session.
func (s *SessionsService) GetAllSessions(ctx context.Context) SessionListResult {
	sessions, err := s.store.GetAll(ctx)
	return listResult(sessions, err)
}

// GetActiveSessions lists sessions that have not stopped.
func (s *SessionsService) GetActiveSessions(ctx context.Context) SessionListResult {
	sessions, err := s.store.GetActive(ctx)
	return listResult(sessions, err)
}

// GetRecentSessionsByPlate lists sessions for a plate started within the window.
func (s *SessionsService) GetRecentSessionsByPlate(ctx context.Context, plate string, within time.Duration) SessionListResult {
	sessions, err := s.store.GetRecentByPlate(ctx, normalizePlate(plate), within)
	return listResult(sessions, err)
}

// CountSessions returns the total number of stored sessions.
func (s *SessionsService) CountSessions(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// UpdateSession applies a caller changeset to a session. Only the stop time and
// payment status are settable. A changed stop time triggers a cost
// recalculation; a status-only change leaves the cost untouched.
func (s *SessionsService) UpdateSession(ctx context.Context, id int64, patch models.SessionPatch) UpdateSessionResult {
	session, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return UpdateNotFound{}
		}
		return UpdateError{Message: "Failed to retrieve session for update."}
	}

	changed := false
	stopChanged := false

	if patch.Stopped != nil && (session.Stopped == nil || !patch.Stopped.Equal(*session.Stopped)) {
		if patch.Stopped.Before(session.Started) {
			return UpdateError{Message: "Stopped time cannot be before started time."}
		}
		stopped := *patch.Stopped
		session.Stopped = &stopped
		changed = true
		stopChanged = true
	}
	if patch.PaymentStatus != nil && *patch.PaymentStatus != session.PaymentStatus {
		session.PaymentStatus = *patch.PaymentStatus
		changed = true
	}

	if !changed {
		return UpdateNoChanges{}
	}

	if stopChanged && session.Stopped != nil {
		lot, err := s.lots.GetByID(ctx, session.LotID)
		if err != nil {
			return UpdateError{Message: "Failed to retrieve parking lot for cost recalculation."}
		}
		quote, err := s.pricing.CalculateCost(lot, session.Started, *session.Stopped)
		if err != nil {
			msg := strings.TrimSpace(err.Error())
			if msg == "" {
				msg = "Failed to recalculate cost during update."
			}
			return UpdateError{Message: msg}
		}
		price := quote.Price
		session.Cost = &price
	}

	updated, err := s.store.Update(ctx, session, patch)
	if err != nil {
		return UpdateError{Message: err.Error()}
	}
	if !updated {
		return UpdateError{Message: "Session failed to update."}
	}
	return UpdateSuccess{Session: session}
}

// DeleteSession removes a session row.
func (s *SessionsService) DeleteSession(ctx context.Context, id int64) DeleteSessionResult {
	session, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return DeleteNotFound{}
		}
		return DeleteError{Message: err.Error()}
	}

	deleted, err := s.store.Delete(ctx, session)
	if err != nil {
		return DeleteError{Message: err.Error()}
	}
	if !deleted {
		return DeleteError{Message: "Database delete failed."}
	}

	if session.Active() {
		s.dropCachedSession(ctx, session.LicensePlate)
	}
	return DeleteSuccess{}
}
