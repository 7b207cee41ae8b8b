package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"parkgate/backend/services/parking-service/internal/models"
)

// AuthorizedSessions returns the sessions in a lot the caller may see. Managers
// see everything; other callers see only sessions on plates they had registered
// before the session started.
func (s *SessionsService) AuthorizedSessions(ctx context.Context, userID, lotID int64, canManageSessions bool) ([]models.ParkingSession, error) {
	var sessions []models.ParkingSession
	switch result := s.GetSessionsByLot(ctx, lotID).(type) {
	case ListSuccess:
		sessions = result.Sessions
	case ListError:
		return nil, listErr(result)
	default:
		return nil, nil
	}

	if canManageSessions {
		return sessions, nil
	}

	ownership := s.plateOwnership(ctx, userID)
	var visible []models.ParkingSession
	for _, session := range sessions {
		if sessionOwned(&session, ownership) {
			visible = append(visible, session)
		}
	}
	return visible, nil
}

// AuthorizedSession fetches one session in a lot subject to the same ownership
// test. A session outside the requested lot is reported as not found, never as
// forbidden, so callers cannot probe other lots.
func (s *SessionsService) AuthorizedSession(ctx context.Context, userID, lotID, sessionID int64, canManageSessions bool) GetSessionResult {
	result, ok := s.GetSessionByID(ctx, sessionID).(GetSuccess)
	if !ok {
		return GetNotFound{}
	}

	session := result.Session
	if session.LotID != lotID {
		return GetNotFound{}
	}

	if canManageSessions {
		return GetSuccess{Session: session}
	}

	if !sessionOwned(session, s.plateOwnership(ctx, userID)) {
		return GetForbidden{}
	}
	return GetSuccess{Session: session}
}

// plateOwnership builds the map plate -> earliest timestamp from which sessions
// on that plate are attributable to the user. Directory failures degrade to an
// empty map: the caller then sees nothing rather than someone else's sessions.
func (s *SessionsService) plateOwnership(ctx context.Context, userID int64) map[string]time.Time {
	plates, err := s.plates.GetByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("plate ownership lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		return map[string]time.Time{}
	}

	ownership := make(map[string]time.Time, len(plates))
	for _, plate := range plates {
		key := normalizePlate(plate.LicensePlate)
		if existing, ok := ownership[key]; !ok || plate.CreatedAt.Before(existing) {
			ownership[key] = plate.CreatedAt
		}
	}
	return ownership
}

func sessionOwned(session *models.ParkingSession, ownership map[string]time.Time) bool {
	earliest, ok := ownership[normalizePlate(session.LicensePlate)]
	return ok && !session.Started.Before(earliest)
}

func listErr(result ListError) error {
	return errors.New(result.Message)
}
