package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"parkgate/backend/services/parking-service/internal/models"
)

// ErrSessionNotFound indicates a missing session row.
var ErrSessionNotFound = errors.New("parking session not found")

const uniqueViolation = "23505"

// SessionRepository handles persistence of parking sessions. The schema carries a
// partial unique index on (license_plate) WHERE stopped_at IS NULL, so at most one
// active session per plate can ever be inserted.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository returns repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, lot_id, license_plate, started_at, stopped_at, cost, payment_status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.ParkingSession, error) {
	var (
		s       models.ParkingSession
		stopped sql.NullTime
		cost    decimal.NullDecimal
	)
	if err := row.Scan(
		&s.ID,
		&s.LotID,
		&s.LicensePlate,
		&s.Started,
		&stopped,
		&cost,
		&s.PaymentStatus,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if stopped.Valid {
		t := stopped.Time
		s.Stopped = &t
	}
	if cost.Valid {
		c := cost.Decimal
		s.Cost = &c
	}
	return &s, nil
}

func (r *SessionRepository) querySessions(ctx context.Context, query string, args ...any) ([]models.ParkingSession, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.ParkingSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetByID fetches one session.
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.ParkingSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM parking_sessions WHERE id = $1`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s, nil
}

// GetActiveByPlate returns the running session for a plate, if any.
func (r *SessionRepository) GetActiveByPlate(ctx context.Context, plate string) (*models.ParkingSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM parking_sessions WHERE license_plate = $1 AND stopped_at IS NULL LIMIT 1`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, plate))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s, nil
}

// GetByLot returns all sessions for a lot, newest first.
func (r *SessionRepository) GetByLot(ctx context.Context, lotID int64) ([]models.ParkingSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM parking_sessions WHERE lot_id = $1 ORDER BY started_at DESC`
	return r.querySessions(ctx, query, lotID)
}

// GetByPlate returns all sessions for a plate, newest first.
func (r *SessionRepository) GetByPlate(ctx context.Context, plate string) ([]models.ParkingSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM parking_sessions WHERE license_plate = $1 ORDER BY started_at DESC`
	return r.querySessions(ctx, query, plate)
}

// GetByStatus returns sessions in the given payment status.
func (r *SessionRepository) GetByStatus(ctx context.Context, status models.PaymentStatus) ([]models.ParkingSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM parking_sessions WHERE payment_status = $1 ORDER BY started_at DESC`
	return r.querySessions(ctx, query, string(status))
}

// GetAll returns every session.
func (r *SessionRepository) GetAll(ctx context.Context) ([]models.ParkingSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM parking_sessions ORDER BY started_at DESC`
	return r.querySessions(ctx, query)
}

// GetActive returns sessions that have not stopped yet.
func (r *SessionRepository) GetActive(ctx context.Context) ([]models.ParkingSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM parking_sessions WHERE stopped_at IS NULL ORDER BY started_at DESC`
	return r.querySessions(ctx, query)
}

// GetRecentByPlate returns sessions for a plate started within the given window.
func (r *SessionRepository) GetRecentByPlate(ctx context.Context, plate string, within time.Duration) ([]models.ParkingSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM parking_sessions WHERE license_plate = $1 AND started_at >= $2 ORDER BY started_at DESC`
	return r.querySessions(ctx, query, plate, time.Now().UTC().Add(-within))
}

// CreateWithID inserts the session and assigns its id. A unique-index conflict on
// the active-plate constraint is reported as created=false, not as an error.
func (r *SessionRepository) CreateWithID(ctx context.Context, s *models.ParkingSession) (bool, int64, error) {
	const query = `
		INSERT INTO parking_sessions (lot_id, license_plate, started_at, stopped_at, cost, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	var stopped sql.NullTime
	if s.Stopped != nil {
		stopped = sql.NullTime{Time: *s.Stopped, Valid: true}
	}
	var cost decimal.NullDecimal
	if s.Cost != nil {
		cost = decimal.NullDecimal{Decimal: *s.Cost, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		s.LotID,
		s.LicensePlate,
		s.Started,
		stopped,
		cost,
		string(s.PaymentStatus),
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, s.ID, nil
}

// Update persists the mutable columns from the entity. The patch mirrors the
// caller's request; the entity carries the applied values, including NULLs for
// reverted fields.
func (r *SessionRepository) Update(ctx context.Context, s *models.ParkingSession, _ models.SessionPatch) (bool, error) {
	const query = `
		UPDATE parking_sessions
		SET stopped_at = $2,
		    cost = $3,
		    payment_status = $4,
		    updated_at = NOW()
		WHERE id = $1
	`
	var stopped sql.NullTime
	if s.Stopped != nil {
		stopped = sql.NullTime{Time: *s.Stopped, Valid: true}
	}
	var cost decimal.NullDecimal
	if s.Cost != nil {
		cost = decimal.NullDecimal{Decimal: *s.Cost, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query, s.ID, stopped, cost, string(s.PaymentStatus))
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Delete removes the session row.
func (r *SessionRepository) Delete(ctx context.Context, s *models.ParkingSession) (bool, error) {
	const query = `DELETE FROM parking_sessions WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, s.ID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Count returns the total number of sessions.
func (r *SessionRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM parking_sessions`
	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
