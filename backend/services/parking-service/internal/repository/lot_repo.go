package repository

import (
	"context"
	"database/sql"
	"errors"

	"parkgate/backend/services/parking-service/internal/models"
)

// ErrLotNotFound indicates a missing lot row.
var ErrLotNotFound = errors.New("parking lot not found")

// ErrLotVersionConflict is returned when a versioned update loses the race.
var ErrLotVersionConflict = errors.New("parking lot was modified concurrently")

// ErrInvalidLotData is returned when counters are out of range.
var ErrInvalidLotData = errors.New("reserved count out of range")

// LotRepository handles persistence of parking lots.
type LotRepository struct {
	db *sql.DB
}

// NewLotRepository returns repository.
func NewLotRepository(db *sql.DB) *LotRepository {
	return &LotRepository{db: db}
}

const lotColumns = `id, name, location, capacity, reserved, tariff, day_tariff, version, created_at, updated_at`

// GetByID fetches one lot.
func (r *LotRepository) GetByID(ctx context.Context, id int64) (*models.ParkingLot, error) {
	const query = `SELECT ` + lotColumns + ` FROM parking_lots WHERE id = $1`
	var lot models.ParkingLot
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&lot.ID,
		&lot.Name,
		&lot.Location,
		&lot.Capacity,
		&lot.Reserved,
		&lot.Tariff,
		&lot.DayTariff,
		&lot.Version,
		&lot.CreatedAt,
		&lot.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLotNotFound
		}
		return nil, err
	}
	return &lot, nil
}

// UpdateReserved writes the reserved counter guarded by the lot version. On
// success the entity's version is bumped to the stored value. A lost race
// surfaces as ErrLotVersionConflict so callers never overwrite a concurrent
// update silently.
func (r *LotRepository) UpdateReserved(ctx context.Context, lot *models.ParkingLot) error {
	if lot.Reserved < 0 || lot.Reserved > lot.Capacity {
		return ErrInvalidLotData
	}
	const query = `
		UPDATE parking_lots
		SET reserved = $2,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1 AND version = $3
		RETURNING version
	`
	err := r.db.QueryRowContext(ctx, query, lot.ID, lot.Reserved, lot.Version).Scan(&lot.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			exists, existsErr := r.exists(ctx, lot.ID)
			if existsErr != nil {
				return existsErr
			}
			if !exists {
				return ErrLotNotFound
			}
			return ErrLotVersionConflict
		}
		return err
	}
	return nil
}

func (r *LotRepository) exists(ctx context.Context, id int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM parking_lots WHERE id = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
