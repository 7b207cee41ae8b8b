package repository

import (
	"context"
	"database/sql"

	"parkgate/backend/services/parking-service/internal/models"
)

// PlateRepository stores which plates each user has registered and when.
type PlateRepository struct {
	db *sql.DB
}

// NewPlateRepository returns repository.
func NewPlateRepository(db *sql.DB) *PlateRepository {
	return &PlateRepository{db: db}
}

// GetByUser returns every plate registration for a user.
func (r *PlateRepository) GetByUser(ctx context.Context, userID int64) ([]models.UserPlate, error) {
	const query = `
		SELECT id, user_id, license_plate, created_at
		FROM user_plates
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plates []models.UserPlate
	for rows.Next() {
		var p models.UserPlate
		if err := rows.Scan(&p.ID, &p.UserID, &p.LicensePlate, &p.CreatedAt); err != nil {
			return nil, err
		}
		plates = append(plates, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return plates, nil
}

// Register links a plate to a user.
func (r *PlateRepository) Register(ctx context.Context, plate *models.UserPlate) error {
	const query = `
		INSERT INTO user_plates (user_id, license_plate, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query, plate.UserID, plate.LicensePlate).
		Scan(&plate.ID, &plate.CreatedAt)
}
