package models

import "time"

// UserPlate links a user to a license plate they registered. CreatedAt is the
// registration moment; sessions started before it are not attributable to the user.
type UserPlate struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	LicensePlate string    `db:"license_plate" json:"license_plate"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
