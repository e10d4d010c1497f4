package entity

import (
	"time"

	"github.com/google/uuid"
)

// Bookings are never hard-deleted, so there is no deleted_at column anywhere.
type Base struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type BaseSimple struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}
