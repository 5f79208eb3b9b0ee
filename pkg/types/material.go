package types

import (
	"time"
)

type AidMaterial struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Quantity    int       `db:"quantity" json:"quantity"`
	Image       string    `db:"image" json:"image"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// MaterialRequest is a requested allocation of a single aid material,
// as submitted alongside a program create or update.
type MaterialRequest struct {
	AidMaterialID string `json:"aidMaterialId" validate:"required"`
	Quantity      int    `json:"quantity" validate:"gte=0"`
}
