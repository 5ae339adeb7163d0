package checkpoints

import "time"

// Checkpoint is a named geographic point guards check in at.
type Checkpoint struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Input carries the writable checkpoint fields.
type Input struct {
	Name      string   `json:"name" validate:"required,max=200"`
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

// ListFilter narrows a checkpoint listing.
type ListFilter struct {
	Name     string
	Page     int
	PageSize int
}
