// Package residents keeps the house directory: each house number with its
// owners and registered vehicles.
package residents

import (
	"fmt"
	"time"

	"github.com/estateguard/estate/internal/shared"
)

// House types. Anything other than homestay is stored as own.
const (
	HouseOwn      = "own"
	HouseHomestay = "homestay"
)

// Resident is one house entry.
type Resident struct {
	ID        string    `json:"id"`
	HouseNo   string    `json:"houseNo"`
	HouseType string    `json:"houseType"`
	Owners    []Owner   `json:"owners"`
	Vehicles  []Vehicle `json:"vehicles"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Owner is a contact for the house, optionally linked to a user account.
type Owner struct {
	Name   string  `json:"name"`
	Phone  string  `json:"phone"`
	UserID *string `json:"userId,omitempty"`
}

// Vehicle is a car registered to the house.
type Vehicle struct {
	Brand string `json:"brand"`
	Model string `json:"model"`
	Plate string `json:"plate"`
}

// Input carries the writable fields of a resident.
type Input struct {
	HouseNo   string    `json:"houseNo"`
	HouseType string    `json:"houseType"`
	Owners    []Owner   `json:"owners"`
	Vehicles  []Vehicle `json:"vehicles"`
}

// ListFilter narrows a listing. Query matches house number, owners and
// vehicles as a substring.
type ListFilter struct {
	Query      string
	HouseTypes []string
	shared.PageRequest
}

var (
	// ErrHouseNoRequired rejects a blank house number.
	ErrHouseNoRequired = fmt.Errorf("residents: house number required: %w", shared.ErrValidation)
	// ErrOwnerIncomplete rejects a new resident whose owner lacks a name or phone.
	ErrOwnerIncomplete = fmt.Errorf("residents: owner name and phone required: %w", shared.ErrValidation)
)

func houseType(t string) string {
	if t == HouseHomestay {
		return HouseHomestay
	}
	return HouseOwn
}
