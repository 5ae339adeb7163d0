package users

import (
	"fmt"
	"time"

	"github.com/estateguard/estate/internal/shared"
)

// User is a resident, guard or administrator account.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	PhoneNumber string    `json:"phoneNumber"`
	Status      string    `json:"status"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Defaults applied to rows with blank columns.
const (
	DefaultStatus = "active"
	DefaultRole   = "owner"
)

// AssignableRoles are the roles an administrator may hand out.
var AssignableRoles = []string{"admin", "owner", "guard"}

// Statuses are the account states an administrator may set.
var Statuses = []string{"active", "inactive", "invited", "suspended"}

// ErrInvalidRole is returned when a role change names an unknown role.
var ErrInvalidRole = fmt.Errorf("users: invalid role: %w", shared.ErrValidation)

// ListFilter narrows the user listing. Username matches username, names and
// email as a substring.
type ListFilter struct {
	Username string
	Statuses []string
	Roles    []string
	shared.PageRequest
}

// Patch is a partial account update. Nil fields keep their stored value.
type Patch struct {
	Username     *string
	Email        *string
	FirstName    *string
	LastName     *string
	PhoneNumber  *string
	Status       *string
	Role         *string
	PasswordHash *string
}

// Profile is the self-service view of an account.
type Profile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

// ErrNoFields is returned for a profile update that changes nothing.
var ErrNoFields = fmt.Errorf("users: no fields to update: %w", shared.ErrValidation)
