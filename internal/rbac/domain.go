package rbac

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SuperRole is granted every permission without a store lookup.
const SuperRole = "superadmin"

// Action is one of the four permission flags.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Role represents a named permission grouping.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartPage   *string   `json:"start_page"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Permission holds the CRUD flags a role has on one resource.
type Permission struct {
	RoleID   string
	Resource string
	Create   bool
	Read     bool
	Update   bool
	Delete   bool
}

// Allows reports the flag for action. Unknown actions are denied.
func (p Permission) Allows(action Action) bool {
	switch action {
	case ActionCreate:
		return p.Create
	case ActionRead:
		return p.Read
	case ActionUpdate:
		return p.Update
	case ActionDelete:
		return p.Delete
	default:
		return false
	}
}

// Rule names the permission an endpoint requires.
//
// BypassRoles are allowed without a lookup. FallbackResources are consulted,
// in order, only when the role has no entry for Resource.
type Rule struct {
	Resource          string
	Action            Action
	BypassRoles       []string
	FallbackResources []string
}

// Can is shorthand for a rule without bypass or fallback.
func Can(resource string, action Action) Rule {
	return Rule{Resource: resource, Action: action}
}

// NormalizeRole returns the comparison key for a role name. It lower-cases
// rather than folds so it agrees with the store's lower(name) index.
func NormalizeRole(name string) string {
	// Casers are stateful and cannot be shared across goroutines.
	return cases.Lower(language.Und).String(strings.TrimSpace(name))
}

// SameRole compares role names case-insensitively.
func SameRole(a, b string) bool {
	return NormalizeRole(a) == NormalizeRole(b)
}
