package roles

import "github.com/estateguard/estate/internal/rbac"

// Role aliases the permission store's role record.
type Role = rbac.Role

// Detail is a role together with its permission matrix.
type Detail struct {
	Role        Role            `json:"role"`
	Permissions []PermissionRow `json:"permissions"`
}

// PermissionRow is a permission entry in the admin UI's column naming.
type PermissionRow struct {
	Resource  string `json:"resource"`
	CanCreate bool   `json:"can_create"`
	CanRead   bool   `json:"can_read"`
	CanUpdate bool   `json:"can_update"`
	CanDelete bool   `json:"can_delete"`
}

// Input carries the editable role fields.
type Input struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	StartPage   *string `json:"start_page"`
}
