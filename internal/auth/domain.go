package auth

// User is the account record consulted at sign-in.
type User struct {
	ID           string
	Email        string
	Role         string
	Status       string
	PasswordHash string
}

// Active reports whether the account may sign in. A blank status counts as
// active.
func (u User) Active() bool {
	return u.Status == "" || u.Status == "active"
}

// Session is the result of a successful sign-in.
type Session struct {
	User        SessionUser `json:"user"`
	AccessToken string      `json:"accessToken"`
}

// SessionUser is the profile echoed to the client. Exp is milliseconds since
// the epoch.
type SessionUser struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Role  []string `json:"role"`
	Exp   int64    `json:"exp"`
}
