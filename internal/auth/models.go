package auth

import "time"

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the caller resolved from a session token at the HTTP boundary.
// Core components receive it instead of re-decoding tokens themselves.
type Identity struct {
	UserID int64
	Email  string
	Role   string
}

func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }
