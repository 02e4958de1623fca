package model

import "time"

// User represents an academy account: learners and back-office staff alike.
// Permissions is the user's effective set — seeded from the role defaults at
// registration but stored independently so it can be edited per-user without
// touching the role.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Role         Role      `json:"role"`
	Avatar       string    `json:"avatar,omitempty"`
	PasswordHash string    `json:"-"`
	Permissions  []string  `json:"permissions"`
	Active       bool      `json:"active"`
	RegisteredAt time.Time `json:"registered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPermission reports whether code is in the user's effective set.
func (u *User) HasPermission(code string) bool {
	for _, p := range u.Permissions {
		if p == code {
			return true
		}
	}
	return false
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required,min=1,max=128"`
}

// RegisterUserRequest is the payload for creating an account.
type RegisterUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Phone    string `json:"phone" binding:"omitempty,max=32"`
	Role     Role   `json:"role" binding:"required"`
	Avatar   string `json:"avatar" binding:"omitempty,max=512"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// UpdateUserRequest replaces a user record wholesale (minus username,
// credentials, and timestamps).
type UpdateUserRequest struct {
	Name        string   `json:"name" binding:"required,max=255"`
	Email       string   `json:"email" binding:"required,email,max=255"`
	Phone       string   `json:"phone" binding:"omitempty,max=32"`
	Role        Role     `json:"role" binding:"required"`
	Avatar      string   `json:"avatar" binding:"omitempty,max=512"`
	Permissions []string `json:"permissions" binding:"required"`
	Active      *bool    `json:"active" binding:"required"`
}

// UpdatePermissionsRequest replaces exactly the permission set.
type UpdatePermissionsRequest struct {
	Permissions []string `json:"permissions" binding:"required"`
}

// SetActiveRequest flips the active flag.
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token       string   `json:"token"`
	User        User     `json:"user"`
	Permissions []string `json:"permissions"`
}
