package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a member of the campus community
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never expose
	FullName     string     `json:"full_name" db:"full_name"`
	Program      string     `json:"program" db:"program"`
	Plan         string     `json:"plan" db:"plan"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at" db:"last_login_at"`
}

// Plan constants
const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// IsPremium checks if the user is on the premium plan
func (u *User) IsPremium() bool {
	return u.Plan == PlanPremium
}

// UserContext represents the authenticated user for authorization decisions
type UserContext struct {
	UserID   uuid.UUID
	Username string
	Email    string
	Plan     string
	Program  string
}
