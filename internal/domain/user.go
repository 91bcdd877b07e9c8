package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User represents a marketplace user; the same account can host and book
type User struct {
	ID           uuid.UUID
	Email        string // Unique email address
	Username     string // Unique username
	FirstName    string
	LastName     string
	PasswordHash string // Bcrypt hashed password (not returned in API)
	CreatedAt    time.Time
	UpdatedAt    time.Time
	IsActive     bool
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

// UserRepository defines data access for users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, user *User) error
	// Delete removes the user and cascades to owned listings, bookings and reviews.
	Delete(ctx context.Context, id uuid.UUID) error
}

// Actor is the identity on whose behalf an operation runs
type Actor struct {
	UserID        uuid.UUID
	Authenticated bool
	// System marks internal callers such as the completion worker.
	System bool
}

// Anonymous returns an unauthenticated actor.
func Anonymous() Actor {
	return Actor{}
}

// UserActor returns an authenticated actor for a user id.
func UserActor(id uuid.UUID) Actor {
	return Actor{UserID: id, Authenticated: true}
}

// SystemActor returns the actor used by background jobs.
func SystemActor() Actor {
	return Actor{System: true}
}
