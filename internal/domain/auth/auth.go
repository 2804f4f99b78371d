// Package auth authenticates operator sessions and checks role assignments.
// Roles come from the role-assignment table, never from client claims.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-faster/errors"
)

// RoleAdmin grants access to the administrative endpoints.
const RoleAdmin = "admin"

var (
	// ErrUnauthenticated is returned when no valid session is presented.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the session is valid but the user lacks
	// the required role. Distinct from ErrUnauthenticated: callers react
	// differently.
	ErrForbidden = errors.New("forbidden")
)

// User identifies an authenticated operator or customer.
type User struct {
	ID    string
	Email string
	Name  string
	Roles []string
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Repository resolves session tokens to users with their role assignments.
type Repository interface {
	// FindBySessionHash returns the user owning an unexpired session with
	// the given token hash, roles included.
	FindBySessionHash(ctx context.Context, hash string, now time.Time) (*User, error)
}

// Authenticator validates bearer session tokens.
type Authenticator struct {
	repo Repository
	now  func() time.Time
}

// NewAuthenticator creates an Authenticator backed by the given repository.
func NewAuthenticator(repo Repository) *Authenticator {
	return &Authenticator{repo: repo, now: time.Now}
}

// HashToken returns the hex SHA-256 of a raw session token. Only hashes are
// stored.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Authenticate resolves a raw bearer token to its user. Tokens are compared
// by hash equality in the session lookup, so a forged token of any length
// costs the same single indexed query.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	u, err := a.repo.FindBySessionHash(ctx, HashToken(token), a.now())
	if err != nil {
		return nil, ErrUnauthenticated
	}
	return u, nil
}

// RequireAdmin authenticates and enforces the admin role.
func (a *Authenticator) RequireAdmin(ctx context.Context, token string) (*User, error) {
	u, err := a.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if !u.HasRole(RoleAdmin) {
		return nil, ErrForbidden
	}
	return u, nil
}
