package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tehorna/checkout-api/internal/domain/auth"
)

const (
	getUserBySessionSQL = `SELECT u.id, u.email, u.name
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token_hash = $1 AND s.expires_at > $2`

	getUserRolesSQL = `SELECT role FROM user_roles WHERE user_id = $1`
)

var _ auth.Repository = (*AuthRepository)(nil)

// AuthRepository resolves session tokens to users and their role
// assignments, backed by PostgreSQL.
type AuthRepository struct {
	pool *pgxpool.Pool
}

// NewAuthRepository returns an AuthRepository that uses the given pool.
func NewAuthRepository(pool *pgxpool.Pool) *AuthRepository {
	return &AuthRepository{pool: pool}
}

// FindBySessionHash returns the user owning an unexpired session with the
// given token hash, including roles from the role-assignment table.
func (r *AuthRepository) FindBySessionHash(ctx context.Context, hash string, now time.Time) (*auth.User, error) {
	var u auth.User
	err := r.pool.QueryRow(ctx, getUserBySessionSQL, hash, now).Scan(&u.ID, &u.Email, &u.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUnauthenticated
		}
		return nil, fmt.Errorf("finding session: %w", err)
	}

	rows, err := r.pool.Query(ctx, getUserRolesSQL, u.ID)
	if err != nil {
		return nil, fmt.Errorf("loading roles for user %q: %w", u.ID, err)
	}
	roles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var role string
		err := row.Scan(&role)
		return role, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning roles for user %q: %w", u.ID, err)
	}
	u.Roles = roles

	return &u, nil
}
