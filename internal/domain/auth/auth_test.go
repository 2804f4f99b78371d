package auth

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	byHash map[string]*User
}

func (m *mockRepo) FindBySessionHash(_ context.Context, hash string, _ time.Time) (*User, error) {
	u, ok := m.byHash[hash]
	if !ok {
		return nil, errors.New("no session")
	}
	return u, nil
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}

func TestAuthenticate(t *testing.T) {
	repo := &mockRepo{byHash: map[string]*User{
		HashToken("valid"): {ID: "u1", Email: "a@b.se"},
	}}
	a := NewAuthenticator(repo)

	u, err := a.Authenticate(context.Background(), "valid")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = a.Authenticate(context.Background(), "wrong")
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = a.Authenticate(context.Background(), "")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRequireAdmin(t *testing.T) {
	repo := &mockRepo{byHash: map[string]*User{
		HashToken("admin"): {ID: "u1", Roles: []string{RoleAdmin}},
		HashToken("buyer"): {ID: "u2"},
	}}
	a := NewAuthenticator(repo)

	u, err := a.RequireAdmin(context.Background(), "admin")
	require.NoError(t, err)
	assert.True(t, u.HasRole(RoleAdmin))

	_, err = a.RequireAdmin(context.Background(), "buyer")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = a.RequireAdmin(context.Background(), "nope")
	require.ErrorIs(t, err, ErrUnauthenticated)
}
