package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forecastlab/econcast/internal/domain"
)

func TestRegisterUser(t *testing.T) {
	store := newMemUserStore()
	svc := NewUserService(store, testLogger())
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "Alice A")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "Alice A", u.DisplayName)

	stored, err := store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Username, stored.Username)
}

func TestRegisterUserDefaultsDisplayName(t *testing.T) {
	svc := NewUserService(newMemUserStore(), testLogger())

	u, err := svc.Register(context.Background(), "bob", "")
	require.NoError(t, err)
	assert.Equal(t, "bob", u.DisplayName)
}

func TestRegisterUserValidation(t *testing.T) {
	svc := NewUserService(newMemUserStore(), testLogger())
	ctx := context.Background()

	_, err := svc.Register(ctx, "   ", "Spaces")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Register(ctx, "carol", "")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "carol", "Second Carol")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestGetByUsername(t *testing.T) {
	svc := NewUserService(newMemUserStore(domain.User{ID: "u1", Username: "dave"}), testLogger())
	ctx := context.Background()

	u, err := svc.GetByUsername(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = svc.GetByUsername(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
