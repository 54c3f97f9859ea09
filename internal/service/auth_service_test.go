package service

import (
	"context"
	"testing"
	"time"

	"fitmarket/coaching-app/internal/domain"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func newTestAuthService(store *memStore) AuthService {
	return NewAuthService(&fakeUserRepo{store: store}, testSecret, time.Hour)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a user without exposing the hash", func(t *testing.T) {
		store := newMemStore()
		svc := newTestAuthService(store)

		user, err := svc.Register(ctx, "Alice", "alice@example.com", "hunter2hunter2", domain.RoleClient)
		require.NoError(t, err)
		assert.NotEqual(t, primitive.NilObjectID, user.ID)
		assert.Equal(t, domain.RoleClient, user.Role)
		assert.Empty(t, user.PasswordHash)

		// The stored record keeps the bcrypt hash, never the plaintext.
		stored := store.users[user.ID]
		assert.NotEmpty(t, stored.PasswordHash)
		assert.NotEqual(t, "hunter2hunter2", stored.PasswordHash)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		store := newMemStore()
		svc := newTestAuthService(store)

		_, err := svc.Register(ctx, "Alice", "alice@example.com", "hunter2hunter2", domain.RoleClient)
		require.NoError(t, err)

		_, err = svc.Register(ctx, "Alice Again", "alice@example.com", "hunter2hunter2", domain.RoleTrainer)
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})

	t.Run("rejects empty fields", func(t *testing.T) {
		svc := newTestAuthService(newMemStore())

		_, err := svc.Register(ctx, "", "alice@example.com", "hunter2hunter2", domain.RoleClient)
		assert.Error(t, err)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials yield a token with uid and role", func(t *testing.T) {
		store := newMemStore()
		svc := newTestAuthService(store)

		registered, err := svc.Register(ctx, "Bob", "bob@example.com", "correct-horse", domain.RoleTrainer)
		require.NoError(t, err)

		token, user, err := svc.Login(ctx, "bob@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
		assert.Empty(t, user.PasswordHash)

		claims := jwt.MapClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(testSecret), nil
		})
		require.NoError(t, err)
		assert.True(t, parsed.Valid)
		assert.Equal(t, registered.ID.Hex(), claims["uid"])
		assert.Equal(t, string(domain.RoleTrainer), claims["role"])
	})

	t.Run("wrong password fails", func(t *testing.T) {
		store := newMemStore()
		svc := newTestAuthService(store)

		_, err := svc.Register(ctx, "Bob", "bob@example.com", "correct-horse", domain.RoleTrainer)
		require.NoError(t, err)

		_, _, err = svc.Login(ctx, "bob@example.com", "wrong-horse")
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("unknown email fails the same way", func(t *testing.T) {
		svc := newTestAuthService(newMemStore())

		_, _, err := svc.Login(ctx, "nobody@example.com", "whatever")
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestAuthService(store)
	user := store.addUser(domain.RoleClient)

	got, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Empty(t, got.PasswordHash)

	_, err = svc.GetProfile(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
