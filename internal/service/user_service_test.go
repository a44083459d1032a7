package service

import (
	"context"
	"testing"
	"time"

	"commerce-graph/internal/apperr"
	"commerce-graph/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(t *testing.T) (*UserService, *auth.TokenService, *memStore) {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	s := newMemStore()
	return NewUserService(s, tokens, auth.NewPasswordHasher(bcrypt.MinCost)), tokens, s
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, tokens, _ := newUserService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserInput{Name: "Ana", Surname: "Diaz", Email: "Ana@Example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	_, err = svc.CreateUser(ctx, CreateUserInput{Name: "Ana", Surname: "Diaz", Email: "ana@example.com", Password: "secret123"})
	assertKind(t, err, apperr.KindConflict)

	token, err := svc.Authenticate(ctx, AuthInput{Email: "ana@example.com", Password: "secret123"})
	require.NoError(t, err)

	caller, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, caller.ID)

	_, err = svc.Authenticate(ctx, AuthInput{Email: "ana@example.com", Password: "wrong"})
	assertKind(t, err, apperr.KindUnauthenticated)

	_, err = svc.Authenticate(ctx, AuthInput{Email: "nobody@example.com", Password: "secret123"})
	assertKind(t, err, apperr.KindNotFound)
}

func TestCreateUserValidation(t *testing.T) {
	svc, _, _ := newUserService(t)

	_, err := svc.CreateUser(context.Background(), CreateUserInput{Name: "Ana", Surname: "Diaz", Email: "ana", Password: "secret123"})
	assertKind(t, err, apperr.KindBadRequest)

	_, err = svc.CreateUser(context.Background(), CreateUserInput{Name: "Ana", Surname: "Diaz", Email: "ana@example.com", Password: "123"})
	assertKind(t, err, apperr.KindBadRequest)
}

func TestProfileOperations(t *testing.T) {
	svc, _, _ := newUserService(t)

	user, err := svc.CreateUser(context.Background(), CreateUserInput{Name: "Ana", Surname: "Diaz", Email: "ana@example.com", Password: "secret123"})
	require.NoError(t, err)
	_, err = svc.CreateUser(context.Background(), CreateUserInput{Name: "Bob", Surname: "Ruiz", Email: "bob@example.com", Password: "secret123"})
	require.NoError(t, err)

	ctx := auth.WithCaller(context.Background(), auth.Caller{ID: user.ID})

	_, err = svc.GetUser(context.Background())
	assertKind(t, err, apperr.KindUnauthenticated)

	me, err := svc.GetUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)

	updated, err := svc.UpdateUser(ctx, UpdateUserInput{Name: "Ana", Surname: "Diaz", Email: "ana@example.com", BusinessName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", updated.BusinessName)

	_, err = svc.UpdateUser(ctx, UpdateUserInput{Name: "Ana", Surname: "Diaz", Email: "bob@example.com"})
	assertKind(t, err, apperr.KindConflict)

	_, err = svc.ChangePassword(ctx, ChangePasswordInput{CurrentPassword: "wrong", NewPassword: "another123"})
	assertKind(t, err, apperr.KindUnauthenticated)

	msg, err := svc.ChangePassword(ctx, ChangePasswordInput{CurrentPassword: "secret123", NewPassword: "another123"})
	require.NoError(t, err)
	assert.Equal(t, "Password Changed Successfully", msg)

	_, err = svc.Authenticate(context.Background(), AuthInput{Email: "ana@example.com", Password: "another123"})
	assert.NoError(t, err)
}
