package services

import (
	"context"
	"testing"

	"github.com/Taistois/mims/internal/core/domain"
	"github.com/Taistois/mims/internal/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginAndAuthenticate(t *testing.T) {
	e := newTestEnv(t)
	w := e.world(t)
	ctx := context.Background()

	resp, err := e.auth.Login(ctx, &LoginInput{Email: "  ALICE@mims.test ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, w.alice.ID, resp.User.ID)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	actor, err := e.auth.Authenticate(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, w.alice.ID, actor.UserID)
	assert.Equal(t, domain.RoleMember, actor.Role)
	assert.Equal(t, "Alice", actor.Name)

	me, err := e.auth.Me(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, "alice@mims.test", me.Email)

	_, err = e.auth.Login(ctx, &LoginInput{Email: "alice@mims.test", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = e.auth.Login(ctx, &LoginInput{Email: "nobody@mims.test", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.auth.Authenticate("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := jwt.GenerateAccessToken(1, "Mallory", "m@x.test", "admin", "other-secret", 15)
	require.NoError(t, err)
	_, err = e.auth.Authenticate(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := jwt.GenerateAccessToken(1, "Old", "o@x.test", "admin", "test-secret", -1)
	require.NoError(t, err)
	_, err = e.auth.Authenticate(expired)
	assert.ErrorIs(t, err, ErrTokenExpired)

	unknownRole, err := jwt.GenerateAccessToken(1, "Root", "r@x.test", "root", "test-secret", 15)
	require.NoError(t, err)
	_, err = e.auth.Authenticate(unknownRole)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshRotation(t *testing.T) {
	e := newTestEnv(t)
	e.world(t)
	ctx := context.Background()

	login, err := e.auth.Login(ctx, &LoginInput{Email: "bob@mims.test", Password: "password123"})
	require.NoError(t, err)

	rotated, err := e.auth.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	_, err = e.auth.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// reuse of the old token revoked the rotated one too
	_, err = e.auth.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t)
	w := e.world(t)
	ctx := context.Background()

	first, err := e.auth.Login(ctx, &LoginInput{Email: "staff@mims.test", Password: "password123"})
	require.NoError(t, err)
	second, err := e.auth.Login(ctx, &LoginInput{Email: "staff@mims.test", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, e.auth.Logout(ctx, first.RefreshToken))
	_, err = e.auth.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	require.NoError(t, e.auth.Logout(ctx, ""))

	require.NoError(t, e.auth.LogoutAll(ctx, w.staff.Actor()))
	_, err = e.auth.Refresh(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	assert.ErrorIs(t, e.auth.LogoutAll(ctx, nil), domain.ErrUnauthenticated)
}
