package services

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/labmoura/laudos/internal/config"
	"github.com/labmoura/laudos/internal/dto"
	"github.com/labmoura/laudos/internal/models"
	"github.com/labmoura/laudos/internal/validate"
)

func parseToken(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}

func TestLoginClient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ana := f.client(t, "Ana", "ana@x.com")

	resp, err := f.auth.LoginClient(ctx, &dto.ClientLoginRequest{Email: "  ANA@x.com "})
	require.NoError(t, err)
	assert.Equal(t, models.RoleClient, resp.Actor.Role)
	assert.Equal(t, ana.ID, resp.Actor.ID)

	actor, err := ActorFromClaims(parseToken(t, resp.Token))
	require.NoError(t, err)
	assert.Equal(t, resp.Actor, actor)

	_, err = f.auth.LoginClient(ctx, &dto.ClientLoginRequest{Email: "nobody@x.com"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.LoginClient(ctx, &dto.ClientLoginRequest{Email: ""})
	var verr validate.Errors
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "email")
}

func TestLoginAdminWithoutPasswordHash(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	assert.False(t, f.auth.PasswordVerificationEnabled())

	resp, err := f.auth.LoginAdmin(ctx, &dto.AdminLoginRequest{Email: "admin@labanalytica.com", Password: "anything"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.Actor.Role)
	assert.Equal(t, "Administrador", resp.Actor.Name)
	assert.Equal(t, AdminID("admin@labanalytica.com"), resp.Actor.ID)

	_, err = f.auth.LoginAdmin(ctx, &dto.AdminLoginRequest{Email: "intruder@x.com", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginAdminWithPasswordHash(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	f := newFixture(t, func(c *config.Config) { c.AdminPasswordHash = string(hash) })

	_, err = f.auth.LoginAdmin(ctx, &dto.AdminLoginRequest{Email: "admin@labanalytica.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := f.auth.LoginAdmin(ctx, &dto.AdminLoginRequest{Email: "Admin@LabAnalytica.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "admin@labanalytica.com", resp.Actor.Email)
}

func TestActorFromClaimsRejectsBadClaims(t *testing.T) {
	_, err := ActorFromClaims(jwt.MapClaims{"sub": "not-a-uuid", "role": "admin"})
	assert.Error(t, err)

	_, err = ActorFromClaims(jwt.MapClaims{"sub": AdminID("a@b.c").String(), "role": "root"})
	assert.Error(t, err)
}
