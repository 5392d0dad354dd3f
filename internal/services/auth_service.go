package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/labmoura/laudos/internal/config"
	"github.com/labmoura/laudos/internal/dto"
	"github.com/labmoura/laudos/internal/models"
	"github.com/labmoura/laudos/internal/repository"
	"github.com/labmoura/laudos/internal/validate"
)

// Claims carried by access tokens.
const (
	ClaimSubject = "sub"
	ClaimEmail   = "email"
	ClaimName    = "name"
	ClaimRole    = "role"
)

type AuthService struct {
	repo repository.Repository
	cfg  *config.Config
	now  func() time.Time
}

func NewAuthService(repo repository.Repository, cfg *config.Config) *AuthService {
	s := &AuthService{repo: repo, cfg: cfg, now: time.Now}
	if !s.PasswordVerificationEnabled() {
		slog.Warn("admin password verification disabled", "hint", "set ADMIN_PASSWORD_HASH")
	}
	return s
}

// PasswordVerificationEnabled reports whether admin logins check a password.
func (s *AuthService) PasswordVerificationEnabled() bool {
	return s.cfg.AdminPasswordHash != ""
}

// LoginClient signs in a client by email alone.
func (s *AuthService) LoginClient(ctx context.Context, req *dto.ClientLoginRequest) (*dto.AuthResponse, error) {
	email := validate.NormalizeEmail(req.Email)
	if email == "" {
		return nil, validate.Errors{"email": "is required"}
	}

	client, err := s.repo.FindClientByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up client: %w", err)
	}

	slog.Info("client signed in by email only", "client_id", client.ID)
	return s.issue(models.Actor{
		ID:    client.ID,
		Email: client.Email,
		Name:  client.Name,
		Role:  models.RoleClient,
	})
}

func (s *AuthService) LoginAdmin(_ context.Context, req *dto.AdminLoginRequest) (*dto.AuthResponse, error) {
	email := validate.NormalizeEmail(req.Email)
	if email == "" {
		return nil, validate.Errors{"email": "is required"}
	}
	if !s.isAdminEmail(email) {
		return nil, ErrInvalidCredentials
	}

	if s.PasswordVerificationEnabled() {
		if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(req.Password)); err != nil {
			return nil, ErrInvalidCredentials
		}
	}

	return s.issue(models.Actor{
		ID:    AdminID(email),
		Email: email,
		Name:  s.cfg.AdminName,
		Role:  models.RoleAdmin,
	})
}

func (s *AuthService) isAdminEmail(email string) bool {
	for _, e := range s.cfg.AdminEmailList() {
		if e == email {
			return true
		}
	}
	return false
}

// AdminID derives a stable actor id for a configured admin email.
func AdminID(email string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email))
}

func (s *AuthService) issue(actor models.Actor) (*dto.AuthResponse, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.JWTExpiry)

	claims := jwt.MapClaims{
		ClaimSubject: actor.ID.String(),
		ClaimEmail:   actor.Email,
		ClaimName:    actor.Name,
		ClaimRole:    string(actor.Role),
		"iat":        now.Unix(),
		"exp":        expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &dto.AuthResponse{Token: signed, ExpiresAt: expiresAt, Actor: actor}, nil
}

// ActorFromClaims rebuilds the actor a token was issued for.
func ActorFromClaims(claims jwt.MapClaims) (models.Actor, error) {
	sub, _ := claims[ClaimSubject].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return models.Actor{}, errors.New("invalid sub claim")
	}
	email, _ := claims[ClaimEmail].(string)
	name, _ := claims[ClaimName].(string)
	role, _ := claims[ClaimRole].(string)

	switch models.Role(role) {
	case models.RoleClient, models.RoleAdmin:
	default:
		return models.Actor{}, errors.New("invalid role claim")
	}
	return models.Actor{ID: id, Email: email, Name: name, Role: models.Role(role)}, nil
}
