package dto

import (
	"time"

	"github.com/labmoura/laudos/internal/models"
)

type ClientLoginRequest struct {
	Email string `json:"email"`
}

type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Actor     models.Actor `json:"actor"`
}

// ErrorResponse is the body of every non-2xx response. Fields is set for
// validation failures and maps a request field to its problem.
type ErrorResponse struct {
	Error   bool              `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
