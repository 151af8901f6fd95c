package authapi

import (
	"strings"
	"time"

	"github.com/rasedprogrammer/national-recruiting-agency/cmd/identity"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/auth/session"
)

type registerRequest struct {
	Name            string `json:"name" validate:"required,max=255"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,max=255"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

func (r *registerRequest) trim() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=255"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type registerResponse struct {
	Message string              `json:"message"`
	Data    identity.PublicUser `json:"data"`
}

type loginResponse struct {
	Message     string              `json:"message"`
	Data        identity.PublicUser `json:"data"`
	MFARequired bool                `json:"mfaRequired"`
}

type refreshResponse struct {
	Message string `json:"message"`
	Rotated bool   `json:"rotated"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"userAgent"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsCurrent bool      `json:"isCurrent"`
}

type sessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type currentSessionResponse struct {
	User identity.PublicUser `json:"user"`
}

func toSessionResponses(views []session.View) []sessionResponse {
	out := make([]sessionResponse, len(views))
	for i, v := range views {
		out[i] = sessionResponse{
			ID:        v.ID,
			UserAgent: v.UserAgent,
			CreatedAt: v.CreatedAt,
			ExpiresAt: v.ExpiresAt,
			IsCurrent: v.IsCurrent,
		}
	}
	return out
}
