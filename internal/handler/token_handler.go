package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/brightspace"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/response"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/validator"
)

// TokenHandler manages the manually seeded OAuth tokens. The refresh-token
// grant renews them automatically afterwards; this endpoint only bootstraps
// or replaces the stored pair.
type TokenHandler struct {
	tokens *brightspace.OAuthTokenProvider
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(tokens *brightspace.OAuthTokenProvider) *TokenHandler {
	return &TokenHandler{tokens: tokens}
}

// SetTokenRequest is the payload for seeding OAuth tokens out of band.
type SetTokenRequest struct {
	AccessToken  string `json:"access_token" binding:"required"`
	RefreshToken string `json:"refresh_token" binding:"required"`
	ExpiresIn    int    `json:"expires_in" binding:"omitempty,min=60"`
}

// SetToken godoc
// PUT /api/v1/auth/token
func (h *TokenHandler) SetToken(c *gin.Context) {
	var req SetTokenRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	expiresIn := req.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}

	if err := h.tokens.SetManualToken(c.Request.Context(), req.AccessToken, req.RefreshToken, expiresIn); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"saved": true})
}

// TokenStatus godoc
// GET /api/v1/auth/token
// Reports whether a usable access token is currently stored.
func (h *TokenHandler) TokenStatus(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"valid": h.tokens.HasValidToken(c.Request.Context()),
	})
}
