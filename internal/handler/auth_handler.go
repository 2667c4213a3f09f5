package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-fee-api/internal/dto"
	appErrors "github.com/noah-isme/class-fee-api/pkg/errors"
	"github.com/noah-isme/class-fee-api/pkg/response"
)

// AuthHandler exposes the identity carried by the caller's access token.
type AuthHandler struct{}

// NewAuthHandler creates a new handler.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Me godoc
// @Summary Get current user
// @Description Returns the authenticated user's info
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	response.JSON(c, http.StatusOK, dto.CurrentUser{
		ID:    claims.UserID(),
		Email: claims.Email,
		Role:  claims.Role,
	}, nil)
}
