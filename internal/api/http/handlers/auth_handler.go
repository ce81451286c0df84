package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-resolver/internal/api/dto"
	"github.com/spec-kit/ticket-resolver/internal/auth"
	apperrors "github.com/spec-kit/ticket-resolver/pkg/util/errorutil"
)

// AuthHandler exchanges API keys for bearer tokens.
type AuthHandler struct {
	tokens     *auth.TokenManager
	apiKeyHash string
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(tokens *auth.TokenManager, apiKeyHash string) *AuthHandler {
	return &AuthHandler{tokens: tokens, apiKeyHash: apiKeyHash}
}

// Token POST /auth/token.
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.ClientID) == "" || req.APIKey == "" {
		return apperrors.NewValidationError("client_id and api_key required", nil)
	}
	if h.apiKeyHash == "" {
		return apperrors.NewUnauthorized("API access not configured")
	}
	if err := auth.CompareAPIKey(h.apiKeyHash, req.APIKey); err != nil {
		return apperrors.NewUnauthorized("invalid API key")
	}

	token, expiresAt, err := h.tokens.GenerateToken(req.ClientID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TokenResponse{AccessToken: token, ExpiresAt: expiresAt}})
}
