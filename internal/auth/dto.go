package auth

import (
	"time"

	"github.com/angelmondragon/storefront-backend/internal/users"
)

// TokenRequest is the dev token endpoint body.
type TokenRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

// TokenResponse carries a freshly minted access token.
type TokenResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresAt   time.Time      `json:"expires_at"`
	User        *users.UserDTO `json:"user"`
}
