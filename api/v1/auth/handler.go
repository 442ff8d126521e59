package auth

import (
	"errors"
	"time"

	"a2a_registry/internal/auth"
	"a2a_registry/internal/config"
	"a2a_registry/internal/httpx"
	"a2a_registry/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LoginRequest represents login request body
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents login response data
type LoginResponse struct {
	Token    string   `json:"token"`
	ExpireAt string   `json:"expireAt"`
	User     UserInfo `json:"user"`
}

// UserInfo represents user information in response
type UserInfo struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Tenant   string `json:"tenant"`
}

// LoginHandler handles user login (password flow)
func LoginHandler(db *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
			return
		}

		var user model.User
		if err := db.Where("username = ?", req.Username).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// User not found or wrong password - return same error for security
				httpx.FailErr(c, httpx.ErrInvalidToken("invalid credentials"))
				return
			}
			httpx.FailErr(c, httpx.ErrDatabaseError("database error", err))
			return
		}

		if user.Status == model.UserStatusInactive {
			httpx.FailErr(c, httpx.ErrForbidden("user is inactive"))
			return
		}

		if err := auth.ComparePassword(user.PasswordHash, req.Password); err != nil {
			httpx.FailErr(c, httpx.ErrInvalidToken("invalid credentials"))
			return
		}

		var tenant model.Tenant
		if err := db.First(&tenant, user.TenantID).Error; err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to resolve tenant", err))
			return
		}

		expireAt := time.Now().Add(time.Duration(cfg.JWT.ExpireMinutes) * time.Minute)
		token, err := auth.GenerateUserToken(user.ID, user.Username, user.Role, tenant.Slug, expireAt, cfg.JWT.Issuer)
		if err != nil {
			httpx.FailErr(c, httpx.ErrInternalError("failed to generate token", err))
			return
		}

		httpx.OK(c, LoginResponse{
			Token:    token,
			ExpireAt: expireAt.Format(time.RFC3339),
			User: UserInfo{
				ID:       user.ID,
				Username: user.Username,
				Role:     user.Role,
				Tenant:   tenant.Slug,
			},
		})
	}
}

// TokenRequest represents an OAuth2 client-credentials token request
type TokenRequest struct {
	GrantType    string `json:"grant_type" binding:"required"`
	ClientID     string `json:"client_id" binding:"required"`
	ClientSecret string `json:"client_secret" binding:"required"`
}

// TokenResponse follows the OAuth2 token response shape
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// TokenHandler handles the OAuth2 client-credentials flow
func TokenHandler(db *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
			return
		}

		if req.GrantType != "client_credentials" {
			httpx.FailErr(c, httpx.ErrParamIllegal("unsupported grant_type"))
			return
		}

		var client model.Client
		if err := db.Where("client_id = ?", req.ClientID).First(&client).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				httpx.FailErr(c, httpx.ErrInvalidToken("invalid client credentials"))
				return
			}
			httpx.FailErr(c, httpx.ErrDatabaseError("database error", err))
			return
		}

		if !client.IsActive {
			httpx.FailErr(c, httpx.ErrForbidden("client is inactive"))
			return
		}

		if err := auth.ComparePassword(client.SecretHash, req.ClientSecret); err != nil {
			httpx.FailErr(c, httpx.ErrInvalidToken("invalid client credentials"))
			return
		}

		var tenant model.Tenant
		if err := db.First(&tenant, client.TenantID).Error; err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to resolve tenant", err))
			return
		}

		expireAt := time.Now().Add(time.Duration(cfg.JWT.ExpireMinutes) * time.Minute)
		token, err := auth.GenerateClientToken(client.ClientID, auth.RoleClient, tenant.Slug, expireAt, cfg.JWT.Issuer)
		if err != nil {
			httpx.FailErr(c, httpx.ErrInternalError("failed to generate token", err))
			return
		}

		httpx.OK(c, TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   cfg.JWT.ExpireMinutes * 60,
		})
	}
}
