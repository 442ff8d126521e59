package clients

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"a2a_registry/internal/auth"
	"a2a_registry/internal/httpx"
	"a2a_registry/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Handler manages OAuth2 service clients.
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new clients handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateRequest represents the client create request body
type CreateRequest struct {
	TenantID int    `json:"tenant_id" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Scopes   string `json:"scopes"`
}

// CreateResponse carries the generated credentials. The secret is shown
// exactly once; only its hash is stored.
type CreateResponse struct {
	ID           int    `json:"id"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Name         string `json:"name"`
}

// Create handles POST /api/v1/clients/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	var tenant model.Tenant
	err := h.db.First(&tenant, req.TenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.FailErr(c, httpx.ErrNotFound("tenant not found"))
		return
	}
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("database error", err))
		return
	}

	secret, err := generateSecret()
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to generate secret", err))
		return
	}
	secretHash, err := auth.HashPassword(secret)
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to hash secret", err))
		return
	}

	client := model.Client{
		TenantID:   req.TenantID,
		ClientID:   uuid.New().String(),
		SecretHash: secretHash,
		Name:       req.Name,
		Scopes:     req.Scopes,
		IsActive:   true,
	}
	if err := h.db.Create(&client).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create client", err))
		return
	}

	httpx.OK(c, CreateResponse{
		ID:           client.ID,
		ClientID:     client.ClientID,
		ClientSecret: secret,
		Name:         client.Name,
	})
}

// List handles GET /api/v1/clients with an optional tenant_id filter.
func (h *Handler) List(c *gin.Context) {
	q := h.db.Model(&model.Client{})
	if tenantID := c.Query("tenant_id"); tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}

	var items []model.Client
	if err := q.Order("id ASC").Find(&items).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to list clients", err))
		return
	}
	httpx.OK(c, gin.H{"items": items, "total": len(items)})
}

// DeactivateRequest represents the deactivate request body
type DeactivateRequest struct {
	ClientID string `json:"client_id" binding:"required"`
}

// Deactivate handles POST /api/v1/clients/deactivate. Deactivated clients
// cannot obtain new tokens; existing tokens expire naturally.
func (h *Handler) Deactivate(c *gin.Context) {
	var req DeactivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	result := h.db.Model(&model.Client{}).
		Where("client_id = ?", req.ClientID).
		Update("is_active", false)
	if result.Error != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to deactivate client", result.Error))
		return
	}
	if result.RowsAffected == 0 {
		httpx.FailErr(c, httpx.ErrNotFound("client not found"))
		return
	}

	httpx.OK(c, gin.H{"client_id": req.ClientID, "is_active": false})
}

func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
