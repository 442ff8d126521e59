package entitlements

import (
	"errors"
	"strconv"

	"a2a_registry/internal/httpx"
	"a2a_registry/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler manages entitlement grants. Entitlements are per-tenant: the
// target agent must live in the same tenant as the grant.
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new entitlements handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// GrantRequest represents the grant request body
type GrantRequest struct {
	TenantID int    `json:"tenant_id" binding:"required"`
	ClientID string `json:"client_id" binding:"required"`
	AgentID  int    `json:"agent_id" binding:"required"`
	Scope    string `json:"scope" binding:"required"`
}

// Grant handles POST /api/v1/entitlements/grant
func (h *Handler) Grant(c *gin.Context) {
	var req GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}
	if !model.ValidScope(req.Scope) {
		httpx.FailErr(c, httpx.ErrParamIllegal("scope must be one of: view, use, admin"))
		return
	}

	// The agent must exist in the tenant the grant names.
	var agent model.AgentRecord
	err := h.db.Where("id = ? AND tenant_id = ?", req.AgentID, req.TenantID).First(&agent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.FailErr(c, httpx.ErrNotFound("agent not found in tenant"))
		return
	}
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("database error", err))
		return
	}

	var count int64
	err = h.db.Model(&model.Entitlement{}).
		Where("tenant_id = ? AND client_id = ? AND agent_id = ? AND scope = ?",
			req.TenantID, req.ClientID, req.AgentID, req.Scope).
		Count(&count).Error
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("database error", err))
		return
	}
	if count > 0 {
		httpx.FailErr(c, httpx.ErrAlreadyExists("entitlement already exists"))
		return
	}

	ent := model.Entitlement{
		TenantID: req.TenantID,
		ClientID: req.ClientID,
		AgentID:  req.AgentID,
		Scope:    model.EntitlementScope(req.Scope),
	}
	if err := h.db.Create(&ent).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create entitlement", err))
		return
	}

	httpx.OK(c, ent)
}

// RevokeRequest represents the revoke request body
type RevokeRequest struct {
	TenantID int    `json:"tenant_id" binding:"required"`
	ClientID string `json:"client_id" binding:"required"`
	AgentID  int    `json:"agent_id" binding:"required"`
	Scope    string `json:"scope"`
}

// Revoke handles POST /api/v1/entitlements/revoke. When scope is empty every
// scope the client holds on the agent is removed.
func (h *Handler) Revoke(c *gin.Context) {
	var req RevokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	q := h.db.Where("tenant_id = ? AND client_id = ? AND agent_id = ?",
		req.TenantID, req.ClientID, req.AgentID)
	if req.Scope != "" {
		if !model.ValidScope(req.Scope) {
			httpx.FailErr(c, httpx.ErrParamIllegal("scope must be one of: view, use, admin"))
			return
		}
		q = q.Where("scope = ?", req.Scope)
	}

	result := q.Delete(&model.Entitlement{})
	if result.Error != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to revoke entitlement", result.Error))
		return
	}
	if result.RowsAffected == 0 {
		httpx.FailErr(c, httpx.ErrNotFound("entitlement not found"))
		return
	}

	httpx.OK(c, gin.H{"revoked": result.RowsAffected})
}

// RevokeAllRequest represents the revoke-all request body
type RevokeAllRequest struct {
	TenantID int    `json:"tenant_id" binding:"required"`
	ClientID string `json:"client_id" binding:"required"`
}

// RevokeAll handles POST /api/v1/entitlements/revoke-all — drops every grant
// a client holds in a tenant, typically on client offboarding.
func (h *Handler) RevokeAll(c *gin.Context) {
	var req RevokeAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	result := h.db.Where("tenant_id = ? AND client_id = ?", req.TenantID, req.ClientID).
		Delete(&model.Entitlement{})
	if result.Error != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to revoke entitlements", result.Error))
		return
	}

	httpx.OK(c, gin.H{"revoked": result.RowsAffected})
}

// List handles GET /api/v1/entitlements with optional client_id and agent_id
// filters.
func (h *Handler) List(c *gin.Context) {
	q := h.db.Model(&model.Entitlement{})
	if clientID := c.Query("client_id"); clientID != "" {
		q = q.Where("client_id = ?", clientID)
	}
	if raw := c.Query("agent_id"); raw != "" {
		agentID, err := strconv.Atoi(raw)
		if err != nil {
			httpx.FailErr(c, httpx.ErrParamInvalid("invalid agent_id"))
			return
		}
		q = q.Where("agent_id = ?", agentID)
	}

	var items []model.Entitlement
	if err := q.Order("id ASC").Find(&items).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to list entitlements", err))
		return
	}
	httpx.OK(c, gin.H{"items": items, "total": len(items)})
}
