package tenants

import (
	"a2a_registry/internal/httpx"
	"a2a_registry/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler manages tenants.
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new tenants handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateRequest represents the tenant create request body
type CreateRequest struct {
	Slug string `json:"slug" binding:"required"`
	Name string `json:"name"`
}

// Create handles POST /api/v1/tenants/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	var count int64
	if err := h.db.Model(&model.Tenant{}).Where("slug = ?", req.Slug).Count(&count).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("database error", err))
		return
	}
	if count > 0 {
		httpx.FailErr(c, httpx.ErrAlreadyExists("tenant slug already exists"))
		return
	}

	tenant := model.Tenant{
		Slug:   req.Slug,
		Name:   req.Name,
		Status: model.TenantStatusActive,
	}
	if err := h.db.Create(&tenant).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create tenant", err))
		return
	}

	httpx.OK(c, tenant)
}

// List handles GET /api/v1/tenants
func (h *Handler) List(c *gin.Context) {
	var items []model.Tenant
	if err := h.db.Order("id ASC").Find(&items).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to list tenants", err))
		return
	}
	httpx.OK(c, gin.H{"items": items, "total": len(items)})
}
