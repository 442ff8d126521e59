package users

import (
	"errors"

	"a2a_registry/internal/auth"
	"a2a_registry/internal/httpx"
	"a2a_registry/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler manages human users.
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new users handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateRequest represents the user create request body
type CreateRequest struct {
	TenantID int    `json:"tenant_id" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
}

// Create handles POST /api/v1/users/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	role := req.Role
	if role == "" {
		role = auth.RoleViewer
	}
	switch role {
	case auth.RoleAdmin, auth.RoleViewer, auth.RolePublisher:
	default:
		httpx.FailErr(c, httpx.ErrParamIllegal("role must be one of: admin, viewer, publisher"))
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

	var count int64
	if err := h.db.Model(&model.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("database error", err))
		return
	}
	if count > 0 {
		httpx.FailErr(c, httpx.ErrAlreadyExists("username already exists"))
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to hash password", err))
		return
	}

	user := model.User{
		TenantID:     req.TenantID,
		Username:     req.Username,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       model.UserStatusActive,
	}
	if err := h.db.Create(&user).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create user", err))
		return
	}

	httpx.OK(c, user)
}

// List handles GET /api/v1/users with an optional tenant_id filter.
func (h *Handler) List(c *gin.Context) {
	q := h.db.Model(&model.User{})
	if tenantID := c.Query("tenant_id"); tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}

	var items []model.User
	if err := q.Order("id ASC").Find(&items).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to list users", err))
		return
	}
	httpx.OK(c, gin.H{"items": items, "total": len(items)})
}
