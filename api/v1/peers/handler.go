package peers

import (
	"strconv"

	"a2a_registry/internal/httpx"
	"a2a_registry/internal/model"
	"a2a_registry/internal/peering"
	"a2a_registry/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler manages peer registries and their synchronization.
type Handler struct {
	db  *gorm.DB
	svc *peering.Service
}

// NewHandler creates a new peers handler
func NewHandler(db *gorm.DB, svc *peering.Service) *Handler {
	return &Handler{db: db, svc: svc}
}

// CreateRequest represents the peer create request body
type CreateRequest struct {
	Name                string `json:"name" binding:"required"`
	BaseURL             string `json:"base_url" binding:"required"`
	AuthToken           string `json:"auth_token"`
	SyncEnabled         *bool  `json:"sync_enabled"`
	SyncIntervalMinutes int    `json:"sync_interval_minutes"`
}

// Create handles POST /api/v1/peers/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	// Name scopes mirrored records (provider tag), base_url is the fetch
	// target; both must be unique.
	var count int64
	if err := h.db.Model(&model.PeerRegistry{}).
		Where("base_url = ? OR name = ?", req.BaseURL, req.Name).
		Count(&count).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("database error", err))
		return
	}
	if count > 0 {
		httpx.FailErr(c, httpx.ErrAlreadyExists("peer with this name or base_url already exists"))
		return
	}

	peer := model.PeerRegistry{
		Name:                req.Name,
		BaseURL:             req.BaseURL,
		AuthToken:           req.AuthToken,
		SyncEnabled:         true,
		SyncIntervalMinutes: req.SyncIntervalMinutes,
		IsActive:            true,
	}
	if req.SyncEnabled != nil {
		peer.SyncEnabled = *req.SyncEnabled
	}
	if peer.SyncIntervalMinutes <= 0 {
		peer.SyncIntervalMinutes = 60
	}

	if err := h.db.Create(&peer).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create peer", err))
		return
	}

	_ = ws.PublishRegistryEvent(model.EventTopicPeers, "add", gin.H{
		"peer_id": peer.ID,
		"name":    peer.Name,
	})
	httpx.OK(c, peer)
}

// UpdateRequest represents the peer update request body. Name and base_url
// are immutable: mirrored records are scoped by the name-derived provider
// tag, and renaming would orphan them.
type UpdateRequest struct {
	ID                  int     `json:"id" binding:"required"`
	AuthToken           *string `json:"auth_token"`
	SyncEnabled         *bool   `json:"sync_enabled"`
	SyncIntervalMinutes *int    `json:"sync_interval_minutes"`
	IsActive            *bool   `json:"is_active"`
}

// Update handles POST /api/v1/peers/update
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	var peer model.PeerRegistry
	if err := h.db.First(&peer, req.ID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			httpx.FailErr(c, httpx.ErrNotFound("peer not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("database error", err))
		return
	}

	updates := map[string]interface{}{}
	if req.AuthToken != nil {
		updates["auth_token"] = *req.AuthToken
	}
	if req.SyncEnabled != nil {
		updates["sync_enabled"] = *req.SyncEnabled
	}
	if req.SyncIntervalMinutes != nil {
		if *req.SyncIntervalMinutes <= 0 {
			httpx.FailErr(c, httpx.ErrParamIllegal("sync_interval_minutes must be positive"))
			return
		}
		updates["sync_interval_minutes"] = *req.SyncIntervalMinutes
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		httpx.FailErr(c, httpx.ErrParamMissing("no fields to update"))
		return
	}

	if err := h.db.Model(&peer).Updates(updates).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to update peer", err))
		return
	}

	_ = ws.PublishRegistryEvent(model.EventTopicPeers, "update", gin.H{
		"peer_id": peer.ID,
		"name":    peer.Name,
	})
	httpx.OK(c, peer)
}

// DeleteRequest represents the peer delete request body
type DeleteRequest struct {
	ID int `json:"id" binding:"required"`
}

// Delete handles POST /api/v1/peers/delete. The peer's mirrored agents are
// left in place; a later sync of another peer never touches them because
// mirrors are scoped by provider.
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	result := h.db.Delete(&model.PeerRegistry{}, req.ID)
	if result.Error != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to delete peer", result.Error))
		return
	}
	if result.RowsAffected == 0 {
		httpx.FailErr(c, httpx.ErrNotFound("peer not found"))
		return
	}

	_ = ws.PublishRegistryEvent(model.EventTopicPeers, "delete", gin.H{"peer_id": req.ID})
	httpx.OK(c, gin.H{"deleted": req.ID})
}

// List handles GET /api/v1/peers
func (h *Handler) List(c *gin.Context) {
	var peers []model.PeerRegistry
	if err := h.db.Order("id ASC").Find(&peers).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to list peers", err))
		return
	}
	httpx.OK(c, gin.H{"items": peers, "total": len(peers)})
}

// Sync handles POST /api/v1/peers/:id/sync — a manually triggered sync.
func (h *Handler) Sync(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid peer id"))
		return
	}

	rec, err := h.svc.SyncWithPeer(c.Request.Context(), id, model.SyncTypeManual)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("sync failed", err))
		return
	}
	if rec == nil {
		httpx.FailErr(c, httpx.ErrNotFound("peer not found or inactive"))
		return
	}

	_ = ws.PublishRegistryEvent(model.EventTopicPeers, "sync", gin.H{
		"peer_id": id,
		"status":  rec.Status,
		"added":   rec.AgentsAdded,
		"updated": rec.AgentsUpdated,
		"removed": rec.AgentsRemoved,
	})
	httpx.OK(c, rec)
}

// Check handles GET /api/v1/peers/:id/check — a live connectivity check that
// fetches the peer's public listing without touching the local mirror.
func (h *Handler) Check(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid peer id"))
		return
	}

	count, found, err := h.svc.CheckPeer(c.Request.Context(), id)
	if err != nil {
		if !found {
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to load peer", err))
			return
		}
		httpx.FailErr(c, httpx.ErrUpstreamUnavailable("peer registry unreachable", err))
		return
	}
	if !found {
		httpx.FailErr(c, httpx.ErrNotFound("peer not found"))
		return
	}

	httpx.OK(c, gin.H{"peer_id": id, "reachable": true, "public_agents": count})
}

// SyncAll handles POST /api/v1/peers/sync-all. Only peers whose interval has
// elapsed are synchronized.
func (h *Handler) SyncAll(c *gin.Context) {
	records, err := h.svc.SyncAllPeers(c.Request.Context(), model.SyncTypeManual)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("sync failed", err))
		return
	}
	httpx.OK(c, gin.H{"items": records, "total": len(records)})
}

// SyncHistory handles GET /api/v1/peers/:id/sync-history and
// GET /api/v1/peers/sync-history (all peers).
func (h *Handler) SyncHistory(c *gin.Context) {
	peerID := 0
	if raw := c.Param("id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			httpx.FailErr(c, httpx.ErrParamInvalid("invalid peer id"))
			return
		}
		peerID = id
	}
	top, _ := strconv.Atoi(c.DefaultQuery("top", "20"))
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))

	records, total, err := h.svc.SyncHistory(c.Request.Context(), peerID, top, skip)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to load sync history", err))
		return
	}
	httpx.OK(c, gin.H{"items": records, "total": total})
}
