package agents

import (
	"encoding/json"
	"errors"
	"strconv"

	"a2a_registry/api/v1/middleware"
	"a2a_registry/internal/cache"
	"a2a_registry/internal/config"
	"a2a_registry/internal/httpx"
	"a2a_registry/internal/metrics"
	"a2a_registry/internal/model"
	"a2a_registry/internal/registry"
	"a2a_registry/internal/ws"

	"github.com/gin-gonic/gin"
)

// Handler serves the agent discovery and publish endpoints.
type Handler struct {
	svc *registry.Service
	cfg *config.Config
}

// NewHandler creates a new agents handler
func NewHandler(svc *registry.Service, cfg *config.Config) *Handler {
	return &Handler{svc: svc, cfg: cfg}
}

// ListData is the paginated listing response shape
type ListData struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Top   int         `json:"top"`
	Skip  int         `json:"skip"`
}

func (h *Handler) pageParams(c *gin.Context) (int, int) {
	top, _ := strconv.Atoi(c.DefaultQuery("top", "20"))
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	return registry.NormalizePage(top, skip)
}

// resolveTenant maps a tenant slug to its row; slug defaults to the
// configured default tenant for anonymous discovery endpoints.
func (h *Handler) resolveTenant(c *gin.Context, slug string) *model.Tenant {
	if slug == "" {
		slug = h.cfg.DefaultTenant
	}
	tenant, err := h.svc.GetTenantBySlug(c.Request.Context(), slug)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to resolve tenant", err))
		return nil
	}
	if tenant == nil {
		httpx.FailErr(c, httpx.ErrNotFound("tenant not found"))
		return nil
	}
	return tenant
}

// ListPublic handles GET /api/v1/agents/public
func (h *Handler) ListPublic(c *gin.Context) {
	tenant := h.resolveTenant(c, c.Query("tenant"))
	if tenant == nil {
		return
	}
	top, skip := h.pageParams(c)

	items, total, err := h.svc.ListPublic(c.Request.Context(), tenant.ID, top, skip)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to list public agents", err))
		return
	}

	httpx.OK(c, ListData{Items: items, Total: total, Top: top, Skip: skip})
}

// Search handles GET /api/v1/agents/search
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		httpx.FailErr(c, httpx.ErrParamMissing("parameter 'q' is required"))
		return
	}
	tenant := h.resolveTenant(c, c.Query("tenant"))
	if tenant == nil {
		return
	}
	top, skip := h.pageParams(c)

	items, total, err := h.svc.SearchPublic(c.Request.Context(), tenant, query, top, skip)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("search failed", err))
		return
	}

	httpx.OK(c, ListData{Items: items, Total: total, Top: top, Skip: skip})
}

// ListEntitled handles GET /api/v1/agents/entitled
func (h *Handler) ListEntitled(c *gin.Context) {
	caller := middleware.GetCaller(c)
	tenant := h.resolveTenant(c, caller.Tenant)
	if tenant == nil {
		return
	}
	top, skip := h.pageParams(c)

	items, total, err := h.svc.ListEntitled(c.Request.Context(), tenant.ID, caller.ClientID, top, skip)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to list entitled agents", err))
		return
	}

	httpx.OK(c, ListData{Items: items, Total: total, Top: top, Skip: skip})
}

// Get handles GET /api/v1/agents/:id — agent metadata without the card body.
// 404 when absent, 403 when present but not readable by the caller.
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid agent id"))
		return
	}
	caller := middleware.GetCaller(c)
	tenant := h.resolveTenant(c, caller.Tenant)
	if tenant == nil {
		return
	}

	record, version, err := h.svc.GetLatest(c.Request.Context(), tenant.ID, id)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to load agent", err))
		return
	}
	if record == nil {
		httpx.FailErr(c, httpx.ErrNotFound("agent not found"))
		return
	}

	allowed, err := h.svc.CheckAgentAccess(c.Request.Context(), id, tenant.ID, caller.ClientID)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to check access", err))
		return
	}
	if !allowed {
		httpx.FailErr(c, httpx.ErrForbidden("not entitled to this agent"))
		return
	}

	httpx.OK(c, gin.H{
		"agent_id":         record.ID,
		"agent_key":        record.AgentKey,
		"publisher_id":     record.PublisherID,
		"provider":         record.Provider,
		"location_url":     record.LocationURL,
		"latest_version":   record.LatestVersion,
		"protocol_version": version.ProtocolVersion,
		"public":           version.Public,
		"created_at":       version.CreatedAt,
	})
}

// GetCard handles GET /api/v1/agents/:id/card — the full card document of
// the pinned-latest version.
func (h *Handler) GetCard(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid agent id"))
		return
	}
	caller := middleware.GetCaller(c)
	tenant := h.resolveTenant(c, caller.Tenant)
	if tenant == nil {
		return
	}

	// Only public cards ever enter the cache, so a hit needs no access check.
	if data, ok := cache.GetLatestCard(c.Request.Context(), tenant.ID, id); ok {
		httpx.OK(c, json.RawMessage(data))
		return
	}

	record, version, err := h.svc.GetLatest(c.Request.Context(), tenant.ID, id)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to load agent", err))
		return
	}
	if record == nil {
		httpx.FailErr(c, httpx.ErrNotFound("agent not found"))
		return
	}

	allowed, err := h.svc.CheckAgentAccess(c.Request.Context(), id, tenant.ID, caller.ClientID)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to check access", err))
		return
	}
	if !allowed {
		httpx.FailErr(c, httpx.ErrForbidden("not entitled to this agent"))
		return
	}

	if version.Public {
		cache.SetLatestCard(c.Request.Context(), tenant.ID, id, version.CardJSON)
	}
	httpx.OK(c, json.RawMessage(version.CardJSON))
}

// PublishRequest represents the publish request body
type PublishRequest struct {
	Card   json.RawMessage `json:"card" binding:"required"`
	Public bool            `json:"public"`
}

// Publish handles POST /api/v1/agents/publish. Only client-credentials
// callers own agent records.
func (h *Handler) Publish(c *gin.Context) {
	caller := middleware.GetCaller(c)
	if !caller.IsServiceClient() || caller.ClientID == "" {
		httpx.FailErr(c, httpx.ErrForbidden("publishing requires client credentials"))
		return
	}

	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}

	tenant := h.resolveTenant(c, caller.Tenant)
	if tenant == nil {
		return
	}

	res, err := h.svc.Publish(c.Request.Context(), registry.PublishParams{
		Tenant:      tenant,
		PublisherID: caller.ClientID,
		RawCard:     req.Card,
		Public:      req.Public,
	})
	if err != nil {
		// Only card validation is the caller's fault; anything else is a
		// store failure.
		if errors.Is(err, registry.ErrInvalidCard) {
			httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to publish agent", err))
		return
	}

	if res.VersionCreated {
		metrics.AgentsPublished.Inc()
		eventType := "update"
		if res.RecordCreated {
			eventType = "add"
		}
		// Event delivery is best-effort.
		_ = ws.PublishRegistryEvent(model.EventTopicAgents, eventType, gin.H{
			"agent_id":  res.Record.ID,
			"agent_key": res.Record.AgentKey,
			"version":   res.Version.Version,
			"public":    res.Version.Public,
			"tenant":    tenant.Slug,
		})
	}

	httpx.OK(c, gin.H{
		"agent_id":   res.Record.ID,
		"version_id": res.Version.ID,
		"agent_key":  res.Record.AgentKey,
		"version":    res.Version.Version,
		"card_hash":  res.Version.CardHash,
		"created":    res.VersionCreated,
	})
}
