package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	agentsapi "a2a_registry/api/v1/agents"
	authapi "a2a_registry/api/v1/auth"
	clientsapi "a2a_registry/api/v1/clients"
	entitlementsapi "a2a_registry/api/v1/entitlements"
	eventsapi "a2a_registry/api/v1/events"
	"a2a_registry/api/v1/middleware"
	peersapi "a2a_registry/api/v1/peers"
	tenantsapi "a2a_registry/api/v1/tenants"
	usersapi "a2a_registry/api/v1/users"
	"a2a_registry/internal/config"
	"a2a_registry/internal/httpx"
	"a2a_registry/internal/peering"
	"a2a_registry/internal/registry"
	"a2a_registry/internal/ws"
)

// SetupRouter configures all HTTP routes.
func SetupRouter(r *gin.Engine, db *gorm.DB, regSvc *registry.Service, peerSvc *peering.Service, cfg *config.Config) {
	if cfg.MetricsEnabled {
		r.Use(middleware.Metrics())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.GET("/ping", func(c *gin.Context) {
		httpx.OK(c, gin.H{"message": "pong"})
	})

	// Socket.IO endpoint with JWT handshake auth
	if ws.Server != nil {
		handler := ws.AuthMiddleware(ws.Server)
		r.GET("/socket.io/*any", gin.WrapH(handler))
		r.POST("/socket.io/*any", gin.WrapH(handler))
	}

	agentsH := agentsapi.NewHandler(regSvc, cfg)
	peersH := peersapi.NewHandler(db, peerSvc)
	tenantsH := tenantsapi.NewHandler(db)
	clientsH := clientsapi.NewHandler(db)
	entitlementsH := entitlementsapi.NewHandler(db)
	usersH := usersapi.NewHandler(db)

	api := r.Group("/api/v1")

	// Public: token issuance and anonymous discovery
	api.POST("/auth/login", authapi.LoginHandler(db, cfg))
	api.POST("/auth/token", authapi.TokenHandler(db, cfg))
	api.GET("/agents/public", agentsH.ListPublic)
	api.GET("/agents/search", agentsH.Search)

	// Single-agent reads work anonymously too: the access gate already
	// treats an absent caller as public-only.
	optional := api.Group("")
	optional.Use(middleware.AuthOptional())
	{
		optional.GET("/agents/:id", agentsH.Get)
		optional.GET("/agents/:id/card", agentsH.GetCard)
	}

	authed := api.Group("")
	authed.Use(middleware.AuthRequired())
	{
		authed.GET("/me", func(c *gin.Context) {
			httpx.OK(c, middleware.GetCaller(c))
		})

		authed.GET("/agents/entitled", agentsH.ListEntitled)
		authed.POST("/agents/publish", agentsH.Publish)

		authed.GET("/events/incremental", eventsapi.Incremental)
	}

	admin := authed.Group("")
	admin.Use(middleware.AdminRequired())
	{
		admin.POST("/tenants/create", tenantsH.Create)
		admin.GET("/tenants", tenantsH.List)

		admin.POST("/clients/create", clientsH.Create)
		admin.GET("/clients", clientsH.List)
		admin.POST("/clients/deactivate", clientsH.Deactivate)

		admin.POST("/entitlements/grant", entitlementsH.Grant)
		admin.POST("/entitlements/revoke", entitlementsH.Revoke)
		admin.POST("/entitlements/revoke-all", entitlementsH.RevokeAll)
		admin.GET("/entitlements", entitlementsH.List)

		admin.POST("/peers/create", peersH.Create)
		admin.POST("/peers/update", peersH.Update)
		admin.POST("/peers/delete", peersH.Delete)
		admin.GET("/peers", peersH.List)
		admin.POST("/peers/:id/sync", peersH.Sync)
		admin.GET("/peers/:id/check", peersH.Check)
		admin.POST("/peers/sync-all", peersH.SyncAll)
		admin.GET("/peers/:id/sync-history", peersH.SyncHistory)
		admin.GET("/peers/sync-history", peersH.SyncHistory)

		admin.POST("/users/create", usersH.Create)
		admin.GET("/users", usersH.List)
	}
}
