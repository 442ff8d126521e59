package main

import (
	"log"
	"os"

	v1 "a2a_registry/api/v1"
	"a2a_registry/internal/auth"
	"a2a_registry/internal/cache"
	"a2a_registry/internal/config"
	"a2a_registry/internal/db"
	"a2a_registry/internal/model"
	"a2a_registry/internal/peering"
	"a2a_registry/internal/registry"
	"a2a_registry/internal/search"
	"a2a_registry/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
		os.Exit(1)
	}
	log.Println("✓ Configuration loaded")

	auth.InitJWT(cfg.JWT.Secret)

	// 2. Initialize MySQL
	if err := db.InitMySQL(cfg.MySQL.DSN); err != nil {
		log.Fatalf("Failed to initialize MySQL: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Migrate {
		if err := db.Migrate(db.GetDB()); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
			os.Exit(1)
		}
	}

	// 3. Initialize Redis (card cache). Optional: a missing cache only costs
	// latency.
	if err := cache.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Printf("Redis unavailable, card cache disabled: %v", err)
	} else {
		defer cache.Close()
	}

	// 4. Open the search index. Optional: listing queries fall back to the
	// database when the index is missing.
	idx, err := search.Open(cfg.Search.IndexPath)
	if err != nil {
		log.Printf("Search index unavailable, falling back to database search: %v", err)
		idx = nil
	} else {
		defer idx.Close()
	}

	// 5. Ensure the default tenant exists
	var defaultTenant model.Tenant
	err = db.GetDB().
		Where(model.Tenant{Slug: cfg.DefaultTenant}).
		Attrs(model.Tenant{Name: cfg.DefaultTenant, Status: model.TenantStatusActive}).
		FirstOrCreate(&defaultTenant).Error
	if err != nil {
		log.Fatalf("Failed to ensure default tenant: %v", err)
		os.Exit(1)
	}

	// 6. Initialize the Socket.IO server
	if err := ws.InitServer(); err != nil {
		log.Fatalf("Failed to initialize WebSocket server: %v", err)
		os.Exit(1)
	}

	// 7. Build services
	baseLogger := logrus.NewEntry(logrus.StandardLogger())
	regSvc := registry.NewService(db.GetDB(), idx, baseLogger)
	peerClient := peering.NewClient(cfg.Peering.FetchTimeoutSec)
	peerSvc := peering.NewService(db.GetDB(), peerClient, idx, &defaultTenant,
		cfg.Peering.DefaultIntervalMinutes, baseLogger)

	// 8. Optional scheduled peer sync worker
	if cfg.Peering.WorkerEnabled {
		worker := peering.NewWorker(&peering.WorkerConfig{
			Service:     peerSvc,
			Logger:      baseLogger,
			IntervalSec: cfg.Peering.WorkerIntervalSec,
		})
		worker.Start()
		defer worker.Stop()
	}

	// 9. Initialize Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// Setup API v1 routes
	v1.SetupRouter(r, db.GetDB(), regSvc, peerSvc, cfg)

	log.Printf("✓ Server starting on %s", cfg.HTTPAddr)

	// Start server
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
		os.Exit(1)
	}
}
