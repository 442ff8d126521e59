package peering

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"a2a_registry/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// newTestDB opens a throwaway SQLite database with the peering tables. Schema
// is created by hand because the production column types are MySQL-specific.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "peering.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	stmts := []string{
		`CREATE TABLE peer_registries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at DATETIME,
			updated_at DATETIME,
			name TEXT NOT NULL UNIQUE,
			base_url TEXT NOT NULL UNIQUE,
			auth_token TEXT,
			sync_enabled BOOLEAN NOT NULL DEFAULT 1,
			sync_interval_minutes INTEGER NOT NULL DEFAULT 60,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			last_sync_at DATETIME
		)`,
		`CREATE TABLE peer_syncs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at DATETIME,
			updated_at DATETIME,
			peer_registry_id INTEGER NOT NULL,
			sync_type TEXT NOT NULL DEFAULT 'manual',
			status TEXT NOT NULL DEFAULT 'in_progress',
			agents_synced INTEGER NOT NULL DEFAULT 0,
			agents_added INTEGER NOT NULL DEFAULT 0,
			agents_updated INTEGER NOT NULL DEFAULT 0,
			agents_removed INTEGER NOT NULL DEFAULT 0,
			error_message TEXT,
			started_at DATETIME NOT NULL,
			completed_at DATETIME
		)`,
		`CREATE TABLE agent_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at DATETIME,
			updated_at DATETIME,
			tenant_id INTEGER NOT NULL,
			publisher_id TEXT NOT NULL,
			agent_key TEXT NOT NULL,
			latest_version TEXT NOT NULL,
			provider TEXT NOT NULL DEFAULT 'local',
			location_url TEXT,
			UNIQUE (tenant_id, publisher_id, agent_key)
		)`,
		`CREATE TABLE agent_versions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at DATETIME,
			updated_at DATETIME,
			agent_id INTEGER NOT NULL,
			version TEXT NOT NULL,
			protocol_version TEXT,
			card_json TEXT NOT NULL,
			card_hash TEXT NOT NULL,
			public BOOLEAN NOT NULL DEFAULT 0,
			UNIQUE (agent_id, version)
		)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("Failed to create test schema: %v", err)
		}
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	tenant := &model.Tenant{BaseModel: model.BaseModel{ID: 1}, Slug: "default"}
	return NewService(db, NewClient(5), nil, tenant, 60, testLogger())
}

func createPeer(t *testing.T, db *gorm.DB, name, baseURL string) *model.PeerRegistry {
	t.Helper()
	peer := &model.PeerRegistry{
		Name:                name,
		BaseURL:             baseURL,
		SyncEnabled:         true,
		SyncIntervalMinutes: 60,
		IsActive:            true,
	}
	if err := db.Create(peer).Error; err != nil {
		t.Fatalf("Failed to create peer: %v", err)
	}
	return peer
}

func listingServer(t *testing.T, agents []RemoteAgent) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    0,
			"message": "success",
			"data":    map[string]interface{}{"items": agents, "total": len(agents)},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSyncWithPeer_FetchFailureLeavesMirrorUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	db := newTestDB(t)
	svc := newTestService(t, db)
	peer := createPeer(t, db, "peer-a", srv.URL)

	// Pre-existing mirror state that a failed fetch must not disturb.
	existing := model.AgentRecord{
		TenantID:      1,
		PublisherID:   peer.MirrorProvider(),
		AgentKey:      "old-agent",
		LatestVersion: "1.0.0",
		Provider:      peer.MirrorProvider(),
		LocationURL:   "https://old.example/agent",
	}
	if err := db.Create(&existing).Error; err != nil {
		t.Fatalf("Failed to seed mirror record: %v", err)
	}

	rec, err := svc.SyncWithPeer(context.Background(), peer.ID, model.SyncTypeManual)
	if err != nil {
		t.Fatalf("SyncWithPeer() returned error, want failure captured in record: %v", err)
	}
	if rec == nil {
		t.Fatal("SyncWithPeer() returned nil record for an existing peer")
	}
	if rec.Status != model.SyncStatusFailed {
		t.Errorf("Status = %s, want %s", rec.Status, model.SyncStatusFailed)
	}
	if rec.AgentsAdded != 0 || rec.AgentsUpdated != 0 || rec.AgentsRemoved != 0 || rec.AgentsSynced != 0 {
		t.Errorf("Failed sync must report zero counts, got (%d,%d,%d,%d)",
			rec.AgentsAdded, rec.AgentsUpdated, rec.AgentsRemoved, rec.AgentsSynced)
	}
	if rec.ErrorMessage == "" {
		t.Error("Failed sync should record an error message")
	}
	if rec.CompletedAt == nil {
		t.Error("Failed sync should record a completion time")
	}

	// The finalized record is persisted, not just returned.
	var stored model.PeerSync
	if err := db.First(&stored, rec.ID).Error; err != nil {
		t.Fatalf("Failed to reload sync record: %v", err)
	}
	if stored.Status != model.SyncStatusFailed {
		t.Errorf("Persisted status = %s, want %s", stored.Status, model.SyncStatusFailed)
	}

	// Mirror untouched.
	var records []model.AgentRecord
	if err := db.Find(&records).Error; err != nil {
		t.Fatalf("Failed to list mirror records: %v", err)
	}
	if len(records) != 1 || records[0].LatestVersion != "1.0.0" || records[0].LocationURL != existing.LocationURL {
		t.Errorf("Failed fetch must leave the mirror untouched, got %+v", records)
	}

	// last_sync_at only advances on success.
	var reloaded model.PeerRegistry
	if err := db.First(&reloaded, peer.ID).Error; err != nil {
		t.Fatalf("Failed to reload peer: %v", err)
	}
	if reloaded.LastSyncAt != nil {
		t.Errorf("last_sync_at = %v, want nil after a failed sync", reloaded.LastSyncAt)
	}
}

func TestSyncWithPeer_AppliesRemoteListing(t *testing.T) {
	remote := []RemoteAgent{{
		AgentKey:    "remote-agent",
		PublisherID: "remote-pub",
		Version:     "2.0.0",
		LocationURL: "https://remote.example/agent",
		CardJSON:    json.RawMessage(`{"name":"Remote Agent","version":"2.0.0"}`),
	}}
	srv := listingServer(t, remote)

	db := newTestDB(t)
	svc := newTestService(t, db)
	peer := createPeer(t, db, "peer-b", srv.URL)

	// Stale mirror entry absent from the remote listing: must be removed.
	stale := model.AgentRecord{
		TenantID:      1,
		PublisherID:   peer.MirrorProvider(),
		AgentKey:      "stale-agent",
		LatestVersion: "1.0.0",
		Provider:      peer.MirrorProvider(),
		LocationURL:   "https://stale.example/agent",
	}
	if err := db.Create(&stale).Error; err != nil {
		t.Fatalf("Failed to seed stale record: %v", err)
	}

	rec, err := svc.SyncWithPeer(context.Background(), peer.ID, model.SyncTypeManual)
	if err != nil {
		t.Fatalf("SyncWithPeer() failed: %v", err)
	}
	if rec.Status != model.SyncStatusSuccess {
		t.Fatalf("Status = %s (%s), want %s", rec.Status, rec.ErrorMessage, model.SyncStatusSuccess)
	}
	if rec.AgentsAdded != 1 || rec.AgentsUpdated != 0 || rec.AgentsRemoved != 1 {
		t.Errorf("Counts = (%d,%d,%d), want (1,0,1)",
			rec.AgentsAdded, rec.AgentsUpdated, rec.AgentsRemoved)
	}

	var records []model.AgentRecord
	if err := db.Find(&records).Error; err != nil {
		t.Fatalf("Failed to list mirror records: %v", err)
	}
	if len(records) != 1 || records[0].LocationURL != "https://remote.example/agent" {
		t.Fatalf("Mirror should equal the remote listing, got %+v", records)
	}
	if records[0].LatestVersion != "2.0.0" || records[0].Provider != peer.MirrorProvider() {
		t.Errorf("Unexpected mirror record: %+v", records[0])
	}

	var version model.AgentVersion
	if err := db.Where("agent_id = ?", records[0].ID).First(&version).Error; err != nil {
		t.Fatalf("Failed to load mirror version: %v", err)
	}
	if !version.Public {
		t.Error("Mirrored versions must be public")
	}

	var reloaded model.PeerRegistry
	if err := db.First(&reloaded, peer.ID).Error; err != nil {
		t.Fatalf("Failed to reload peer: %v", err)
	}
	if reloaded.LastSyncAt == nil {
		t.Error("last_sync_at should be set after a successful sync")
	}
}

func TestSyncWithPeer_MissingPeer(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	rec, err := svc.SyncWithPeer(context.Background(), 999, model.SyncTypeManual)
	if err != nil {
		t.Fatalf("SyncWithPeer() failed: %v", err)
	}
	if rec != nil {
		t.Errorf("Expected nil record for a missing peer, got %+v", rec)
	}
}

func TestCheckPeer(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	srv := listingServer(t, []RemoteAgent{
		{AgentKey: "a", Version: "1.0.0", LocationURL: "https://a.example"},
		{AgentKey: "b", Version: "1.0.0", LocationURL: "https://b.example"},
	})
	reachable := createPeer(t, db, "peer-up", srv.URL)

	count, found, err := svc.CheckPeer(context.Background(), reachable.ID)
	if err != nil {
		t.Fatalf("CheckPeer() failed: %v", err)
	}
	if !found || count != 2 {
		t.Errorf("CheckPeer() = (%d, %v), want (2, true)", count, found)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	t.Cleanup(down.Close)
	unreachable := createPeer(t, db, "peer-down", down.URL)

	_, found, err = svc.CheckPeer(context.Background(), unreachable.ID)
	if err == nil {
		t.Error("CheckPeer() should surface the fetch failure")
	}
	if !found {
		t.Error("CheckPeer() should report the peer as found when only the fetch fails")
	}

	_, found, err = svc.CheckPeer(context.Background(), 999)
	if err != nil {
		t.Fatalf("CheckPeer() failed for missing peer: %v", err)
	}
	if found {
		t.Error("CheckPeer() should report found=false for a missing peer")
	}
}
