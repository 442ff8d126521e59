package peering

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"a2a_registry/internal/cache"
	"a2a_registry/internal/metrics"
	"a2a_registry/internal/model"
	"a2a_registry/internal/registry"
	"a2a_registry/internal/search"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service mirrors peer registries' public agents into the local store and
// keeps the append-only sync history. One SyncWithPeer call is one audit
// record: remote-fetch failures are captured in the record, never returned
// as errors.
type Service struct {
	db                     *gorm.DB
	client                 *Client
	idx                    *search.Index
	mirrorTenant           *model.Tenant
	defaultIntervalMinutes int
	logger                 *logrus.Entry

	// Per-peer mutexes: two overlapping reconciliations for the same peer
	// would race adds against deletes.
	locks sync.Map
}

// NewService creates the peering service. Mirrored agents land in
// mirrorTenant. idx may be nil when search is disabled.
func NewService(db *gorm.DB, client *Client, idx *search.Index, mirrorTenant *model.Tenant, defaultIntervalMinutes int, logger *logrus.Entry) *Service {
	return &Service{
		db:                     db,
		client:                 client,
		idx:                    idx,
		mirrorTenant:           mirrorTenant,
		defaultIntervalMinutes: defaultIntervalMinutes,
		logger:                 logger.WithField("component", "peering"),
	}
}

func (s *Service) lockFor(peerID int) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(peerID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// SyncWithPeer pulls the peer's public listing and reconciles the local
// mirror against it. Returns (nil, nil) when the peer is missing or inactive
// (a no-op signal, not an error). Store failures before a sync record exists
// are returned as errors; everything after is captured in the record.
func (s *Service) SyncWithPeer(ctx context.Context, peerID int, syncType string) (*model.PeerSync, error) {
	var peer model.PeerRegistry
	err := s.db.WithContext(ctx).First(&peer, peerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !peer.IsActive {
		return nil, nil
	}

	mu := s.lockFor(peer.ID)
	mu.Lock()
	defer mu.Unlock()

	syncRec := model.PeerSync{
		PeerRegistryID: peer.ID,
		SyncType:       syncType,
		Status:         model.SyncStatusInProgress,
		StartedAt:      time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&syncRec).Error; err != nil {
		return nil, fmt.Errorf("failed to create sync record: %w", err)
	}

	remote, err := s.client.FetchPublicAgents(ctx, peer.BaseURL, peer.AuthToken)
	if err != nil {
		s.logger.WithError(err).WithField("peer", peer.Name).Warn("peer fetch failed")
		s.finalize(&syncRec, model.SyncStatusFailed, err.Error(), Plan{})
		metrics.PeerSyncs.WithLabelValues(model.SyncStatusFailed).Inc()
		return &syncRec, nil
	}

	var local []model.AgentRecord
	err = s.db.WithContext(ctx).
		Where("tenant_id = ? AND provider = ?", s.mirrorTenant.ID, peer.MirrorProvider()).
		Find(&local).Error
	if err != nil {
		s.finalize(&syncRec, model.SyncStatusFailed, err.Error(), Plan{})
		metrics.PeerSyncs.WithLabelValues(model.SyncStatusFailed).Inc()
		return &syncRec, nil
	}

	plan := BuildPlan(local, remote)
	if err := s.applyPlan(ctx, &peer, plan); err != nil {
		s.logger.WithError(err).WithField("peer", peer.Name).Error("failed to apply reconciliation plan")
		s.finalize(&syncRec, model.SyncStatusFailed, err.Error(), Plan{})
		metrics.PeerSyncs.WithLabelValues(model.SyncStatusFailed).Inc()
		return &syncRec, nil
	}

	s.finalize(&syncRec, model.SyncStatusSuccess, "", plan)
	now := time.Now()
	if err := s.db.Model(&model.PeerRegistry{}).Where("id = ?", peer.ID).
		Update("last_sync_at", now).Error; err != nil {
		s.logger.WithError(err).Warn("failed to update last_sync_at")
	}
	metrics.PeerSyncs.WithLabelValues(model.SyncStatusSuccess).Inc()

	s.mirrorIndex(&peer, plan)
	return &syncRec, nil
}

// applyPlan commits the whole diff in one transaction: no partial mirror
// state is visible, and a failed fetch earlier never reaches this point.
func (s *Service) applyPlan(ctx context.Context, peer *model.PeerRegistry, plan Plan) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range plan.ToAdd {
			record := model.AgentRecord{
				TenantID:      s.mirrorTenant.ID,
				PublisherID:   publisherFor(r, peer),
				AgentKey:      keyFor(r),
				LatestVersion: r.Version,
				Provider:      peer.MirrorProvider(),
				LocationURL:   r.LocationURL,
			}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("failed to create mirror record: %w", err)
			}
			if err := upsertMirrorVersion(tx, record.ID, r); err != nil {
				return err
			}
		}

		for _, m := range plan.ToUpdate {
			updates := map[string]interface{}{
				"latest_version": m.Remote.Version,
				"agent_key":      keyFor(m.Remote),
			}
			if err := tx.Model(&model.AgentRecord{}).Where("id = ?", m.Local.ID).
				Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update mirror record: %w", err)
			}
			if err := upsertMirrorVersion(tx, m.Local.ID, m.Remote); err != nil {
				return err
			}
		}

		for _, l := range plan.ToRemove {
			if err := tx.Where("agent_id = ?", l.ID).Delete(&model.AgentVersion{}).Error; err != nil {
				return fmt.Errorf("failed to delete mirror versions: %w", err)
			}
			if err := tx.Delete(&model.AgentRecord{}, l.ID).Error; err != nil {
				return fmt.Errorf("failed to delete mirror record: %w", err)
			}
		}
		return nil
	})
}

// upsertMirrorVersion writes the mirrored card for one agent. Mirror version
// rows are overwritten on URL match (last write wins; no content diff is
// performed).
func upsertMirrorVersion(tx *gorm.DB, agentID int, r RemoteAgent) error {
	card := r.CardJSON
	if len(card) == 0 {
		card = []byte("{}")
	}
	hash, err := registry.CardHash(card)
	if err != nil {
		return fmt.Errorf("failed to hash mirrored card: %w", err)
	}

	values := map[string]interface{}{
		"protocol_version": r.ProtocolVersion,
		"card_json":        datatypes.JSON(card),
		"card_hash":        hash,
		"public":           true,
	}

	result := tx.Model(&model.AgentVersion{}).
		Where("agent_id = ? AND version = ?", agentID, r.Version).
		Updates(values)
	if result.Error != nil {
		return fmt.Errorf("failed to update mirror version: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		version := model.AgentVersion{
			AgentID:         agentID,
			Version:         r.Version,
			ProtocolVersion: r.ProtocolVersion,
			CardJSON:        datatypes.JSON(card),
			CardHash:        hash,
			Public:          true,
		}
		if err := tx.Create(&version).Error; err != nil {
			return fmt.Errorf("failed to create mirror version: %w", err)
		}
	}
	return nil
}

// mirrorIndex refreshes the search index for the applied plan. Best-effort:
// the index is a secondary mirror and failures only cost freshness.
func (s *Service) mirrorIndex(peer *model.PeerRegistry, plan Plan) {
	if s.idx == nil {
		return
	}

	indexOne := func(agentID int, r RemoteAgent) {
		card, err := registry.ParseCard(r.CardJSON)
		if err != nil {
			return
		}
		doc := search.CardDoc{
			Tenant:      s.mirrorTenant.Slug,
			AgentID:     strconv.Itoa(agentID),
			AgentKey:    keyFor(r),
			Name:        card.Name,
			Description: card.Description,
			Version:     r.Version,
			Provider:    peer.MirrorProvider(),
			Skills:      card.SkillNames(),
			Public:      true,
		}
		if err := s.idx.IndexCard(doc); err != nil {
			s.logger.WithError(err).Warn("failed to index mirrored card")
		}
	}

	for _, r := range plan.ToAdd {
		var record model.AgentRecord
		err := s.db.Where("tenant_id = ? AND provider = ? AND location_url = ?",
			s.mirrorTenant.ID, peer.MirrorProvider(), r.LocationURL).First(&record).Error
		if err != nil {
			continue
		}
		indexOne(record.ID, r)
	}
	for _, m := range plan.ToUpdate {
		indexOne(m.Local.ID, m.Remote)
		cache.InvalidateLatestCard(context.Background(), s.mirrorTenant.ID, m.Local.ID)
	}
	for _, l := range plan.ToRemove {
		if err := s.idx.Delete(s.mirrorTenant.Slug, l.ID, l.LatestVersion); err != nil {
			s.logger.WithError(err).Warn("failed to remove mirrored card from index")
		}
		cache.InvalidateLatestCard(context.Background(), s.mirrorTenant.ID, l.ID)
	}
}

func (s *Service) finalize(rec *model.PeerSync, status, errMsg string, plan Plan) {
	added, updated, removed := plan.Counts()
	now := time.Now()

	rec.Status = status
	rec.ErrorMessage = errMsg
	rec.AgentsAdded = added
	rec.AgentsUpdated = updated
	rec.AgentsRemoved = removed
	rec.AgentsSynced = added + updated
	rec.CompletedAt = &now

	updates := map[string]interface{}{
		"status":         status,
		"error_message":  errMsg,
		"agents_added":   added,
		"agents_updated": updated,
		"agents_removed": removed,
		"agents_synced":  added + updated,
		"completed_at":   now,
	}
	if err := s.db.Model(&model.PeerSync{}).Where("id = ?", rec.ID).Updates(updates).Error; err != nil {
		s.logger.WithError(err).Error("failed to finalize sync record")
	}
}

// SyncAllPeers synchronizes every active, sync-enabled peer whose configured
// interval has elapsed, sequentially. A failing peer never blocks the rest.
func (s *Service) SyncAllPeers(ctx context.Context, syncType string) ([]model.PeerSync, error) {
	var peers []model.PeerRegistry
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND sync_enabled = ?", true, true).
		Find(&peers).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	results := make([]model.PeerSync, 0, len(peers))
	for _, peer := range peers {
		if !DueForSync(peer, now, s.defaultIntervalMinutes) {
			continue
		}
		rec, err := s.SyncWithPeer(ctx, peer.ID, syncType)
		if err != nil {
			s.logger.WithError(err).WithField("peer", peer.Name).Error("sync failed")
			continue
		}
		if rec != nil {
			results = append(results, *rec)
		}
	}
	return results, nil
}

// CheckPeer performs a live fetch against a peer without touching the local
// mirror: a connectivity diagnostic for admins before enabling sync. Returns
// the number of public agents the peer currently lists. found is false when
// the peer does not exist.
func (s *Service) CheckPeer(ctx context.Context, peerID int) (count int, found bool, err error) {
	var peer model.PeerRegistry
	err = s.db.WithContext(ctx).First(&peer, peerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	remote, err := s.client.FetchPublicAgents(ctx, peer.BaseURL, peer.AuthToken)
	if err != nil {
		return 0, true, err
	}
	return len(remote), true, nil
}

// SyncHistory returns the most-recent-first sync records, optionally scoped
// to one peer (peerID = 0 means all peers).
func (s *Service) SyncHistory(ctx context.Context, peerID, limit, offset int) ([]model.PeerSync, int64, error) {
	limit, offset = registry.NormalizePage(limit, offset)

	q := s.db.WithContext(ctx).Model(&model.PeerSync{})
	if peerID > 0 {
		q = q.Where("peer_registry_id = ?", peerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []model.PeerSync
	err := q.Order("started_at DESC, id DESC").Limit(limit).Offset(offset).Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func keyFor(r RemoteAgent) string {
	if r.AgentKey != "" {
		return r.AgentKey
	}
	return registry.AgentKey(r.LocationURL)
}

func publisherFor(r RemoteAgent, peer *model.PeerRegistry) string {
	if r.PublisherID != "" {
		return r.PublisherID
	}
	return peer.MirrorProvider()
}
