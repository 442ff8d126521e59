package registry

import (
	"context"
	"errors"
	"time"

	"a2a_registry/internal/metrics"
	"a2a_registry/internal/model"
	"a2a_registry/internal/search"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service answers visibility questions for agent cards and handles publishes.
// Absence and denial are reported as return values; only store failures are
// returned as errors.
type Service struct {
	db     *gorm.DB
	idx    *search.Index
	logger *logrus.Entry
}

// NewService creates a registry service. idx may be nil when search is
// disabled; indexing then becomes a no-op.
func NewService(db *gorm.DB, idx *search.Index, logger *logrus.Entry) *Service {
	return &Service{
		db:     db,
		idx:    idx,
		logger: logger.WithField("component", "registry"),
	}
}

// AgentListItem is the joined (record, pinned-latest version) row returned by
// listing queries.
type AgentListItem struct {
	AgentID         int            `gorm:"column:agent_id" json:"agent_id"`
	AgentKey        string         `gorm:"column:agent_key" json:"agent_key"`
	PublisherID     string         `gorm:"column:publisher_id" json:"publisher_id"`
	Provider        string         `gorm:"column:provider" json:"provider"`
	LocationURL     string         `gorm:"column:location_url" json:"location_url"`
	Version         string         `gorm:"column:version" json:"version"`
	ProtocolVersion string         `gorm:"column:protocol_version" json:"protocol_version"`
	Public          bool           `gorm:"column:public" json:"public"`
	CardJSON        datatypes.JSON `gorm:"column:card_json" json:"card_json"`
	CreatedAt       time.Time      `gorm:"column:created_at" json:"created_at"`
}

const listColumns = "agent_records.id AS agent_id, agent_records.agent_key, agent_records.publisher_id, " +
	"agent_records.provider, agent_records.location_url, agent_versions.version, " +
	"agent_versions.protocol_version, agent_versions.public, agent_versions.card_json, agent_versions.created_at"

// latestJoin restricts agent_versions to the row pinned by the record's
// latest_version pointer, not the most recently created row.
func (s *Service) latestJoin(tenantID int) *gorm.DB {
	return s.db.Table("agent_versions").
		Joins("JOIN agent_records ON agent_records.id = agent_versions.agent_id AND agent_records.latest_version = agent_versions.version").
		Where("agent_records.tenant_id = ?", tenantID)
}

// ListPublic returns the latest public version per agent in the tenant,
// newest first. An empty tenant yields ([], 0), not an error.
func (s *Service) ListPublic(ctx context.Context, tenantID, limit, offset int) ([]AgentListItem, int64, error) {
	limit, offset = NormalizePage(limit, offset)

	q := s.latestJoin(tenantID).Where("agent_versions.public = ?", true)

	var total int64
	if err := q.WithContext(ctx).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := make([]AgentListItem, 0, limit)
	err := q.WithContext(ctx).
		Select(listColumns).
		Order("agent_versions.created_at DESC, agent_records.id DESC").
		Limit(limit).Offset(offset).
		Scan(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListEntitled returns the union of the public listing and every agent the
// client holds an entitlement for, deduplicated by agent id.
func (s *Service) ListEntitled(ctx context.Context, tenantID int, clientID string, limit, offset int) ([]AgentListItem, int64, error) {
	limit, offset = NormalizePage(limit, offset)

	entitledSub := s.db.Table("entitlements").
		Select("agent_id").
		Where("tenant_id = ? AND client_id = ?", tenantID, clientID)

	q := s.latestJoin(tenantID).
		Where("agent_versions.public = ? OR agent_records.id IN (?)", true, entitledSub)

	var total int64
	if err := q.WithContext(ctx).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := make([]AgentListItem, 0, limit)
	err := q.WithContext(ctx).
		Select(listColumns).
		Order("agent_versions.created_at DESC, agent_records.id DESC").
		Limit(limit).Offset(offset).
		Scan(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// IsEntitled reports whether any entitlement row exists for the triple. Any
// scope counts as entitled for read access.
func (s *Service) IsEntitled(ctx context.Context, tenantID int, clientID string, agentID int) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Entitlement{}).
		Where("tenant_id = ? AND client_id = ? AND agent_id = ?", tenantID, clientID, agentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetLatest fetches the pinned-latest version for one agent. Returns
// (nil, nil, nil) when the agent does not exist in the tenant — callers map
// absence to "not found", never to a store error.
func (s *Service) GetLatest(ctx context.Context, tenantID, agentID int) (*model.AgentRecord, *model.AgentVersion, error) {
	var record model.AgentRecord
	err := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", agentID, tenantID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	var version model.AgentVersion
	err = s.db.WithContext(ctx).
		Where("agent_id = ? AND version = ?", record.ID, record.LatestVersion).
		First(&version).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Dangling latest_version pointer is treated as absence.
			return nil, nil, nil
		}
		return nil, nil, err
	}

	return &record, &version, nil
}

// CheckAgentAccess is the caller-facing read gate: true when the latest
// version is public, the caller owns the record, or an entitlement exists.
// A missing agent yields (false, nil); callers distinguish 404 via GetLatest.
func (s *Service) CheckAgentAccess(ctx context.Context, agentID, tenantID int, clientID string) (bool, error) {
	record, version, err := s.GetLatest(ctx, tenantID, agentID)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}
	if Accessible(version.Public, record.PublisherID, clientID, false) {
		return true, nil
	}
	if clientID == "" {
		return false, nil
	}
	entitled, err := s.IsEntitled(ctx, tenantID, clientID, agentID)
	if err != nil {
		return false, err
	}
	return entitled, nil
}

// GetTenantBySlug resolves a tenant. Returns (nil, nil) when absent.
func (s *Service) GetTenantBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tenant, nil
}

// SearchPublic runs a full-text query against the index, falling back to a
// LIKE query on the store when the index is unavailable. A search-backend
// outage degrades ranking, never read availability.
func (s *Service) SearchPublic(ctx context.Context, tenant *model.Tenant, query string, limit, offset int) ([]AgentListItem, int64, error) {
	limit, offset = NormalizePage(limit, offset)

	if s.idx != nil {
		hits, total, err := s.idx.Search(tenant.Slug, query, limit, offset)
		if err == nil {
			items := make([]AgentListItem, 0, len(hits))
			for _, hit := range hits {
				var item AgentListItem
				scanErr := s.latestJoin(tenant.ID).
					Where("agent_records.id = ?", hit.AgentID).
					Select(listColumns).
					Scan(&item).Error
				if scanErr != nil || item.AgentID == 0 {
					// Index/store divergence: skip rows the store no longer has.
					continue
				}
				items = append(items, item)
			}
			return items, int64(total), nil
		}
		s.logger.WithError(err).Warn("search index query failed, falling back to store")
		metrics.SearchFallbacks.Inc()
	}

	like := "%" + query + "%"
	q := s.latestJoin(tenant.ID).
		Where("agent_versions.public = ?", true).
		Where("agent_records.agent_key LIKE ? OR agent_versions.card_json LIKE ?", like, like)

	var total int64
	if err := q.WithContext(ctx).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := make([]AgentListItem, 0, limit)
	err := q.WithContext(ctx).
		Select(listColumns).
		Order("agent_versions.created_at DESC, agent_records.id DESC").
		Limit(limit).Offset(offset).
		Scan(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
