package registry

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"a2a_registry/internal/cache"
	"a2a_registry/internal/model"
	"a2a_registry/internal/search"

	"gorm.io/gorm"
)

// PublishParams describes one publish request.
type PublishParams struct {
	Tenant      *model.Tenant
	PublisherID string
	RawCard     []byte
	Public      bool
}

// PublishResult reports what one publish call did. VersionCreated is false
// for an idempotent re-publish of an existing (agent, version) pair;
// RecordCreated is true only when this call brought the agent itself into
// existence.
type PublishResult struct {
	Record         *model.AgentRecord
	Version        *model.AgentVersion
	VersionCreated bool
	RecordCreated  bool
}

// Publish stores a new card version. Publishing the same (agent, version)
// twice is idempotent and returns the existing row; the record's
// latest_version pointer is always set to the published version, even when
// an older version is published after a newer one. Validation failures wrap
// ErrInvalidCard; everything else is a store failure.
func (s *Service) Publish(ctx context.Context, p PublishParams) (*PublishResult, error) {
	card, err := ParseCard(p.RawCard)
	if err != nil {
		return nil, err
	}

	key := AgentKey(card.Name)
	if key == "" {
		return nil, fmt.Errorf("%w: name %q yields an empty agent key", ErrInvalidCard, card.Name)
	}

	hash, err := CardHash(p.RawCard)
	if err != nil {
		return nil, err
	}

	var record model.AgentRecord
	var version model.AgentVersion
	recordCreated := false
	versionCreated := false

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("tenant_id = ? AND publisher_id = ? AND agent_key = ?",
			p.Tenant.ID, p.PublisherID, key).First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			record = model.AgentRecord{
				TenantID:      p.Tenant.ID,
				PublisherID:   p.PublisherID,
				AgentKey:      key,
				LatestVersion: card.Version,
				Provider:      model.ProviderLocal,
				LocationURL:   card.URL,
			}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("failed to create agent record: %w", err)
			}
			recordCreated = true
		} else if err != nil {
			return err
		}

		err = tx.Where("agent_id = ? AND version = ?", record.ID, card.Version).First(&version).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			version = model.AgentVersion{
				AgentID:         record.ID,
				Version:         card.Version,
				ProtocolVersion: card.ProtocolVersion,
				CardJSON:        p.RawCard,
				CardHash:        hash,
				Public:          p.Public,
			}
			if err := tx.Create(&version).Error; err != nil {
				return fmt.Errorf("failed to create agent version: %w", err)
			}
			versionCreated = true
		} else if err != nil {
			return err
		}
		// Existing version rows are returned unchanged (idempotent publish).

		// Explicit pointer write: the published version becomes latest even
		// if a newer-looking version string was published earlier.
		updates := map[string]interface{}{
			"latest_version": card.Version,
			"location_url":   card.URL,
		}
		if err := tx.Model(&model.AgentRecord{}).Where("id = ?", record.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update latest_version pointer: %w", err)
		}
		record.LatestVersion = card.Version
		record.LocationURL = card.URL
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Secondary mirrors are best-effort: indexing or cache failures are
	// logged and swallowed, never fail the publish.
	if versionCreated && s.idx != nil {
		doc := search.CardDoc{
			Tenant:      p.Tenant.Slug,
			AgentID:     strconv.Itoa(record.ID),
			AgentKey:    record.AgentKey,
			Name:        card.Name,
			Description: card.Description,
			Version:     version.Version,
			Provider:    record.Provider,
			Skills:      card.SkillNames(),
			Public:      version.Public,
		}
		if err := s.idx.IndexCard(doc); err != nil {
			s.logger.WithError(err).WithField("agent_key", record.AgentKey).
				Warn("failed to index published card")
		}
	}
	cache.InvalidateLatestCard(ctx, p.Tenant.ID, record.ID)

	return &PublishResult{
		Record:         &record,
		Version:        &version,
		VersionCreated: versionCreated,
		RecordCreated:  recordCreated,
	}, nil
}
