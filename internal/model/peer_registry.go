package model

import "time"

// PeerRegistry is a remote registry this instance federates with. Its public
// agents are mirrored locally by the peering service.
type PeerRegistry struct {
	BaseModel
	Name                string     `gorm:"type:varchar(128);uniqueIndex;not null" json:"name"`
	BaseURL             string     `gorm:"type:varchar(512);uniqueIndex;not null" json:"base_url"`
	AuthToken           string     `gorm:"type:varchar(512)" json:"-"`
	SyncEnabled         bool       `gorm:"not null;default:1" json:"sync_enabled"`
	SyncIntervalMinutes int        `gorm:"not null;default:60" json:"sync_interval_minutes"`
	IsActive            bool       `gorm:"not null;default:1" json:"is_active"`
	LastSyncAt          *time.Time `json:"last_sync_at"`
}

// TableName specifies the table name for PeerRegistry model
func (PeerRegistry) TableName() string {
	return "peer_registries"
}

// MirrorProvider returns the provider tag applied to agent records mirrored
// from this peer.
func (p *PeerRegistry) MirrorProvider() string {
	return ProviderPeerPrefix + p.Name
}
