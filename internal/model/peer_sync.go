package model

import "time"

// Sync status constants
const (
	SyncStatusInProgress = "in_progress"
	SyncStatusSuccess    = "success"
	SyncStatusFailed     = "failed"
)

// Sync type constants
const (
	SyncTypeManual    = "manual"
	SyncTypeScheduled = "scheduled"
)

// PeerSync is the append-only audit record of one synchronization attempt
// against a peer registry. Created at sync start, finalized at sync end,
// never mutated afterward.
type PeerSync struct {
	BaseModel
	PeerRegistryID int        `gorm:"not null;index" json:"peer_registry_id"`
	SyncType       string     `gorm:"type:enum('manual','scheduled');not null;default:'manual'" json:"sync_type"`
	Status         string     `gorm:"type:enum('in_progress','success','failed');not null;default:'in_progress';index" json:"status"`
	AgentsSynced   int        `gorm:"not null;default:0" json:"agents_synced"`
	AgentsAdded    int        `gorm:"not null;default:0" json:"agents_added"`
	AgentsUpdated  int        `gorm:"not null;default:0" json:"agents_updated"`
	AgentsRemoved  int        `gorm:"not null;default:0" json:"agents_removed"`
	ErrorMessage   string     `gorm:"type:varchar(512)" json:"error_message,omitempty"`
	StartedAt      time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}

// TableName specifies the table name for PeerSync model
func (PeerSync) TableName() string {
	return "peer_syncs"
}
