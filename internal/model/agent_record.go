package model

// Provider prefix used to tag agent records mirrored from a federated peer.
// Local publishes use ProviderLocal.
const (
	ProviderLocal      = "local"
	ProviderPeerPrefix = "peer:"
)

// AgentRecord identifies a logical agent within a tenant. The actual card
// content lives in AgentVersion rows; LatestVersion is a mutable pointer to
// the version string considered current.
type AgentRecord struct {
	BaseModel
	TenantID      int    `gorm:"not null;index;uniqueIndex:idx_tenant_publisher_key,priority:1" json:"tenant_id"`
	PublisherID   string `gorm:"type:varchar(64);not null;uniqueIndex:idx_tenant_publisher_key,priority:2" json:"publisher_id"`
	AgentKey      string `gorm:"type:varchar(128);not null;uniqueIndex:idx_tenant_publisher_key,priority:3" json:"agent_key"`
	LatestVersion string `gorm:"type:varchar(64);not null" json:"latest_version"`
	Provider      string `gorm:"type:varchar(128);not null;default:'local';index" json:"provider"`
	LocationURL   string `gorm:"type:varchar(512);index" json:"location_url"`
}

// TableName specifies the table name for AgentRecord model
func (AgentRecord) TableName() string {
	return "agent_records"
}

// IsPeerMirror reports whether this record was created by peer synchronization.
func (a *AgentRecord) IsPeerMirror() bool {
	return len(a.Provider) > len(ProviderPeerPrefix) && a.Provider[:len(ProviderPeerPrefix)] == ProviderPeerPrefix
}
