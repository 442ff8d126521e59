package model

import "time"

// Event topic constants
const (
	EventTopicAgents = "agents"
	EventTopicPeers  = "peers"
)

// RegistryEvent represents a registry event stored in the database and
// broadcast to connected clients (publish, sync completion, ...).
type RegistryEvent struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Topic     string    `gorm:"column:topic;type:varchar(64);not null;index:idx_topic_id" json:"topic"`
	EventType string    `gorm:"column:event_type;type:enum('add','update','delete','sync');not null" json:"event_type"`
	Payload   string    `gorm:"column:payload;type:json;not null" json:"payload"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for RegistryEvent
func (RegistryEvent) TableName() string {
	return "registry_events"
}
