package model

import (
	"gorm.io/datatypes"
)

// AgentVersion is one immutable published snapshot of an agent card.
// Republishing the same (agent_id, version) returns the existing row.
type AgentVersion struct {
	BaseModel
	AgentID         int            `gorm:"not null;index;uniqueIndex:idx_agent_version,priority:1" json:"agent_id"`
	Version         string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_agent_version,priority:2" json:"version"`
	ProtocolVersion string         `gorm:"type:varchar(32)" json:"protocol_version"`
	CardJSON        datatypes.JSON `gorm:"type:json;not null" json:"card_json"`
	CardHash        string         `gorm:"type:varchar(64);not null;index" json:"card_hash"`
	Public          bool           `gorm:"not null;default:0;index" json:"public"`
}

// TableName specifies the table name for AgentVersion model
func (AgentVersion) TableName() string {
	return "agent_versions"
}
