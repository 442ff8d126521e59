package model

// EntitlementScope represents the access level granted by an entitlement
type EntitlementScope string

const (
	ScopeView  EntitlementScope = "view"
	ScopeUse   EntitlementScope = "use"
	ScopeAdmin EntitlementScope = "admin"
)

// ValidScope reports whether s is one of the known entitlement scopes.
func ValidScope(s string) bool {
	switch EntitlementScope(s) {
	case ScopeView, ScopeUse, ScopeAdmin:
		return true
	}
	return false
}

// Entitlement grants a specific client access to a specific private agent
// within a tenant. Any scope counts as entitled for read access.
type Entitlement struct {
	BaseModel
	TenantID int              `gorm:"not null;uniqueIndex:idx_entitlement,priority:1" json:"tenant_id"`
	ClientID string           `gorm:"type:varchar(64);not null;uniqueIndex:idx_entitlement,priority:2;index" json:"client_id"`
	AgentID  int              `gorm:"not null;uniqueIndex:idx_entitlement,priority:3;index" json:"agent_id"`
	Scope    EntitlementScope `gorm:"type:enum('view','use','admin');not null;uniqueIndex:idx_entitlement,priority:4" json:"scope"`
}

// TableName specifies the table name for Entitlement model
func (Entitlement) TableName() string {
	return "entitlements"
}
