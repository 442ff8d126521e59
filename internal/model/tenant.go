package model

// TenantStatus represents tenant status
type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
)

/// Tenant is the isolation boundary: every agent, client and entitlement
// belongs to exactly one tenant.
type Tenant struct {
	BaseModel
	Slug   string       `gorm:"type:varchar(64);uniqueIndex;not null" json:"slug"`
	Name   string       `gorm:"type:varchar(128)" json:"name"`
	Status TenantStatus `gorm:"type:enum('active','inactive');default:'active'" json:"status"`
}

// TableName specifies the table name for Tenant model
func (Tenant) TableName() string {
	return "tenants"
}
