package model

// Client is an OAuth2 client-credentials principal (service account).
// The secret is stored hashed and never returned after creation.
type Client struct {
	BaseModel
	TenantID   int    `gorm:"not null;index" json:"tenant_id"`
	ClientID   string `gorm:"type:varchar(64);uniqueIndex;not null" json:"client_id"`
	SecretHash string `gorm:"type:varchar(255);not null" json:"-"`
	Name       string `gorm:"type:varchar(128);not null" json:"name"`
	Scopes     string `gorm:"type:varchar(255)" json:"scopes"`
	IsActive   bool   `gorm:"not null;default:1" json:"is_active"`
}

// TableName specifies the table name for Client model
func (Client) TableName() string {
	return "clients"
}
