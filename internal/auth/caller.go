package auth

// Caller kind constants
const (
	CallerKindUser   = "human_user"
	CallerKindClient = "service_client"
)

// Role constants
const (
	RoleAdmin     = "admin"
	RoleViewer    = "viewer"
	RolePublisher = "publisher"
	RoleClient    = "client"
)

// Caller is the unified principal consumed by request handlers, regardless of
// whether the token came from the password login flow or the OAuth2
// client-credentials flow.
type Caller struct {
	Kind     string
	Subject  string
	UID      int
	Role     string
	Tenant   string
	ClientID string
}

// CallerFromClaims builds a Caller from verified JWT claims.
func CallerFromClaims(claims *Claims) Caller {
	return Caller{
		Kind:     claims.Kind,
		Subject:  claims.Subject,
		UID:      claims.UID,
		Role:     claims.Role,
		Tenant:   claims.Tenant,
		ClientID: claims.ClientID,
	}
}

// IsAdmin reports whether the caller holds the admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// IsServiceClient reports whether the caller authenticated via
// client credentials.
func (c Caller) IsServiceClient() bool {
	return c.Kind == CallerKindClient
}
