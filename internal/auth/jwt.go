package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents JWT claims. Both human-user and client-credentials tokens
// carry the same claim shape; Kind distinguishes the flows.
type Claims struct {
	UID      int    `json:"uid,omitempty"`
	Kind     string `json:"kind"`
	Role     string `json:"role"`
	Tenant   string `json:"tenant"`
	ClientID string `json:"client_id,omitempty"`
	jwt.RegisteredClaims
}

var jwtSecret []byte

// InitJWT initializes JWT secret
func InitJWT(secret string) {
	jwtSecret = []byte(secret)
}

// GenerateUserToken generates a JWT token for a human user
func GenerateUserToken(uid int, username, role, tenant string, expireAt time.Time, issuer string) (string, error) {
	return generateToken(Claims{
		UID:    uid,
		Kind:   CallerKindUser,
		Role:   role,
		Tenant: tenant,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expireAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
		},
	})
}

// GenerateClientToken generates a JWT token for an OAuth2 client-credentials
// principal
func GenerateClientToken(clientID, role, tenant string, expireAt time.Time, issuer string) (string, error) {
	return generateToken(Claims{
		Kind:     CallerKindClient,
		Role:     role,
		Tenant:   tenant,
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			ExpiresAt: jwt.NewNumericDate(expireAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
		},
	})
}

func generateToken(claims Claims) (string, error) {
	if len(jwtSecret) == 0 {
		return "", fmt.Errorf("JWT secret not initialized")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseToken parses and validates a JWT token
func ParseToken(tokenString string) (*Claims, error) {
	if len(jwtSecret) == 0 {
		return nil, fmt.Errorf("JWT secret not initialized")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
