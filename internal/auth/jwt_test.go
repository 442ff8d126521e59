package auth

import (
	"testing"
	"time"
)

func TestGenerateAndParseUserToken(t *testing.T) {
	InitJWT("test-secret-key")

	uid := 1
	username := "testuser"
	role := "admin"
	tenant := "default"
	expireAt := time.Now().Add(24 * time.Hour)
	issuer := "a2a_registry"

	token, err := GenerateUserToken(uid, username, role, tenant, expireAt, issuer)
	if err != nil {
		t.Fatalf("GenerateUserToken() failed: %v", err)
	}

	if token == "" {
		t.Error("Expected non-empty token")
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() failed: %v", err)
	}

	if claims.UID != uid {
		t.Errorf("Expected UID %d, got %d", uid, claims.UID)
	}
	if claims.Subject != username {
		t.Errorf("Expected subject %s, got %s", username, claims.Subject)
	}
	if claims.Kind != CallerKindUser {
		t.Errorf("Expected kind %s, got %s", CallerKindUser, claims.Kind)
	}
	if claims.Role != role {
		t.Errorf("Expected role %s, got %s", role, claims.Role)
	}
	if claims.Tenant != tenant {
		t.Errorf("Expected tenant %s, got %s", tenant, claims.Tenant)
	}
	if claims.Issuer != issuer {
		t.Errorf("Expected issuer %s, got %s", issuer, claims.Issuer)
	}
}

func TestGenerateAndParseClientToken(t *testing.T) {
	InitJWT("test-secret-key")

	clientID := "7f9c34a2-1111-2222-3333-444455556666"
	token, err := GenerateClientToken(clientID, RoleClient, "default", time.Now().Add(time.Hour), "a2a_registry")
	if err != nil {
		t.Fatalf("GenerateClientToken() failed: %v", err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() failed: %v", err)
	}

	if claims.Kind != CallerKindClient {
		t.Errorf("Expected kind %s, got %s", CallerKindClient, claims.Kind)
	}
	if claims.ClientID != clientID {
		t.Errorf("Expected client_id %s, got %s", clientID, claims.ClientID)
	}
	if claims.Subject != clientID {
		t.Errorf("Expected subject %s, got %s", clientID, claims.Subject)
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	InitJWT("test-secret-key")

	_, err := ParseToken("invalid.token.string")
	if err == nil {
		t.Error("ParseToken() should fail for invalid token")
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	InitJWT("test-secret-key")

	expireAt := time.Now().Add(-1 * time.Hour)
	token, err := GenerateUserToken(1, "testuser", "admin", "default", expireAt, "a2a_registry")
	if err != nil {
		t.Fatalf("GenerateUserToken() failed: %v", err)
	}

	_, err = ParseToken(token)
	if err == nil {
		t.Error("ParseToken() should fail for expired token")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	InitJWT("secret-1")

	token, err := GenerateUserToken(1, "testuser", "admin", "default", time.Now().Add(24*time.Hour), "a2a_registry")
	if err != nil {
		t.Fatalf("GenerateUserToken() failed: %v", err)
	}

	InitJWT("secret-2")

	_, err = ParseToken(token)
	if err == nil {
		t.Error("ParseToken() should fail when secret is different")
	}
}

func TestCallerFromClaims(t *testing.T) {
	InitJWT("test-secret-key")

	token, err := GenerateClientToken("client-1", RoleClient, "acme", time.Now().Add(time.Hour), "a2a_registry")
	if err != nil {
		t.Fatalf("GenerateClientToken() failed: %v", err)
	}
	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() failed: %v", err)
	}

	caller := CallerFromClaims(claims)
	if !caller.IsServiceClient() {
		t.Error("Expected service client caller")
	}
	if caller.IsAdmin() {
		t.Error("Client role should not be admin")
	}
	if caller.Tenant != "acme" {
		t.Errorf("Expected tenant acme, got %s", caller.Tenant)
	}
	if caller.ClientID != "client-1" {
		t.Errorf("Expected client-1, got %s", caller.ClientID)
	}
}
