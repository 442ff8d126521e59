package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// publisher is a small CLI that publishes an agent card to a registry using
// the OAuth2 client-credentials flow.
//
// Usage:
//
//	publisher -card card.json [-public] [-registry http://localhost:8080]
//
// Credentials come from PUBLISHER_CLIENT_ID / PUBLISHER_CLIENT_SECRET (or a
// .env file).
func main() {
	_ = godotenv.Load()

	var (
		cardPath    = flag.String("card", "", "path to the agent card JSON file")
		public      = flag.Bool("public", false, "publish the card as publicly visible")
		registryURL = flag.String("registry", getEnv("REGISTRY_URL", "http://localhost:8080"), "registry base URL")
		timeout     = flag.Duration("timeout", 30*time.Second, "request timeout")
	)
	flag.Parse()

	if *cardPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	clientID := os.Getenv("PUBLISHER_CLIENT_ID")
	clientSecret := os.Getenv("PUBLISHER_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		log.Fatal("PUBLISHER_CLIENT_ID and PUBLISHER_CLIENT_SECRET are required")
	}

	card, err := os.ReadFile(*cardPath)
	if err != nil {
		log.Fatalf("Failed to read card file: %v", err)
	}
	if !json.Valid(card) {
		log.Fatalf("Card file is not valid JSON: %s", *cardPath)
	}

	httpClient := &http.Client{Timeout: *timeout}

	token, err := fetchToken(httpClient, *registryURL, clientID, clientSecret)
	if err != nil {
		log.Fatalf("Failed to obtain token: %v", err)
	}

	result, err := publish(httpClient, *registryURL, token, card, *public)
	if err != nil {
		log.Fatalf("Publish failed: %v", err)
	}

	log.Printf("✓ Published agent %v version %v (agent_key=%v, created=%v)",
		result["agent_id"], result["version"], result["agent_key"], result["created"])
}

// envelope is the registry's standard response wrapper
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func fetchToken(client *http.Client, baseURL, clientID, clientSecret string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     clientID,
		"client_secret": clientSecret,
	})

	resp, err := client.Post(baseURL+"/api/v1/auth/token", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || env.Code != 0 {
		return "", fmt.Errorf("token request failed: status=%d code=%d message=%s",
			resp.StatusCode, env.Code, env.Message)
	}

	var data struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", fmt.Errorf("failed to decode token data: %w", err)
	}
	if data.AccessToken == "" {
		return "", fmt.Errorf("empty access token in response")
	}
	return data.AccessToken, nil
}

func publish(client *http.Client, baseURL, token string, card []byte, public bool) (map[string]interface{}, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"card":   json.RawMessage(card),
		"public": public,
	})

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/v1/agents/publish", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode publish response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || env.Code != 0 {
		return nil, fmt.Errorf("publish rejected: status=%d code=%d message=%s",
			resp.StatusCode, env.Code, env.Message)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode publish data: %w", err)
	}
	return result, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
