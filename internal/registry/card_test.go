package registry

import (
	"testing"
)

func TestAgentKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Weather Agent", "weather-agent"},
		{"already slug", "weather-agent", "weather-agent"},
		{"mixed punctuation", "GPT-4 (Turbo) Agent!", "gpt-4-turbo-agent"},
		{"leading trailing junk", "  --Hello--  ", "hello"},
		{"collapses runs", "a   b///c", "a-b-c"},
		{"unicode stripped", "Ünïcode Agent", "n-code-agent"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgentKey(tt.in); got != tt.want {
				t.Errorf("AgentKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseCard(t *testing.T) {
	raw := []byte(`{
		"name": "Weather Agent",
		"description": "Forecasts",
		"version": "1.0.0",
		"protocolVersion": "0.2.5",
		"url": "https://agents.example.com/weather",
		"skills": [{"id": "forecast", "name": "Forecast", "description": "7 day forecast"}]
	}`)

	card, err := ParseCard(raw)
	if err != nil {
		t.Fatalf("ParseCard() failed: %v", err)
	}
	if card.Name != "Weather Agent" {
		t.Errorf("Unexpected name: %s", card.Name)
	}
	if card.Version != "1.0.0" {
		t.Errorf("Unexpected version: %s", card.Version)
	}
	if len(card.Skills) != 1 || card.Skills[0].ID != "forecast" {
		t.Errorf("Unexpected skills: %+v", card.Skills)
	}
	if got := card.SkillNames(); len(got) != 1 || got[0] != "Forecast" {
		t.Errorf("Unexpected skill names: %v", got)
	}
}

func TestParseCard_Invalid(t *testing.T) {
	if _, err := ParseCard([]byte(`not json`)); err == nil {
		t.Error("ParseCard() should fail for malformed JSON")
	}
	if _, err := ParseCard([]byte(`{"version": "1.0.0"}`)); err == nil {
		t.Error("ParseCard() should fail when name is missing")
	}
	if _, err := ParseCard([]byte(`{"name": "x"}`)); err == nil {
		t.Error("ParseCard() should fail when version is missing")
	}
}

func TestCardHash_StableAcrossKeyOrder(t *testing.T) {
	a := []byte(`{"name":"x","version":"1.0.0","url":"https://a"}`)
	b := []byte(`{"url":"https://a","version":"1.0.0","name":"x"}`)
	c := []byte(`{"name":"x","version":"1.0.1","url":"https://a"}`)

	hashA, err := CardHash(a)
	if err != nil {
		t.Fatalf("CardHash() failed: %v", err)
	}
	hashB, err := CardHash(b)
	if err != nil {
		t.Fatalf("CardHash() failed: %v", err)
	}
	hashC, err := CardHash(c)
	if err != nil {
		t.Fatalf("CardHash() failed: %v", err)
	}

	if hashA != hashB {
		t.Errorf("Hash should be stable across key order: %s != %s", hashA, hashB)
	}
	if hashA == hashC {
		t.Error("Different content should hash differently")
	}
	if len(hashA) != 64 {
		t.Errorf("Expected 64-char sha256 hex digest, got %d chars", len(hashA))
	}
}
