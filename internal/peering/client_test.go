package peering

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchPublicAgents_Envelope(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/agents/public" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":0,"message":"success","data":{"items":[
			{"agent_key":"weather","version":"1.0.0","location_url":"https://peer/weather"}
		],"total":1}}`))
	}))
	defer srv.Close()

	client := NewClient(5)
	agents, err := client.FetchPublicAgents(context.Background(), srv.URL, "secret-token")
	if err != nil {
		t.Fatalf("FetchPublicAgents() failed: %v", err)
	}
	if len(agents) != 1 {
		t.Fatalf("Expected 1 agent, got %d", len(agents))
	}
	if agents[0].LocationURL != "https://peer/weather" {
		t.Errorf("Unexpected location URL: %s", agents[0].LocationURL)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Expected bearer auth header, got %q", gotAuth)
	}
}

func TestFetchPublicAgents_BareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("Expected no auth header when token is empty")
		}
		w.Write([]byte(`[{"agent_key":"a","version":"1.0.0","location_url":"https://peer/a"}]`))
	}))
	defer srv.Close()

	client := NewClient(5)
	agents, err := client.FetchPublicAgents(context.Background(), srv.URL+"/", "")
	if err != nil {
		t.Fatalf("FetchPublicAgents() failed: %v", err)
	}
	if len(agents) != 1 || agents[0].AgentKey != "a" {
		t.Errorf("Unexpected agents: %+v", agents)
	}
}

func TestFetchPublicAgents_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(5)
	_, err := client.FetchPublicAgents(context.Background(), srv.URL, "")
	if err == nil {
		t.Error("Expected error for non-200 response")
	}
}

func TestFetchPublicAgents_EnvelopeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":5002,"message":"database error","data":null}`))
	}))
	defer srv.Close()

	client := NewClient(5)
	_, err := client.FetchPublicAgents(context.Background(), srv.URL, "")
	if err == nil {
		t.Error("Expected error for non-zero envelope code")
	}
}

func TestFetchPublicAgents_ConnectionRefused(t *testing.T) {
	client := NewClient(1)
	_, err := client.FetchPublicAgents(context.Background(), "http://127.0.0.1:1", "")
	if err == nil {
		t.Error("Expected transport error")
	}
}
