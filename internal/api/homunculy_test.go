package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
)

func setupTestServer(handler http.HandlerFunc) (*httptest.Server, *Client) {
	server := httptest.NewServer(handler)
	client := &Client{
		client: resty.New().SetBaseURL(server.URL),
	}
	return server, client
}

func TestHealth(t *testing.T) {
	server, client := setupTestServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("Expected path /health, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	})
	defer server.Close()

	if err := client.Health(); err != nil {
		t.Errorf("Health() error = %v", err)
	}
}

func TestHealthServerError(t *testing.T) {
	server, client := setupTestServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer server.Close()

	if err := client.Health(); err == nil {
		t.Error("Health() expected error on 500 response, got nil")
	}
}

func TestListCompanions(t *testing.T) {
	expected := []Companion{
		{ID: "aria", Name: "Aria", VoiceID: "voice-1", Greeting: "Hey there!"},
		{ID: "kai", Name: "Kai", VoiceID: "voice-2"},
	}

	server, client := setupTestServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/companions" {
			t.Errorf("Expected path /api/v1/companions, got %s", r.URL.Path)
		}

		response := struct {
			Companions []Companion `json:"companions"`
		}{
			Companions: expected,
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	})
	defer server.Close()

	companions, err := client.ListCompanions()
	if err != nil {
		t.Fatalf("ListCompanions() error = %v", err)
	}

	if len(companions) != len(expected) {
		t.Fatalf("ListCompanions() returned %d companions, want %d", len(companions), len(expected))
	}

	for i, c := range companions {
		if c.ID != expected[i].ID {
			t.Errorf("companions[%d].ID = %q, want %q", i, c.ID, expected[i].ID)
		}
		if c.Name != expected[i].Name {
			t.Errorf("companions[%d].Name = %q, want %q", i, c.Name, expected[i].Name)
		}
	}
}

func TestGetCompanion(t *testing.T) {
	expected := Companion{ID: "aria", Name: "Aria", VoiceID: "voice-1", Greeting: "Hey there!"}

	server, client := setupTestServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/companions/aria" {
			t.Errorf("Expected path /api/v1/companions/aria, got %s", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(expected)
	})
	defer server.Close()

	companion, err := client.GetCompanion("aria")
	if err != nil {
		t.Fatalf("GetCompanion() error = %v", err)
	}

	if companion.ID != expected.ID || companion.Name != expected.Name || companion.VoiceID != expected.VoiceID {
		t.Errorf("GetCompanion() = %+v, want %+v", companion, expected)
	}
}

func TestGetCompanionNotFound(t *testing.T) {
	server, client := setupTestServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	if _, err := client.GetCompanion("missing"); err == nil {
		t.Error("GetCompanion() expected error on 404 response, got nil")
	}
}

func TestGetCompanionMalformedResponse(t *testing.T) {
	server, client := setupTestServer(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{not json"))
	})
	defer server.Close()

	if _, err := client.GetCompanion("aria"); err == nil {
		t.Error("GetCompanion() expected error on malformed response, got nil")
	}
}
