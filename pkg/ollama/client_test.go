package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClient(t *testing.T) {
	if _, err := NewClient("http://localhost:11434/api/chat"); err != nil {
		t.Errorf("Expected valid URL, got %v", err)
	}
	if _, err := NewClient("ftp://localhost:11434"); err == nil {
		t.Error("Expected error for unsupported scheme")
	}
	if _, err := NewClient("://bad"); err == nil {
		t.Error("Expected error for malformed URL")
	}
}

func TestQuery(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"llava","message":{"role":"assistant","content":"{\"faces\":[]}"},"done":true}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL + "/api/chat")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	answer, err := c.Query(context.Background(), "llava", "find faces", "aGVsbG8=")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if answer != `{"faces":[]}` {
		t.Errorf("Unexpected answer %q", answer)
	}
	if got["model"] != "llava" {
		t.Errorf("Expected model llava, got %v", got["model"])
	}
	if got["format"] != "json" {
		t.Errorf("Expected json format, got %v", got["format"])
	}
}

func TestQueryBadImage(t *testing.T) {
	c, err := NewClient("http://localhost:1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Query(context.Background(), "llava", "p", "%%%"); err == nil {
		t.Error("Expected error for invalid base64 image")
	}
}
