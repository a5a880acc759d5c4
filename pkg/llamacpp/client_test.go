package llamacpp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestQuery(t *testing.T) {
	var got ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"{\"faces\":[]}"}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL + "/")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	answer, err := c.Query(context.Background(), "test-model", "find faces", "aGVsbG8=")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if answer != `{"faces":[]}` {
		t.Errorf("Unexpected answer %q", answer)
	}

	if got.Model != "test-model" {
		t.Errorf("Expected model test-model, got %s", got.Model)
	}
	parts, ok := got.Messages[0].Content.([]interface{})
	if !ok || len(parts) != 2 {
		t.Fatalf("Expected text and image parts, got %#v", got.Messages[0].Content)
	}
	imageURL := parts[1].(map[string]interface{})["image_url"].(map[string]interface{})
	if !strings.HasPrefix(imageURL["url"].(string), "data:image/jpeg;base64,") {
		t.Errorf("Expected data URL, got %v", imageURL["url"])
	}
}

func TestImageMIME(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	var pngBuf, jpegBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(&jpegBuf, img, nil); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		imgB64 string
		want   string
	}{
		{"png", base64.StdEncoding.EncodeToString(pngBuf.Bytes()), "image/png"},
		{"jpeg", base64.StdEncoding.EncodeToString(jpegBuf.Bytes()), "image/jpeg"},
		{"not an image", "aGVsbG8=", "image/jpeg"},
		{"not base64", "%%%", "image/jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := imageMIME(tt.imgB64); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestQueryPNGDataURL(t *testing.T) {
	var got ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	c, _ := NewClient(srv.URL)
	if _, err := c.Query(context.Background(), "m", "p", base64.StdEncoding.EncodeToString(buf.Bytes())); err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	parts := got.Messages[0].Content.([]interface{})
	url := parts[1].(map[string]interface{})["image_url"].(map[string]interface{})["url"].(string)
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("Expected png data URL, got %.40s", url)
	}
}

func TestQueryArrayContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":[{"type":"text","text":"hello"}]}}]}`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	answer, err := c.Query(context.Background(), "m", "p", "")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if answer != "hello" {
		t.Errorf("Expected hello, got %q", answer)
	}
}

func TestQueryErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `boom`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":""}}]}`},
		{"invalid json", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, _ := NewClient(srv.URL)
			if _, err := c.Query(context.Background(), "m", "p", ""); err == nil {
				t.Error("Expected error")
			}
		})
	}
}
