package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendText(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	client := NewClient("token-123", "555000", WithBaseURL(srv.URL))
	if err := client.SendText(context.Background(), "5511999999999", "Olá!"); err != nil {
		t.Fatalf("SendText: %v", err)
	}

	if gotPath != "/555000/messages" {
		t.Errorf("path = %s, want /555000/messages", gotPath)
	}
	if gotAuth != "Bearer token-123" {
		t.Errorf("auth = %s", gotAuth)
	}
	if gotBody["messaging_product"] != "whatsapp" {
		t.Errorf("messaging_product = %v", gotBody["messaging_product"])
	}
	if gotBody["to"] != "5511999999999" || gotBody["type"] != "text" {
		t.Errorf("unexpected payload: %v", gotBody)
	}
	text, _ := gotBody["text"].(map[string]any)
	if text["body"] != "Olá!" {
		t.Errorf("text body = %v", text["body"])
	}
}

func TestSendText_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad token"}}`))
	}))
	defer srv.Close()

	client := NewClient("bad", "555000", WithBaseURL(srv.URL))
	err := client.SendText(context.Background(), "5511999999999", "oi")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
}

func TestSendText_NotConfigured(t *testing.T) {
	client := NewClient("", "")
	if err := client.SendText(context.Background(), "x", "y"); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestMediaURLAndDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/media-1":
			_ = json.NewEncoder(w).Encode(map[string]string{"url": "http://" + r.Host + "/download/media-1"})
		case "/download/media-1":
			if r.Header.Get("Authorization") != "Bearer token-123" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_, _ = w.Write([]byte("OGGDATA"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient("token-123", "555000", WithBaseURL(srv.URL))

	url, err := client.MediaURL(context.Background(), "media-1")
	if err != nil {
		t.Fatalf("MediaURL: %v", err)
	}

	data, err := client.DownloadMedia(context.Background(), url)
	if err != nil {
		t.Fatalf("DownloadMedia: %v", err)
	}
	if string(data) != "OGGDATA" {
		t.Errorf("media data = %q", data)
	}
}

func TestMediaURL_MissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient("token-123", "555000", WithBaseURL(srv.URL))
	if _, err := client.MediaURL(context.Background(), "media-1"); err == nil {
		t.Fatal("expected error for empty media URL")
	}
}
