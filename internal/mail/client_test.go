package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendPasswordReset(t *testing.T) {
	var got map[string]string
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("key-123", srv.URL, "noreply@tella.app")
	err := c.SendPasswordReset(context.Background(), "user@example.com", "tellaai://reset-password?token=abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth != "Bearer key-123" {
		t.Fatalf("authorization header = %q", auth)
	}
	if got["to"] != "user@example.com" || got["from"] != "noreply@tella.app" {
		t.Fatalf("unexpected payload: %v", got)
	}
}

func TestSendPasswordResetServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient("key-123", srv.URL, "noreply@tella.app")
	if err := c.SendPasswordReset(context.Background(), "u@e.com", "link"); err == nil {
		t.Fatalf("expected error on 502")
	}
}

func TestSendPasswordResetNoKey(t *testing.T) {
	c := NewClient("", "http://unused", "noreply@tella.app")
	if err := c.SendPasswordReset(context.Background(), "u@e.com", "link"); err == nil {
		t.Fatalf("expected error without API key")
	}
}
