package newsletter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestConvertKit_Subscribe(t *testing.T) {
	var (
		method, path string
		body         subscribeRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"subscription":{"id":1}}`))
	}))
	defer srv.Close()

	c := NewConvertKit(srv.URL, "123", "key")
	if err := c.Subscribe(context.Background(), "a@b.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if method != http.MethodPost || path != "/forms/123/subscribe" {
		t.Fatalf("unexpected request: %s %s", method, path)
	}
	if body.APIKey != "key" || body.Email != "a@b.com" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestConvertKit_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewConvertKit(srv.URL, "123", "bad")
	if err := c.Subscribe(context.Background(), "a@b.com"); err == nil {
		t.Fatalf("expected error on 401")
	}
}

func TestNoop(t *testing.T) {
	if err := NewNoop(zerolog.Nop()).Subscribe(context.Background(), "a@b.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
