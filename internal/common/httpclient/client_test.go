package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Key") != "secret" {
			t.Errorf("missing header")
		}
		if r.Header.Get("X-Empty") != "" {
			t.Errorf("empty header must not be sent")
		}
		if r.URL.Path != "/echo" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("nope"))
			return
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"got": in["say"]})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second, map[string]string{"X-Key": "secret", "X-Empty": ""})
	if c.BaseURL() != srv.URL {
		t.Fatalf("trailing slash must be trimmed, got %s", c.BaseURL())
	}

	var out map[string]string
	code, err := c.DoJSON(context.Background(), http.MethodPost, "/echo", map[string]string{"say": "hi"}, &out)
	if err != nil || code != http.StatusCreated {
		t.Fatalf("unexpected result %d %v", code, err)
	}
	if out["got"] != "hi" {
		t.Fatalf("unexpected body %v", out)
	}

	code, err = c.DoJSON(context.Background(), http.MethodGet, "/missing", nil, nil)
	if err == nil || code != http.StatusNotFound || !strings.Contains(err.Error(), "nope") {
		t.Fatalf("expected 404 error, got %d %v", code, err)
	}
}

func TestDoUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, 200*time.Millisecond, nil)
	if _, err := c.Do(context.Background(), http.MethodGet, "/", nil); err == nil {
		t.Fatalf("expected error for closed server")
	}
}
