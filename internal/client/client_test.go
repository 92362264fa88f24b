package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestBust(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "http://cams.example/img/1.jpg", "http://cams.example/img/1.jpg?t=1700000000123"},
		{"keeps other params", "http://cams.example/img?id=4", "http://cams.example/img?id=4&t=1700000000123"},
		{"replaces old token", "http://cams.example/img.jpg?t=5", "http://cams.example/img.jpg?t=1700000000123"},
		{"unparseable", "http://[::1", "http://[::1?t=1700000000123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Bust(tt.in, now); got != tt.want {
				t.Errorf("Bust(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGetFeedSendsNoCacheHeaders(t *testing.T) {
	var cacheControl, pragma string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cacheControl = r.Header.Get("Cache-Control")
		pragma = r.Header.Get("Pragma")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	body, err := New(ClientConfig{}).GetFeed(context.Background(), srv.URL+"/cam.json")
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	if string(body) != "[]" {
		t.Errorf("unexpected body %q", body)
	}
	if !strings.Contains(cacheControl, "no-store") || pragma != "no-cache" {
		t.Errorf("expected no-cache headers, got Cache-Control=%q Pragma=%q", cacheControl, pragma)
	}
}

func TestGetFeedErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := New(ClientConfig{}).GetFeed(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestGetImage(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("t")
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("PNGDATA"))
	}))
	defer srv.Close()

	img, err := New(ClientConfig{}).GetImage(context.Background(), srv.URL+"/cam.png")
	if err != nil {
		t.Fatalf("GetImage failed: %v", err)
	}
	if string(img.Data) != "PNGDATA" || img.ContentType != "image/png" {
		t.Errorf("unexpected image %q %q", img.Data, img.ContentType)
	}
	if gotToken == "" {
		t.Error("expected cache-busting token on request")
	}
	if img.FetchedAt.IsZero() {
		t.Error("expected FetchedAt to be set")
	}
}

func TestGetImageEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := New(ClientConfig{}).GetImage(context.Background(), srv.URL)
	if !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
}

func TestBustOutputParses(t *testing.T) {
	out := Bust("https://cams.example/a b.jpg", time.Now())
	if _, err := url.Parse(out); err != nil {
		t.Errorf("busted url does not parse: %v", err)
	}
}
