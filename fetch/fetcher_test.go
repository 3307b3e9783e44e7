package fetch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "valid https URL", url: "https://schema.org/version/latest/schemaorg-current-https.jsonld"},
		{name: "http URL rejected", url: "http://example.com", wantErr: true},
		{name: "localhost rejected", url: "https://localhost:8080", wantErr: true},
		{name: "private IP rejected", url: "https://192.168.1.1/path", wantErr: true},
		{name: "loopback v6 rejected", url: "https://[::1]/", wantErr: true},
		{name: "internal domain rejected", url: "https://db.internal/x", wantErr: true},
		{name: "cgnat rejected", url: "https://100.64.1.1/", wantErr: true},
		{name: "missing host rejected", url: "https:///path", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrBlockedURL) {
				t.Errorf("error %v should wrap ErrBlockedURL", err)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip      string
		private bool
	}{
		{"10.0.0.1", true},
		{"172.16.5.4", true},
		{"127.0.0.1", true},
		{"169.254.1.1", true},
		{"::ffff:192.168.0.1", true},
		{"fd00::1", true},
		{"0.0.0.0", true},
		{"8.8.8.8", false},
		{"2606:4700::1111", false},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if got := IsPrivateIP(net.ParseIP(tt.ip)); got != tt.private {
				t.Errorf("IsPrivateIP(%s) = %v, want %v", tt.ip, got, tt.private)
			}
		})
	}
}

func TestFetcher_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			if r.Header.Get("Accept") != "application/ld+json" {
				t.Errorf("Accept = %q", r.Header.Get("Accept"))
			}
			w.Header().Set("Content-Type", "application/ld+json")
			w.Header().Set("ETag", `"v1"`)
			_, _ = w.Write([]byte(`{"ok":true}`))
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(Options{AllowPrivate: true, MaxContentSize: 32})
	ctx := context.Background()

	res, err := f.Get(ctx, srv.URL+"/ok", "application/ld+json")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(res.Body) != `{"ok":true}` || res.ETag != `"v1"` {
		t.Errorf("unexpected result: %+v", res)
	}

	if _, err := f.Get(ctx, srv.URL+"/big", ""); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
	if _, err := f.Get(ctx, srv.URL+"/missing", ""); err == nil {
		t.Error("expected error for 404")
	}
}

func TestFetcher_BlocksPrivateByDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	f := NewFetcher(Options{})
	if _, err := f.Get(context.Background(), srv.URL, ""); !errors.Is(err, ErrBlockedURL) {
		t.Errorf("expected ErrBlockedURL, got %v", err)
	}
}
