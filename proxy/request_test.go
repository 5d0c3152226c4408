package proxy_test

import (
	"errors"
	"strings"
	"testing"

	"i4.energy/across/lteproxy/proxy"
)

var parser = proxy.Parser{
	DefaultHost: "www.gzxxzlk.com",
	DefaultPath: "/",
}

func TestParse(t *testing.T) {
	t.Run("Proxy form with host and path", func(t *testing.T) {
		req, err := parser.Parse("GET /proxy?url=http://example.com/page HTTP/1.1\r\nHost: 192.168.4.1\r\n\r\n")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Host != "example.com" || req.Path != "/page" {
			t.Errorf("got (%q, %q), want (example.com, /page)", req.Host, req.Path)
		}
	})

	t.Run("Proxy form with host only", func(t *testing.T) {
		req, err := parser.Parse("GET /proxy?url=http://onlyhost HTTP/1.1\r\n\r\n")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Host != "onlyhost" || req.Path != "/" {
			t.Errorf("got (%q, %q), want (onlyhost, /)", req.Host, req.Path)
		}
	})

	t.Run("Value terminated by ampersand", func(t *testing.T) {
		req, err := parser.Parse("GET /proxy?url=http://example.com/a&cache=no HTTP/1.1\r\n\r\n")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Host != "example.com" || req.Path != "/a" {
			t.Errorf("got (%q, %q), want (example.com, /a)", req.Host, req.Path)
		}
	})

	t.Run("Deep path survives intact", func(t *testing.T) {
		req, err := parser.Parse("GET /proxy?url=http://example.com/a/b/c?q=1 HTTP/1.1\r\n\r\n")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Host != "example.com" || req.Path != "/a/b/c?q=1" {
			t.Errorf("got (%q, %q)", req.Host, req.Path)
		}
	})

	t.Run("Missing http marker is rejected", func(t *testing.T) {
		_, err := parser.Parse("GET /proxy?url=https://example.com HTTP/1.1\r\n\r\n")
		if !errors.Is(err, proxy.ErrBadProxyURL) {
			t.Errorf("expected ErrBadProxyURL, got: %v", err)
		}
	})

	t.Run("Unterminated value is rejected", func(t *testing.T) {
		_, err := parser.Parse("GET /proxy?url=http://example.com")
		if !errors.Is(err, proxy.ErrBadProxyURL) {
			t.Errorf("expected ErrBadProxyURL, got: %v", err)
		}
	})

	t.Run("Empty value is rejected", func(t *testing.T) {
		_, err := parser.Parse("GET /proxy?url=http:// HTTP/1.1\r\n\r\n")
		if !errors.Is(err, proxy.ErrBadProxyURL) {
			t.Errorf("expected ErrBadProxyURL, got: %v", err)
		}
	})

	t.Run("Hostless value is rejected", func(t *testing.T) {
		_, err := parser.Parse("GET /proxy?url=http:///page HTTP/1.1\r\n\r\n")
		if !errors.Is(err, proxy.ErrBadProxyURL) {
			t.Errorf("expected ErrBadProxyURL, got: %v", err)
		}
	})

	t.Run("Non-proxy request maps to the default origin", func(t *testing.T) {
		req, err := parser.Parse("GET / HTTP/1.1\r\nHost: 192.168.4.1\r\n\r\n")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Host != parser.DefaultHost || req.Path != parser.DefaultPath {
			t.Errorf("got (%q, %q), want default origin", req.Host, req.Path)
		}
	})

	t.Run("Accepted targets are non-empty", func(t *testing.T) {
		lines := []string{
			"GET /proxy?url=http://a.example/x HTTP/1.1\r\n\r\n",
			"GET /proxy?url=http://b HTTP/1.1\r\n\r\n",
			"GET /favicon.ico HTTP/1.1\r\n\r\n",
		}
		for _, line := range lines {
			req, err := parser.Parse(line)
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", line, err)
			}
			if req.Host == "" || req.Path == "" {
				t.Errorf("empty field for %q: (%q, %q)", line, req.Host, req.Path)
			}
		}
	})

	t.Run("Oversized host and path are truncated", func(t *testing.T) {
		host := strings.Repeat("h", 100)
		path := "/" + strings.Repeat("p", 200)
		req, err := parser.Parse("GET /proxy?url=http://" + host + path + " HTTP/1.1\r\n\r\n")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(req.Host) != proxy.HostMax {
			t.Errorf("host length %d, want %d", len(req.Host), proxy.HostMax)
		}
		if len(req.Path) != proxy.PathMax {
			t.Errorf("path length %d, want %d", len(req.Path), proxy.PathMax)
		}
	})
}
