package proxy_test

import (
	"strings"
	"testing"

	"i4.energy/across/lteproxy/proxy"
)

func TestExtract(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "Body after header separator, truncated at artifact",
			in:   "junk\r\n\r\n<!DOCTYPE html><html>hi</html>AT+OK\r\n",
			want: "<!DOCTYPE html><html>hi</html>",
		},
		{
			name: "Full HTTP response",
			in:   "HTTP/1.1 200 OK\r\nContent-Type: text/html\r\n\r\n<html>page</html>",
			want: "<html>page</html>",
		},
		{
			name: "No separator, doctype start",
			in:   "noise<!DOCTYPE html><html>x</html>",
			want: "<!DOCTYPE html><html>x</html>",
		},
		{
			name: "No separator, html start",
			in:   "+QIURC junk<html>x</html>",
			want: "<html>x</html>",
		},
		{
			name: "No separator, body start",
			in:   "junk<body>x</body>",
			want: "<body>x</body>",
		},
		{
			name: "No markers at all returns transcript verbatim",
			in:   "plain text payload",
			want: "plain text payload",
		},
		{
			name: "Send ack chatter truncates content",
			in:   "\r\n\r\n<html>partialSEND OK",
			want: "<html>partial",
		},
		{
			name: "Empty transcript",
			in:   "",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := proxy.Extract(tc.in); got != tc.want {
				t.Errorf("Extract(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestExtractIdempotent(t *testing.T) {
	transcripts := []string{
		"junk\r\n\r\n<!DOCTYPE html><html>hi</html>AT+OK\r\n",
		"HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\n<html>body</html>",
		"noise<html>x</html>OK\r\n",
	}
	for _, in := range transcripts {
		once := proxy.Extract(in)
		twice := proxy.Extract(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestExtractBoundsPayload(t *testing.T) {
	in := "\r\n\r\n" + strings.Repeat("a", proxy.PayloadMax+500)
	got := proxy.Extract(in)
	if len(got) != proxy.PayloadMax {
		t.Errorf("expected payload capped at %d bytes, got %d", proxy.PayloadMax, len(got))
	}
}
