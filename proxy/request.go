// Package proxy holds the request/response model of the gateway: the
// parser that turns an inbound HTTP request into a proxy target, the
// single-flight coordinator between the front end and the modem engine,
// the transcript extractor and the response formatters.
package proxy

import (
	"errors"
	"strings"

	"i4.energy/across/lteproxy/textbuf"
)

const (
	// HostMax and PathMax bound the proxy target fields. Longer values
	// are silently truncated, matching the bounded-buffer semantics used
	// throughout the gateway.
	HostMax = 64
	PathMax = 128

	// PayloadMax bounds the transcript carried by a Result.
	PayloadMax = 8192

	proxyPrefix = "GET /proxy?url="
	urlMarker   = "url=http://"
)

// ErrBadProxyURL is returned when a request uses the /proxy form but the
// url parameter is missing, not plain http, or unterminated.
var ErrBadProxyURL = errors.New("proxy URL parameter missing or unparsable")

// Request identifies one upstream origin to fetch over the modem.
// It is immutable once constructed and consumed by exactly one engine
// invocation.
type Request struct {
	Host string
	Path string
}

// Result is the outcome of one modem transaction. When OK is false,
// Payload holds a human-readable diagnostic rather than upstream content.
type Result struct {
	Payload string
	OK      bool
}

// Parser extracts the proxy target from a raw HTTP request. Requests
// that do not use the /proxy form fall through to the default origin.
type Parser struct {
	DefaultHost string
	DefaultPath string
}

// Parse inspects the raw request text and produces a Request.
//
// A request starting with "GET /proxy?url=" must carry an "url=http://"
// value terminated by whitespace or '&'; the value splits at its first
// '/' into host and path (path defaults to "/"). Any other request maps
// to the parser's default origin. No percent-decoding is performed and
// no other query parameters are recognized.
func (p Parser) Parse(request string) (Request, error) {
	if !strings.HasPrefix(request, proxyPrefix) {
		return newRequest(p.DefaultHost, p.DefaultPath), nil
	}

	start := strings.Index(request, urlMarker)
	if start < 0 {
		return Request{}, ErrBadProxyURL
	}

	rest := request[start+len(urlMarker):]
	end := strings.IndexFunc(rest, func(c rune) bool {
		return c == '&' || c == ' ' || c == '\t' || c == '\r' || c == '\n'
	})
	if end < 0 {
		return Request{}, ErrBadProxyURL
	}

	target := rest[:end]
	if target == "" {
		return Request{}, ErrBadProxyURL
	}

	if slash := strings.IndexByte(target, '/'); slash >= 0 {
		if slash == 0 {
			return Request{}, ErrBadProxyURL
		}
		return newRequest(target[:slash], target[slash:]), nil
	}
	return newRequest(target, "/"), nil
}

// newRequest applies the field bounds. Oversized values are truncated,
// never rejected.
func newRequest(host, path string) Request {
	h := textbuf.New(HostMax)
	h.WriteString(host)
	p := textbuf.New(PathMax)
	p.WriteString(path)
	return Request{Host: h.String(), Path: p.String()}
}
