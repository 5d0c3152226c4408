package proxy

import "fmt"

// FormatSuccess wraps extracted content in a minimal 200 response.
// The client connection is always closed after one exchange.
func FormatSuccess(content string) string {
	return "HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"Connection: close\r\n" +
		"\r\n" +
		content
}

// FormatError wraps a diagnostic message in a fixed HTML error page.
// Failures are always reported with status 200; the error lives in the
// body so that any browser on the access point can render it.
func FormatError(message string) string {
	return fmt.Sprintf("HTTP/1.1 200 OK\r\n"+
		"Content-Type: text/html\r\n"+
		"Connection: close\r\n"+
		"\r\n"+
		"<!DOCTYPE html>"+
		"<html>"+
		"<head><title>LTE Proxy - Error</title>"+
		"<style>body{font-family:Arial,sans-serif;margin:40px;}"+
		".error{color:red;background:#ffe6e6;padding:15px;border-radius:5px;}</style>"+
		"</head>"+
		"<body>"+
		"<h1>LTE Proxy</h1>"+
		`<div class="error"><h2>Error</h2><p>%s</p></div>`+
		`<p>Try: <a href="/">the default origin</a></p>`+
		"<p>Or: /proxy?url=http://example.com</p>"+
		"<p>Baud rate: <strong>921600</strong></p>"+
		"</body></html>",
		message)
}
