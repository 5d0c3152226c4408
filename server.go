package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"
	"unicode/utf8"

	"i4.energy/across/lteproxy/proxy"
)

const (
	// connDeadline bounds one client connection end to end; the modem
	// response budget alone can consume most of it.
	connDeadline = 45 * time.Second

	// requestMax is the most of a client request the front end reads.
	// Only the request line matters, so anything past the header break
	// is ignored.
	requestMax = 1024
)

// Server is the thin front end: it accepts raw TCP connections, reads
// one request per connection, hands it to the session engine through
// the coordinator and writes back a well-formed HTTP response. It holds
// no modem state of its own.
type Server struct {
	Logger      *slog.Logger
	Parser      proxy.Parser
	Coordinator *proxy.Coordinator
}

// Serve accepts connections until the listener is closed or the context
// ends. Each connection is handled on its own goroutine; serialization
// against the single modem happens in the coordinator, not here.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.Logger.Warn("accept failed", "error", err)
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	logger := s.Logger.With("client", conn.RemoteAddr().String())

	if err := conn.SetDeadline(time.Now().Add(connDeadline)); err != nil {
		logger.Warn("set deadline failed", "error", err)
		return
	}

	raw, err := readRequest(conn)
	if err != nil {
		logger.Debug("read request failed", "error", err)
		return
	}

	response := s.respond(ctx, logger, raw)
	if response == "" {
		return
	}
	if _, err := conn.Write([]byte(response)); err != nil {
		logger.Debug("write response failed", "error", err)
	}
}

// respond turns one raw client request into the HTTP response text, or
// "" when the connection should be dropped without an answer.
func (s *Server) respond(ctx context.Context, logger *slog.Logger, raw []byte) string {
	if !utf8.Valid(raw) {
		logger.Warn("request is not valid UTF-8")
		return proxy.FormatError("Invalid request encoding")
	}

	req, err := s.Parser.Parse(string(raw))
	if err != nil {
		logger.Warn("bad proxy URL", "error", err)
		return proxy.FormatError("Invalid URL format. Use /proxy?url=http://example.com")
	}

	logger.Info("proxying request", "host", req.Host, "path", req.Path)
	res, err := s.Coordinator.Submit(ctx, req)
	if err != nil {
		// Shutdown beat the hand-off; the client gets no answer.
		logger.Warn("request not serviced", "error", err)
		return ""
	}
	if !res.OK {
		return proxy.FormatError(res.Payload)
	}

	content := proxy.Extract(res.Payload)
	if content == "" {
		return proxy.FormatError("No HTML content found in response")
	}
	return proxy.FormatSuccess(content)
}

// readRequest reads until the header break or the size cap, whichever
// comes first.
func readRequest(conn net.Conn) ([]byte, error) {
	buf := make([]byte, requestMax)
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if strings.Contains(string(buf[:total]), "\r\n\r\n") {
			break
		}
		if err != nil {
			if total > 0 {
				break
			}
			return nil, err
		}
	}
	return buf[:total], nil
}
