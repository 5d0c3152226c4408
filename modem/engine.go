// Package modem implements the LTE session engine: it owns the serial
// byte stream and converts one proxy request at a time into a result by
// driving the EC800K through its TCP handshake.
//
// The channel has no framing. Status lines and upstream payload bytes
// arrive interleaved, so every step reads with a bounded timeout and
// decides completion by token search and channel quiescence rather than
// by length. The engine is strictly single-flight: Fetch must never run
// concurrently with itself, which is enforced structurally by the one
// Run task that owns the transport.
package modem

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"i4.energy/across/lteproxy/at"
	"i4.energy/across/lteproxy/proxy"
	"i4.energy/across/lteproxy/textbuf"
)

const (
	// upstreamPort is the only destination port the gateway connects to.
	upstreamPort = 80

	// userAgent identifies proxied requests to the upstream origin.
	userAgent = "LTEProxy/1.0"

	// captureSize bounds the scratch capture used while polling for a
	// handshake token. It holds a full read chunk plus the retained tail
	// of the previous capture, so one chunk never overflows it.
	captureSize = 1024
)

// Engine drives the modem session protocol. Create one with New, then
// hand it to Run on a dedicated task.
type Engine struct {
	transport Transport
	config    Config
	logger    *slog.Logger

	// running and closed are read and written from different goroutines:
	// a second Run call races the first, and Close races a Fetch in
	// flight on the engine task.
	running atomic.Bool
	closed  atomic.Bool
}

// New dials the transport and runs the modem bring-up sequence:
// liveness probe, SIM status, network registration, packet-domain
// attach, APN context, context activation and DNS configuration, each
// followed by a settle delay. Bring-up command failures are logged and
// tolerated; the engine proceeds regardless, matching the device's
// availability goal.
func New(ctx context.Context, config Config) (*Engine, error) {
	if config.dialer == nil {
		return nil, ErrNoDialer
	}
	transport, err := config.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	e := &Engine{
		transport: transport,
		config:    config,
		logger:    config.logger,
	}
	e.bringUp(ctx)
	return e, nil
}

// Run is the engine task loop: it receives requests from the
// coordinator, fetches them one at a time and delivers the results.
// It returns when the context is cancelled. Run must be called at most
// once at a time; the serial stream has exactly one owner.
func (e *Engine) Run(ctx context.Context, coord *proxy.Coordinator) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrEngineRunning
	}
	defer e.running.Store(false)

	for {
		req, err := coord.Next(ctx)
		if err != nil {
			return err
		}
		res := e.Fetch(ctx, req)
		if err := coord.Deliver(ctx, res); err != nil {
			return err
		}
	}
}

// Fetch converts one request into one result by driving the handshake:
// drain stale bytes, open the TCP connection, wait for the send prompt,
// send the payload, poll for the send acknowledgement, collect the
// response and close. Open and prompt failures are terminal for the
// transaction; a missing send acknowledgement is tolerated. Once the
// connection opened, the result is always successful and carries
// whatever the drain collected; judging payload usability is the
// extractor's job.
func (e *Engine) Fetch(ctx context.Context, req proxy.Request) proxy.Result {
	if e.closed.Load() || e.transport == nil {
		return proxy.Result{Payload: "modem not initialized"}
	}

	logger := e.logger.With("host", req.Host, "path", req.Path)
	logger.Info("fetching over LTE")

	e.drain(ctx)

	if !e.open(ctx, req.Host) {
		logger.Warn("TCP connection failed")
		return proxy.Result{Payload: "TCP connection failed"}
	}
	sleep(ctx, 2*e.config.pacing)

	payload := httpRequest(req)
	if !e.prompt(ctx, len(payload)) {
		logger.Warn("no send prompt received")
		e.closeConn(ctx)
		return proxy.Result{Payload: "No send prompt"}
	}

	if _, err := e.transport.Write([]byte(payload)); err != nil {
		logger.Error("write payload", "error", err)
		e.closeConn(ctx)
		return proxy.Result{Payload: "TCP connection failed"}
	}
	sleep(ctx, e.config.pacing)

	if !e.confirm(ctx) {
		// Tolerated on purpose: the EC800K occasionally swallows the
		// acknowledgement while response data is already arriving.
		logger.Warn("send not acknowledged, collecting response anyway")
	}

	transcript := e.collect(ctx)
	e.closeConn(ctx)

	logger.Info("transaction complete", "bytes", len(transcript))
	return proxy.Result{Payload: transcript, OK: true}
}

// Close shuts down the engine and releases the transport. After Close
// the engine cannot be reused.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrAlreadyClosed
	}
	if e.transport != nil {
		return e.transport.Close()
	}
	return nil
}

// bringUp issues the session-start command sequence. Settle delays are
// multiples of the configured settle unit.
func (e *Engine) bringUp(ctx context.Context) {
	// The modem needs a moment after power-on before it answers.
	sleep(ctx, 4*e.config.settleUnit)

	steps := []struct {
		cmd    string
		settle time.Duration
	}{
		{at.CmdAt, e.config.settleUnit},
		{at.CmdSimStatus, e.config.settleUnit},
		{at.CmdNetRegistration, e.config.settleUnit},
		{at.CmdAttach, 2 * e.config.settleUnit},
		{at.APNConfig(e.config.apn), e.config.settleUnit},
		{at.CmdContextActivate, 4 * e.config.settleUnit},
		{at.CmdContextQuery, e.config.settleUnit},
		{at.DNSConfig(e.config.dnsPrimary, e.config.dnsSecondary), e.config.settleUnit},
	}
	for _, step := range steps {
		if err := e.command(ctx, step.cmd, step.settle); err != nil {
			e.logger.Warn("bring-up command failed", "cmd", step.cmd, "error", err)
		}
	}
	e.logger.Info("modem bring-up complete")
}

// command writes one bring-up command, reads whatever reply arrives
// within the window and pauses for the settle delay.
func (e *Engine) command(ctx context.Context, cmd string, settle time.Duration) error {
	e.logger.Debug("TX", "cmd", cmd)
	if _, err := e.transport.Write([]byte(cmd + at.CRLF)); err != nil {
		return fmt.Errorf("write command %q: %w", cmd, err)
	}
	chunk, err := e.readChunk(4 * e.config.settleUnit)
	if err != nil {
		return fmt.Errorf("read response to %q: %w", cmd, err)
	}
	if chunk != "" {
		e.logger.Debug("RX", "resp", strings.TrimSpace(chunk))
	}
	sleep(ctx, settle)
	return nil
}

// drain discards stale bytes left on the channel by a previous
// transaction: it reads with a short timeout until one read comes back
// empty, bounded by a wall-clock budget.
func (e *Engine) drain(ctx context.Context) {
	sleep(ctx, e.config.pacing)
	deadline := time.Now().Add(e.config.drainBudget)
	for time.Now().Before(deadline) {
		chunk, err := e.readChunk(e.config.drainTimeout)
		if err != nil || chunk == "" {
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// open issues the open-TCP-connection command and polls for the
// acknowledgement token.
func (e *Engine) open(ctx context.Context, host string) bool {
	cmd := at.Open(host, upstreamPort)
	e.logger.Debug("TX", "cmd", cmd)
	if _, err := e.transport.Write([]byte(cmd + at.CRLF)); err != nil {
		e.logger.Error("write open command", "error", err)
		return false
	}
	return e.pollFor(ctx, at.OpenSuccess, e.config.openPolicy)
}

// prompt announces n payload bytes and waits for the send-ready prompt.
func (e *Engine) prompt(ctx context.Context, n int) bool {
	cmd := at.Send(n)
	e.logger.Debug("TX", "cmd", cmd)
	if _, err := e.transport.Write([]byte(cmd + at.CRLF)); err != nil {
		e.logger.Error("write send command", "error", err)
		return false
	}
	sleep(ctx, e.config.pacing)
	return e.pollFor(ctx, at.SendPrompt, e.config.promptPolicy)
}

// confirm polls for the send acknowledgement.
func (e *Engine) confirm(ctx context.Context) bool {
	return e.pollFor(ctx, at.SendOK, e.config.confirmPolicy)
}

// collect drains the upstream response into a bounded transcript.
// Collection ends on the first of: a terminal document marker in the
// transcript, quiescence (a run of empty reads with data already
// collected), or the wall-clock budget. Whatever was collected is
// returned regardless of the exit condition.
func (e *Engine) collect(ctx context.Context) string {
	transcript := textbuf.New(proxy.PayloadMax)
	quiet := 0
	deadline := time.Now().Add(e.config.responseBudget)

	for time.Now().Before(deadline) {
		chunk, err := e.readChunk(e.config.chunkTimeout)
		if err != nil {
			e.logger.Error("read response", "error", err)
			break
		}
		if chunk == "" {
			quiet++
			if isQuiescent(quiet, transcript.Len(), e.config.quietThreshold) {
				e.logger.Debug("response stream quiescent")
				break
			}
			if ctx.Err() != nil {
				break
			}
			continue
		}

		quiet = 0
		if truncated := transcript.WriteString(chunk); truncated {
			e.logger.Warn("transcript truncated at capacity")
		}
		if hasTerminalMarker(transcript.String()) {
			e.logger.Debug("terminal marker observed")
			break
		}
	}
	return transcript.String()
}

// closeConn tears the TCP connection down, best-effort.
func (e *Engine) closeConn(ctx context.Context) {
	if _, err := e.transport.Write([]byte(at.CmdClose + at.CRLF)); err != nil {
		e.logger.Debug("write close command", "error", err)
	}
	sleep(ctx, e.config.pacing)
}

// pollFor reads with the policy's per-attempt timeout until token
// appears in the accumulated capture. Attempts accumulate into one
// capture so a token split across chunks is still found. When the
// capture would overflow, it is reset down to a token-sized tail so
// sustained chatter cannot push the token past the capacity unseen.
func (e *Engine) pollFor(ctx context.Context, token string, policy PollPolicy) bool {
	capture := textbuf.New(captureSize)
	for i := 0; i < policy.MaxAttempts; i++ {
		if i > 0 && !sleep(ctx, policy.Delay) {
			return false
		}
		chunk, err := e.readChunk(policy.Timeout)
		if err != nil {
			e.logger.Error("read during poll", "token", token, "error", err)
			return false
		}
		if chunk != "" {
			e.logger.Debug("RX", "data", strings.TrimSpace(chunk))
			if capture.Len()+len(chunk) > capture.Cap() {
				tail := capture.String()
				if keep := len(token) - 1; keep > 0 && len(tail) > keep {
					tail = tail[len(tail)-keep:]
				}
				capture.Reset()
				capture.WriteString(tail)
			}
			capture.WriteString(chunk)
			if capture.Contains(token) {
				return true
			}
		}
		if ctx.Err() != nil {
			return false
		}
	}
	return false
}

// readChunk performs one timed read. A read that hits its timeout
// yields an empty chunk and a nil error.
func (e *Engine) readChunk(timeout time.Duration) (string, error) {
	if err := e.transport.SetReadTimeout(timeout); err != nil {
		return "", err
	}
	buf := make([]byte, 512)
	n, err := e.transport.Read(buf)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

// hasTerminalMarker reports whether the transcript contains a closing
// document marker.
func hasTerminalMarker(transcript string) bool {
	return strings.Contains(transcript, "</html>") || strings.Contains(transcript, "</HTML>")
}

// isQuiescent reports whether a run of consecutive empty reads, with
// data already collected, should end response collection.
func isQuiescent(quietReads, transcriptLen, threshold int) bool {
	return quietReads > threshold && transcriptLen > 0
}

// httpRequest renders the minimal proxied request sent to the origin.
func httpRequest(req proxy.Request) string {
	return fmt.Sprintf("GET %s HTTP/1.1\r\nHost: %s\r\nConnection: close\r\nUser-Agent: %s\r\n\r\n",
		req.Path, req.Host, userAgent)
}

// sleep pauses for d unless the context ends first. It reports whether
// the full pause elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
