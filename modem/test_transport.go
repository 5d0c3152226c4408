package modem

import (
	"context"
	"io"
	"sync"
	"time"
)

// ScriptTransport is a scripted Transport for engine tests. Each queued
// chunk satisfies exactly one Read call; an empty chunk simulates a read
// that hit its timeout, and an exhausted script makes every further read
// time out immediately. Writes are recorded for assertion.
type ScriptTransport struct {
	mu          sync.Mutex
	script      []string
	writes      []string
	lastTimeout time.Duration
	closed      bool
}

// NewScriptTransport creates a transport preloaded with the given read
// script.
func NewScriptTransport(script ...string) *ScriptTransport {
	return &ScriptTransport{script: script}
}

// Feed appends chunks to the read script. Useful for queuing a
// transaction script after engine construction has consumed its
// bring-up reads.
func (t *ScriptTransport) Feed(chunks ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.script = append(t.script, chunks...)
}

func (t *ScriptTransport) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.EOF
	}
	if len(t.script) == 0 {
		return 0, nil // timed out
	}
	chunk := t.script[0]
	t.script = t.script[1:]
	return copy(p, chunk), nil
}

func (t *ScriptTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes = append(t.writes, string(p))
	return len(p), nil
}

func (t *ScriptTransport) SetReadTimeout(d time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastTimeout = d
	return nil
}

func (t *ScriptTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Writes returns a copy of everything written so far.
func (t *ScriptTransport) Writes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.writes))
	copy(out, t.writes)
	return out
}

// ResetWrites clears the write record, typically right after engine
// construction to drop the bring-up commands.
func (t *ScriptTransport) ResetWrites() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes = nil
}

// ScriptDialer hands out a prepared ScriptTransport.
type ScriptDialer struct {
	Transport *ScriptTransport
}

func (d ScriptDialer) Dial(ctx context.Context) (Transport, error) {
	return d.Transport, nil
}
