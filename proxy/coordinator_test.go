package proxy_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"i4.energy/across/lteproxy/proxy"
)

// serveEcho runs a fake engine task that answers every request with a
// payload derived from it, with at most one transaction in flight.
func serveEcho(ctx context.Context, t *testing.T, coord *proxy.Coordinator, invocations *atomic.Int64, inFlight *atomic.Int64) {
	t.Helper()
	for {
		req, err := coord.Next(ctx)
		if err != nil {
			return
		}
		if n := inFlight.Add(1); n != 1 {
			t.Errorf("expected exactly one in-flight transaction, got %d", n)
		}
		invocations.Add(1)
		time.Sleep(time.Millisecond) // hold the slot briefly
		res := proxy.Result{Payload: "payload:" + req.Host + req.Path, OK: true}
		inFlight.Add(-1)
		if err := coord.Deliver(ctx, res); err != nil {
			return
		}
	}
}

func TestCoordinatorSingleFlight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coord := proxy.NewCoordinator()
	var invocations, inFlight atomic.Int64
	go serveEcho(ctx, t, coord, &invocations, &inFlight)

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := proxy.Request{Host: fmt.Sprintf("host-%d", i), Path: "/p"}
			res, err := coord.Submit(ctx, req)
			if err != nil {
				t.Errorf("submit %d: %v", i, err)
				return
			}
			want := "payload:" + req.Host + req.Path
			if res.Payload != want {
				t.Errorf("cross-delivered result: got %q, want %q", res.Payload, want)
			}
		}(i)
	}
	wg.Wait()

	if got := invocations.Load(); got != n {
		t.Errorf("expected %d engine invocations, got %d", n, got)
	}
}

func TestCoordinatorSubmitCancelledBeforeHandoff(t *testing.T) {
	coord := proxy.NewCoordinator()

	// No engine task is running, so the hand-off can never complete.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := coord.Submit(ctx, proxy.Request{Host: "example.com", Path: "/"})
	if err == nil {
		t.Error("expected error when no engine consumes the request")
	}
}

func TestCoordinatorNextCancelled(t *testing.T) {
	coord := proxy.NewCoordinator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := coord.Next(ctx); err != context.Canceled {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
	if err := coord.Deliver(ctx, proxy.Result{}); err != context.Canceled {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
}

func TestCoordinatorOrdering(t *testing.T) {
	// The second submit's engine invocation must not begin before the
	// first completes: results always match their own request even when
	// the submits are strictly sequential.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coord := proxy.NewCoordinator()
	var invocations, inFlight atomic.Int64
	go serveEcho(ctx, t, coord, &invocations, &inFlight)

	for i := 0; i < 4; i++ {
		host := fmt.Sprintf("seq-%d", i)
		res, err := coord.Submit(ctx, proxy.Request{Host: host, Path: "/"})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if want := "payload:" + host + "/"; res.Payload != want {
			t.Fatalf("got %q, want %q", res.Payload, want)
		}
	}
}
