package proxy

import "context"

// Coordinator serializes access to the single modem transaction slot.
//
// It is a pair of rendezvous channels between the client-facing tasks
// and the engine task. A Submit call hands its request to the engine and
// then waits for the matching result; a second concurrent Submit blocks
// on the request hand-off until the engine has finished the first full
// round trip, which is what guarantees at most one in-flight modem
// transaction. No fairness beyond the runtime's wakeup order is
// provided; starvation under sustained load is an accepted trade-off for
// a single physical modem.
type Coordinator struct {
	requests chan Request
	results  chan Result
}

// NewCoordinator creates a coordinator with empty rendezvous channels.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		requests: make(chan Request),
		results:  make(chan Result),
	}
}

// Submit hands req to the engine task and waits for its result.
//
// The context guards only the hand-off. Once the engine has accepted the
// request, Submit waits unconditionally: the engine bounds every step
// with a timeout and always produces exactly one result, and abandoning
// the wait would leave that result to cross-deliver to the next caller.
func (c *Coordinator) Submit(ctx context.Context, req Request) (Result, error) {
	select {
	case c.requests <- req:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	return <-c.results, nil
}

// Next blocks until a request is submitted. Called only by the engine
// task.
func (c *Coordinator) Next(ctx context.Context) (Request, error) {
	select {
	case req := <-c.requests:
		return req, nil
	case <-ctx.Done():
		return Request{}, ctx.Err()
	}
}

// Deliver hands the result of the current transaction back to the
// waiting Submit call. Called only by the engine task, and always before
// it accepts the next request.
func (c *Coordinator) Deliver(ctx context.Context, res Result) error {
	select {
	case c.results <- res:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
