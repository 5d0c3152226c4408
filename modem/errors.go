package modem

import "errors"

var (
	// ErrNoDialer is returned when an Engine is constructed without a
	// Dialer.
	//
	// This indicates a configuration error. A Dialer is required in
	// order to establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on an
	// Engine whose transport was never established.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyClosed is returned when Close is called on an Engine
	// that has already been closed.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrEngineRunning is returned when Run is called while a previous
	// Run invocation is still active. Only one task may own the serial
	// stream.
	ErrEngineRunning = errors.New("engine loop already running")
)
