package modem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=modem

// Transport is an established, bidirectional byte stream to an LTE modem.
//
// A Transport is assumed to be already connected and ready for use. The
// session engine drives it half-duplex: it writes a command, then reads
// with a bounded timeout. A read that hits its timeout returns n == 0
// with a nil error, matching serial port semantics. Typical
// implementations are serial ports and scripted fakes used for testing.
type Transport interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds every subsequent Read call.
	SetReadTimeout(t time.Duration) error
}

// Dialer opens a Transport to an LTE modem.
//
// Dialer abstracts how the modem connection is created (serial port or
// test double) and is used during engine construction only.
type Dialer interface {
	// Dial creates and returns a connected Transport. It should respect
	// cancellation and deadlines provided by the context.
	Dial(ctx context.Context) (Transport, error)
}

// DefaultBaudRate is the rate the EC800K is provisioned for.
const DefaultBaudRate = 921600

// SerialDialer opens an LTE modem over a serial port.
type SerialDialer struct {
	// PortName is the device path, e.g. "/dev/ttyUSB0".
	PortName string
	// Mode configures the port. Nil selects 8N1 at DefaultBaudRate.
	Mode *serial.Mode
}

// Dial opens the configured serial port.
func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("modem: context is nil")
	}
	if d.PortName == "" {
		return nil, errors.New("modem: serial port name is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		mode = &serial.Mode{BaudRate: DefaultBaudRate}
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", d.PortName, err)
	}
	return port, nil
}
