package printer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// NetTransport delivers receipt bytes to a network printer over raw TCP,
// the usual port-9100 path for LAN thermal printers. It honors the same
// single-session, serialized-write contract as SessionTransport, minus
// discovery: the address is fixed configuration.
type NetTransport struct {
	addr   string
	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	state State
	conn  net.Conn
}

// NewNetTransport creates a TCP transport for the given host:port address.
func NewNetTransport(addr string, cfg Config, logger *slog.Logger) *NetTransport {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultConfig().ChunkSize
	}
	return &NetTransport{
		addr:   addr,
		cfg:    cfg,
		logger: logger,
		state:  StateDisconnected,
	}
}

func (t *NetTransport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *NetTransport) DeviceName() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return ""
	}
	return t.addr
}

// Connect dials the printer. There is no discovery or service resolution on
// this path, so the state machine jumps from connecting straight to ready.
func (t *NetTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.state != StateDisconnected && t.state != StateFailed {
		t.mu.Unlock()
		return ErrAlreadyConnected
	}
	t.state = StateConnecting
	t.mu.Unlock()

	dialer := net.Dialer{Timeout: t.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		t.mu.Lock()
		t.state = StateFailed
		t.mu.Unlock()
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return fmt.Errorf("%w: %s", ErrConnectionTimeout, t.addr)
		}
		return fmt.Errorf("%w: %s: %v", ErrConnectionRejected, t.addr, err)
	}

	t.mu.Lock()
	t.conn = conn
	t.state = StateReady
	t.mu.Unlock()

	t.logger.Info("printer connected", slog.String("address", t.addr))
	return nil
}

// Write streams data in paced chunks, mirroring the wireless path so both
// backends behave identically from the orchestrator's point of view.
func (t *NetTransport) Write(ctx context.Context, data []byte) error {
	t.mu.Lock()
	switch t.state {
	case StateWriting:
		t.mu.Unlock()
		return ErrPrinterBusy
	case StateReady:
	default:
		t.mu.Unlock()
		return ErrNotConnected
	}
	t.state = StateWriting
	conn := t.conn
	t.mu.Unlock()

	size := t.cfg.ChunkSize
	for off := 0; off < len(data); off += size {
		end := off + size
		if end > len(data) {
			end = len(data)
		}

		if err := conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout)); err != nil {
			t.fail()
			return fmt.Errorf("%w: %v", ErrTransportWrite, err)
		}
		if _, err := conn.Write(data[off:end]); err != nil {
			t.fail()
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return fmt.Errorf("%w: after %s", ErrWriteTimeout, t.cfg.WriteTimeout)
			}
			return fmt.Errorf("%w: %v", ErrTransportWrite, err)
		}

		if end < len(data) {
			time.Sleep(t.cfg.InterChunkDelay)
		}
	}

	t.mu.Lock()
	t.state = StateReady
	t.mu.Unlock()
	return nil
}

// Disconnect closes the socket and clears state; safe to call repeatedly.
func (t *NetTransport) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		if err := t.conn.Close(); err != nil {
			t.logger.Warn("printer socket close failed", slog.String("error", err.Error()))
		}
	}
	t.conn = nil
	t.state = StateDisconnected
	return nil
}

func (t *NetTransport) fail() {
	t.mu.Lock()
	if t.conn != nil {
		_ = t.conn.Close()
	}
	t.conn = nil
	t.state = StateFailed
	t.mu.Unlock()
}
