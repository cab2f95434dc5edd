package printer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Transport delivers encoded receipt bytes to a printer. Implementations
// hold at most one open connection and serialize writes; a write that
// arrives while another is in flight fails with ErrPrinterBusy.
type Transport interface {
	Connect(ctx context.Context) error
	Write(ctx context.Context, data []byte) error
	Disconnect() error
	State() State
	DeviceName() string
}

// Config bounds the transport's timing behavior.
type Config struct {
	// ChunkSize is the maximum bytes per write. Wireless links for this
	// class of printer accept very small frames.
	ChunkSize int

	// InterChunkDelay paces chunks so the printer buffer is not overrun.
	InterChunkDelay time.Duration

	// ConnectTimeout bounds discovery plus connect plus service resolution.
	ConnectTimeout time.Duration

	// WriteTimeout bounds a single chunk write.
	WriteTimeout time.Duration

	Filters Filters
}

// DefaultConfig returns the timing defaults observed to work with supported
// printers.
func DefaultConfig() Config {
	return Config{
		ChunkSize:       20,
		InterChunkDelay: 20 * time.Millisecond,
		ConnectTimeout:  15 * time.Second,
		WriteTimeout:    2 * time.Second,
		Filters:         DefaultFilters(),
	}
}

// SessionTransport drives a discovered wireless link through the
// Disconnected/Discovering/Connecting/ServiceResolving/Ready/Writing
// lifecycle. All methods are safe for concurrent use; state transitions
// happen under the mutex while link I/O runs outside it.
type SessionTransport struct {
	scanner Scanner
	cfg     Config
	logger  *slog.Logger

	mu    sync.Mutex
	state State
	conn  *Connection
}

// NewSessionTransport creates a transport in the disconnected state.
func NewSessionTransport(scanner Scanner, cfg Config, logger *slog.Logger) *SessionTransport {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultConfig().ChunkSize
	}
	return &SessionTransport{
		scanner: scanner,
		cfg:     cfg,
		logger:  logger,
		state:   StateDisconnected,
	}
}

// State reports the current lifecycle state.
func (t *SessionTransport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// DeviceName reports the connected device's name, or empty when disconnected.
func (t *SessionTransport) DeviceName() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return ""
	}
	return t.conn.device.Name()
}

// Connect discovers a compatible device, opens its session, and resolves a
// writable characteristic. Any failure releases whatever was acquired, so no
// handle ever leaks out of a failed attempt.
func (t *SessionTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.state != StateDisconnected && t.state != StateFailed {
		t.mu.Unlock()
		return ErrAlreadyConnected
	}
	t.state = StateDiscovering
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, t.cfg.ConnectTimeout)
	defer cancel()

	devices, err := t.scanner.Scan(ctx, t.cfg.Filters)
	if err != nil {
		t.fail(nil)
		return connectErr("scan", err)
	}
	if len(devices) == 0 {
		t.fail(nil)
		return ErrNoCompatibleDevice
	}
	device := devices[0]

	t.setState(StateConnecting)
	session, err := device.Connect(ctx)
	if err != nil {
		t.fail(nil)
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrConnectionTimeout, device.Name())
		}
		return fmt.Errorf("%w: %s: %v", ErrConnectionRejected, device.Name(), err)
	}

	t.setState(StateServiceResolving)
	char, err := resolveWritable(ctx, session, t.cfg.Filters.ServiceUUIDs)
	if err != nil {
		t.fail(session)
		return err
	}

	t.mu.Lock()
	t.conn = &Connection{
		device:         device,
		session:        session,
		characteristic: char,
		maxChunkBytes:  t.cfg.ChunkSize,
	}
	t.state = StateReady
	t.mu.Unlock()

	t.logger.Info("printer connected",
		slog.String("device", device.Name()),
		slog.String("address", device.Address()),
		slog.String("characteristic", char.UUID()),
	)
	return nil
}

// resolveWritable walks the known service UUIDs in priority order and returns
// the first writable characteristic found.
func resolveWritable(ctx context.Context, session Session, uuids []string) (Characteristic, error) {
	services, err := session.Services(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving services: %v", ErrNoWritableCharacteristic, err)
	}

	byUUID := make(map[string]Service, len(services))
	for _, svc := range services {
		byUUID[strings.ToLower(svc.UUID())] = svc
	}

	for _, uuid := range uuids {
		svc, ok := byUUID[strings.ToLower(uuid)]
		if !ok {
			continue
		}
		chars, err := svc.Characteristics(ctx)
		if err != nil {
			continue
		}
		for _, c := range chars {
			if c.Writable() {
				return c, nil
			}
		}
	}
	return nil, ErrNoWritableCharacteristic
}

// Write streams data to the connected printer in chunks no larger than the
// configured size, pacing chunks with the inter-chunk delay. Partial writes
// are not retried here; a failed chunk tears the connection down and the
// caller decides whether to redo the whole job.
func (t *SessionTransport) Write(ctx context.Context, data []byte) error {
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

	size := conn.maxChunkBytes
	for off := 0; off < len(data); off += size {
		end := off + size
		if end > len(data) {
			end = len(data)
		}

		if err := t.writeChunk(ctx, conn, data[off:end]); err != nil {
			t.fail(conn.session)
			return err
		}

		if end < len(data) {
			time.Sleep(t.cfg.InterChunkDelay)
		}
	}

	t.setState(StateReady)
	return nil
}

func (t *SessionTransport) writeChunk(ctx context.Context, conn *Connection, chunk []byte) error {
	wctx, cancel := context.WithTimeout(ctx, t.cfg.WriteTimeout)
	defer cancel()

	if err := conn.characteristic.Write(wctx, chunk); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: after %s", ErrWriteTimeout, t.cfg.WriteTimeout)
		}
		return fmt.Errorf("%w: %v", ErrTransportWrite, err)
	}
	return nil
}

// Disconnect closes the session and clears local state. It is idempotent and
// clears state even when the remote close errors.
func (t *SessionTransport) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		if err := t.conn.session.Close(); err != nil {
			t.logger.Warn("printer session close failed", slog.String("error", err.Error()))
		}
	}
	t.conn = nil
	t.state = StateDisconnected
	return nil
}

func (t *SessionTransport) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// fail releases the session, clears the connection, and parks the transport
// in the failed state so the next Connect can start clean.
func (t *SessionTransport) fail(session Session) {
	if session != nil {
		_ = session.Close()
	}
	t.mu.Lock()
	t.conn = nil
	t.state = StateFailed
	t.mu.Unlock()
}

func connectErr(stage string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: during %s", ErrConnectionTimeout, stage)
	}
	return fmt.Errorf("%w: %s: %v", ErrNoCompatibleDevice, stage, err)
}
