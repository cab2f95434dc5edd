package printer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Fakes
// ============================================================================

type fakeScanner struct {
	devices []Device
	err     error
}

func (s *fakeScanner) Scan(ctx context.Context, filters Filters) ([]Device, error) {
	return s.devices, s.err
}

type fakeDevice struct {
	name       string
	session    *fakeSession
	connectErr error
}

func (d *fakeDevice) Name() string    { return d.name }
func (d *fakeDevice) Address() string { return "AA:BB:CC:DD:EE:FF" }

func (d *fakeDevice) Connect(ctx context.Context) (Session, error) {
	if d.connectErr != nil {
		return nil, d.connectErr
	}
	return d.session, nil
}

type fakeSession struct {
	services []Service
	closed   int
}

func (s *fakeSession) Services(ctx context.Context) ([]Service, error) { return s.services, nil }
func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

type fakeService struct {
	uuid  string
	chars []Characteristic
}

func (s *fakeService) UUID() string { return s.uuid }
func (s *fakeService) Characteristics(ctx context.Context) ([]Characteristic, error) {
	return s.chars, nil
}

type fakeChar struct {
	uuid       string
	writable   bool
	writes     [][]byte
	writeTimes []time.Time
	failAt     int // 1-based chunk index to fail on, 0 disables
	failErr    error
	block      chan struct{} // when set, writes wait until closed
}

func (c *fakeChar) UUID() string   { return c.uuid }
func (c *fakeChar) Writable() bool { return c.writable }

func (c *fakeChar) Write(ctx context.Context, chunk []byte) error {
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if c.failAt > 0 && len(c.writes)+1 == c.failAt {
		return c.failErr
	}
	buf := make([]byte, len(chunk))
	copy(buf, chunk)
	c.writes = append(c.writes, buf)
	c.writeTimes = append(c.writeTimes, time.Now())
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readyTransport(t *testing.T, char *fakeChar, cfg Config) (*SessionTransport, *fakeSession) {
	t.Helper()
	session := &fakeSession{services: []Service{
		&fakeService{uuid: KnownServiceUUIDs[0], chars: []Characteristic{char}},
	}}
	scanner := &fakeScanner{devices: []Device{&fakeDevice{name: "RPP02N", session: session}}}

	tr := NewSessionTransport(scanner, cfg, testLogger())
	require.NoError(t, tr.Connect(context.Background()))
	require.Equal(t, StateReady, tr.State())
	return tr, session
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.InterChunkDelay = 5 * time.Millisecond
	cfg.ConnectTimeout = time.Second
	cfg.WriteTimeout = 200 * time.Millisecond
	return cfg
}

// ============================================================================
// Connect Tests
// ============================================================================

func TestConnect_HappyPath(t *testing.T) {
	char := &fakeChar{uuid: "c1", writable: true}
	tr, _ := readyTransport(t, char, testConfig())

	assert.Equal(t, "RPP02N", tr.DeviceName())
}

func TestConnect_NoDevicesFound(t *testing.T) {
	tr := NewSessionTransport(&fakeScanner{}, testConfig(), testLogger())

	err := tr.Connect(context.Background())
	assert.ErrorIs(t, err, ErrNoCompatibleDevice)
	assert.Equal(t, StateFailed, tr.State())
	assert.Empty(t, tr.DeviceName())
}

func TestConnect_DeviceRejects(t *testing.T) {
	scanner := &fakeScanner{devices: []Device{
		&fakeDevice{name: "RPP02N", connectErr: errors.New("refused")},
	}}
	tr := NewSessionTransport(scanner, testConfig(), testLogger())

	err := tr.Connect(context.Background())
	assert.ErrorIs(t, err, ErrConnectionRejected)
}

func TestConnect_TimeoutDuringConnect(t *testing.T) {
	scanner := &fakeScanner{devices: []Device{
		&fakeDevice{name: "RPP02N", connectErr: context.DeadlineExceeded},
	}}
	tr := NewSessionTransport(scanner, testConfig(), testLogger())

	err := tr.Connect(context.Background())
	assert.ErrorIs(t, err, ErrConnectionTimeout)
}

func TestConnect_NoWritableCharacteristicReleasesSession(t *testing.T) {
	session := &fakeSession{services: []Service{
		&fakeService{uuid: KnownServiceUUIDs[0], chars: []Characteristic{
			&fakeChar{uuid: "c1", writable: false},
		}},
	}}
	scanner := &fakeScanner{devices: []Device{&fakeDevice{name: "RPP02N", session: session}}}
	tr := NewSessionTransport(scanner, testConfig(), testLogger())

	err := tr.Connect(context.Background())
	assert.ErrorIs(t, err, ErrNoWritableCharacteristic)
	assert.Equal(t, 1, session.closed, "failed connect must release the session")
}

func TestConnect_ServiceUUIDPriorityOrder(t *testing.T) {
	preferred := &fakeChar{uuid: "spp-char", writable: true}
	fallback := &fakeChar{uuid: "vendor-char", writable: true}
	session := &fakeSession{services: []Service{
		&fakeService{uuid: KnownServiceUUIDs[1], chars: []Characteristic{fallback}},
		&fakeService{uuid: KnownServiceUUIDs[0], chars: []Characteristic{preferred}},
	}}
	scanner := &fakeScanner{devices: []Device{&fakeDevice{name: "RPP02N", session: session}}}
	tr := NewSessionTransport(scanner, testConfig(), testLogger())
	require.NoError(t, tr.Connect(context.Background()))

	require.NoError(t, tr.Write(context.Background(), []byte("x")))
	assert.Len(t, preferred.writes, 1, "the first known service UUID wins")
	assert.Empty(t, fallback.writes)
}

func TestConnect_SecondAttemptRejected(t *testing.T) {
	char := &fakeChar{uuid: "c1", writable: true}
	tr, _ := readyTransport(t, char, testConfig())

	err := tr.Connect(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyConnected)
}

func TestConnect_AllowedAgainAfterFailure(t *testing.T) {
	scanner := &fakeScanner{}
	tr := NewSessionTransport(scanner, testConfig(), testLogger())
	require.ErrorIs(t, tr.Connect(context.Background()), ErrNoCompatibleDevice)

	session := &fakeSession{services: []Service{
		&fakeService{uuid: KnownServiceUUIDs[0], chars: []Characteristic{
			&fakeChar{uuid: "c1", writable: true},
		}},
	}}
	scanner.devices = []Device{&fakeDevice{name: "RPP02N", session: session}}

	assert.NoError(t, tr.Connect(context.Background()))
	assert.Equal(t, StateReady, tr.State())
}

// ============================================================================
// Write Tests
// ============================================================================

func TestWrite_ChunksPayload(t *testing.T) {
	char := &fakeChar{uuid: "c1", writable: true}
	cfg := testConfig()
	cfg.ChunkSize = 20
	tr, _ := readyTransport(t, char, cfg)

	payload := make([]byte, 45)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, tr.Write(context.Background(), payload))

	require.Len(t, char.writes, 3)
	assert.Len(t, char.writes[0], 20)
	assert.Len(t, char.writes[1], 20)
	assert.Len(t, char.writes[2], 5)
	assert.Equal(t, payload[:20], char.writes[0])
	assert.Equal(t, payload[40:], char.writes[2])
	assert.Equal(t, StateReady, tr.State())
}

func TestWrite_InterChunkDelayBetweenChunks(t *testing.T) {
	char := &fakeChar{uuid: "c1", writable: true}
	cfg := testConfig()
	cfg.ChunkSize = 10
	cfg.InterChunkDelay = 30 * time.Millisecond
	tr, _ := readyTransport(t, char, cfg)

	require.NoError(t, tr.Write(context.Background(), make([]byte, 25)))

	require.Len(t, char.writes, 3)
	assert.GreaterOrEqual(t, char.writeTimes[1].Sub(char.writeTimes[0]), 25*time.Millisecond)
	assert.GreaterOrEqual(t, char.writeTimes[2].Sub(char.writeTimes[1]), 25*time.Millisecond)
}

func TestWrite_SmallPayloadSingleChunkNoDelay(t *testing.T) {
	char := &fakeChar{uuid: "c1", writable: true}
	cfg := testConfig()
	cfg.InterChunkDelay = time.Second
	tr, _ := readyTransport(t, char, cfg)

	start := time.Now()
	require.NoError(t, tr.Write(context.Background(), []byte("short")))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Len(t, char.writes, 1)
}

func TestWrite_ChunkFailureTearsDownConnection(t *testing.T) {
	char := &fakeChar{uuid: "c1", writable: true, failAt: 2, failErr: errors.New("link reset")}
	cfg := testConfig()
	cfg.ChunkSize = 10
	tr, session := readyTransport(t, char, cfg)

	err := tr.Write(context.Background(), make([]byte, 30))
	assert.ErrorIs(t, err, ErrTransportWrite)
	assert.Len(t, char.writes, 1, "no chunk retry after a failure")
	assert.Equal(t, StateFailed, tr.State())
	assert.Equal(t, 1, session.closed)
}

func TestWrite_ChunkTimeout(t *testing.T) {
	char := &fakeChar{uuid: "c1", writable: true, block: make(chan struct{})}
	cfg := testConfig()
	cfg.WriteTimeout = 30 * time.Millisecond
	tr, _ := readyTransport(t, char, cfg)

	err := tr.Write(context.Background(), []byte("stuck"))
	assert.ErrorIs(t, err, ErrWriteTimeout)
	assert.Equal(t, StateFailed, tr.State())
}

func TestWrite_NotConnected(t *testing.T) {
	tr := NewSessionTransport(&fakeScanner{}, testConfig(), testLogger())
	err := tr.Write(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestWrite_BusyRejectsConcurrentWrite(t *testing.T) {
	block := make(chan struct{})
	char := &fakeChar{uuid: "c1", writable: true, block: block}
	cfg := testConfig()
	cfg.WriteTimeout = time.Second
	tr, _ := readyTransport(t, char, cfg)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- tr.Write(context.Background(), []byte("first"))
	}()

	require.Eventually(t, func() bool {
		return tr.State() == StateWriting
	}, time.Second, time.Millisecond)

	err := tr.Write(context.Background(), []byte("second"))
	assert.ErrorIs(t, err, ErrPrinterBusy)

	close(block)
	assert.NoError(t, <-firstDone)
	assert.Equal(t, StateReady, tr.State())
}

// ============================================================================
// Disconnect Tests
// ============================================================================

func TestDisconnect_ClosesSession(t *testing.T) {
	char := &fakeChar{uuid: "c1", writable: true}
	tr, session := readyTransport(t, char, testConfig())

	require.NoError(t, tr.Disconnect())
	assert.Equal(t, StateDisconnected, tr.State())
	assert.Equal(t, 1, session.closed)
}

func TestDisconnect_Idempotent(t *testing.T) {
	char := &fakeChar{uuid: "c1", writable: true}
	tr, _ := readyTransport(t, char, testConfig())

	require.NoError(t, tr.Disconnect())
	require.NoError(t, tr.Disconnect())
	assert.Equal(t, StateDisconnected, tr.State())
}

func TestDisconnect_SafeWhenNeverConnected(t *testing.T) {
	tr := NewSessionTransport(&fakeScanner{}, testConfig(), testLogger())
	assert.NoError(t, tr.Disconnect())
}
