package printer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warungku/poscore/internal/receipt"
)

type fakeTransport struct {
	mu       sync.Mutex
	writes   [][]byte
	failAt   int // 1-based write index to fail on, 0 disables
	failWith error
	slow     time.Duration
}

func (t *fakeTransport) Connect(ctx context.Context) error { return nil }
func (t *fakeTransport) Disconnect() error                 { return nil }
func (t *fakeTransport) State() State                      { return StateReady }
func (t *fakeTransport) DeviceName() string                { return "fake" }

func (t *fakeTransport) Write(ctx context.Context, data []byte) error {
	if t.slow > 0 {
		time.Sleep(t.slow)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failAt > 0 && len(t.writes)+1 == t.failAt {
		return t.failWith
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	t.writes = append(t.writes, buf)
	return nil
}

func (t *fakeTransport) writeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.writes)
}

// markerRenderer renders each document to a byte per line, enough to tell
// copies apart.
type markerRenderer struct{}

func (markerRenderer) Render(doc receipt.Document) []byte {
	return []byte{byte(len(doc.Lines))}
}

func copyDoc(copyIndex, totalCopies int) receipt.Document {
	lines := make([]receipt.Line, copyIndex)
	return receipt.Document{Width: receipt.WidthNarrow, Lines: lines}
}

// ============================================================================
// Print Tests
// ============================================================================

func TestPrint_SingleCopy(t *testing.T) {
	tr := &fakeTransport{}
	o := NewOrchestrator(tr, markerRenderer{}, 0, testLogger())

	outcome, err := o.Print(context.Background(), copyDoc, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.CopiesPrinted)
	assert.Equal(t, 1, tr.writeCount())
}

func TestPrint_MultipleCopiesGetDistinctDocuments(t *testing.T) {
	tr := &fakeTransport{}
	o := NewOrchestrator(tr, markerRenderer{}, 0, testLogger())

	outcome, err := o.Print(context.Background(), copyDoc, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.CopiesPrinted)

	// copyDoc emits copyIndex lines, so each rendered payload differs.
	require.Equal(t, 3, tr.writeCount())
	assert.Equal(t, []byte{1}, tr.writes[0])
	assert.Equal(t, []byte{2}, tr.writes[1])
	assert.Equal(t, []byte{3}, tr.writes[2])
}

func TestPrint_SettleDelayBetweenCopies(t *testing.T) {
	tr := &fakeTransport{}
	o := NewOrchestrator(tr, markerRenderer{}, 40*time.Millisecond, testLogger())

	start := time.Now()
	_, err := o.Print(context.Background(), copyDoc, 3)
	require.NoError(t, err)

	// Two gaps between three copies.
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
}

func TestPrint_StopsAtFirstFailure(t *testing.T) {
	tr := &fakeTransport{failAt: 2, failWith: ErrTransportWrite}
	o := NewOrchestrator(tr, markerRenderer{}, 0, testLogger())

	outcome, err := o.Print(context.Background(), copyDoc, 3)
	assert.ErrorIs(t, err, ErrTransportWrite)
	assert.Equal(t, 1, outcome.CopiesPrinted, "partial success is reported, not rolled back")
	assert.Equal(t, 1, tr.writeCount())
}

func TestPrint_CancelledBetweenCopies(t *testing.T) {
	tr := &fakeTransport{}
	o := NewOrchestrator(tr, markerRenderer{}, 0, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	docFn := func(copyIndex, totalCopies int) receipt.Document {
		if copyIndex == 2 {
			cancel()
		}
		return copyDoc(copyIndex, totalCopies)
	}

	// Cancel lands after copy 2 is built and printed, so copy 3 never starts.
	outcome, err := o.Print(ctx, docFn, 3)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, outcome.CopiesPrinted)
	assert.Equal(t, 2, tr.writeCount())
}

func TestPrint_BusyRejectsConcurrentJob(t *testing.T) {
	tr := &fakeTransport{slow: 100 * time.Millisecond}
	o := NewOrchestrator(tr, markerRenderer{}, 0, testLogger())

	firstDone := make(chan error, 1)
	go func() {
		_, err := o.Print(context.Background(), copyDoc, 1)
		firstDone <- err
	}()

	require.Eventually(t, func() bool {
		return o.busy.Load()
	}, time.Second, time.Millisecond)

	_, err := o.Print(context.Background(), copyDoc, 1)
	assert.ErrorIs(t, err, ErrPrinterBusy)

	assert.NoError(t, <-firstDone)

	// The orchestrator accepts new jobs once the first completes.
	_, err = o.Print(context.Background(), copyDoc, 1)
	assert.NoError(t, err)
}

func TestPrint_ZeroCopiesClampedToOne(t *testing.T) {
	tr := &fakeTransport{}
	o := NewOrchestrator(tr, markerRenderer{}, 0, testLogger())

	outcome, err := o.Print(context.Background(), copyDoc, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.CopiesPrinted)
}

func TestPrint_ReportsElapsedTime(t *testing.T) {
	tr := &fakeTransport{slow: 20 * time.Millisecond}
	o := NewOrchestrator(tr, markerRenderer{}, 0, testLogger())

	outcome, err := o.Print(context.Background(), copyDoc, 2)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, outcome.Elapsed, 40*time.Millisecond)
}
