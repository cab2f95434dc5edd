package printer

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/warungku/poscore/internal/receipt"
)

var (
	printJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "print_jobs_total",
			Help: "Total number of print jobs by outcome",
		},
		[]string{"status"},
	)

	printCopiesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "print_copies_total",
			Help: "Total number of physical receipt copies printed",
		},
	)

	printJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "print_job_duration_seconds",
			Help:    "Wall time of complete print jobs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Renderer turns a receipt document into printer bytes. The ESC/POS encoder
// is the production implementation.
type Renderer interface {
	Render(doc receipt.Document) []byte
}

// DocumentFunc produces the document for one copy. Each copy gets its own
// document so copy markers carry the right index.
type DocumentFunc func(copyIndex, totalCopies int) receipt.Document

// PrintJob is the unit handed to the transport, one per physical copy.
type PrintJob struct {
	Document    receipt.Document
	CopyIndex   int
	TotalCopies int
}

// Outcome reports what a print run achieved. CopiesPrinted may be lower than
// requested when the run failed or was cancelled part way.
type Outcome struct {
	CopiesPrinted int
	Elapsed       time.Duration
}

// Orchestrator sequences multi-copy print runs over a transport. At most one
// run is in flight at a time; a second concurrent run fails with
// ErrPrinterBusy rather than queueing.
type Orchestrator struct {
	transport   Transport
	renderer    Renderer
	settleDelay time.Duration
	logger      *slog.Logger
	busy        atomic.Bool
}

// NewOrchestrator creates an orchestrator. The settle delay gives the
// printer time to finish cutting before the next copy starts.
func NewOrchestrator(transport Transport, renderer Renderer, settleDelay time.Duration, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		transport:   transport,
		renderer:    renderer,
		settleDelay: settleDelay,
		logger:      logger,
	}
}

// Print renders and writes copies sequentially. Cancellation is honored
// between copies, never mid-write, so a cancelled run still reports every
// copy that physically printed. Copies already printed are never undone.
func (o *Orchestrator) Print(ctx context.Context, docFn DocumentFunc, copies int) (Outcome, error) {
	if copies < 1 {
		copies = 1
	}

	if !o.busy.CompareAndSwap(false, true) {
		printJobsTotal.WithLabelValues("rejected_busy").Inc()
		return Outcome{}, ErrPrinterBusy
	}
	defer o.busy.Store(false)

	start := time.Now()
	printed := 0

	for i := 1; i <= copies; i++ {
		select {
		case <-ctx.Done():
			printJobsTotal.WithLabelValues("cancelled").Inc()
			return Outcome{CopiesPrinted: printed, Elapsed: time.Since(start)}, ctx.Err()
		default:
		}

		job := PrintJob{Document: docFn(i, copies), CopyIndex: i, TotalCopies: copies}
		data := o.renderer.Render(job.Document)

		if err := o.transport.Write(ctx, data); err != nil {
			o.logger.ErrorContext(ctx, "print copy failed",
				slog.Int("copy", i),
				slog.Int("total_copies", copies),
				slog.Int("copies_printed", printed),
				slog.String("error", err.Error()),
			)
			printJobsTotal.WithLabelValues("failed").Inc()
			return Outcome{CopiesPrinted: printed, Elapsed: time.Since(start)}, err
		}

		printed++
		printCopiesTotal.Inc()

		if i < copies {
			time.Sleep(o.settleDelay)
		}
	}

	elapsed := time.Since(start)
	printJobsTotal.WithLabelValues("success").Inc()
	printJobDuration.Observe(elapsed.Seconds())

	o.logger.InfoContext(ctx, "print job complete",
		slog.Int("copies", printed),
		slog.Duration("elapsed", elapsed),
	)
	return Outcome{CopiesPrinted: printed, Elapsed: elapsed}, nil
}
