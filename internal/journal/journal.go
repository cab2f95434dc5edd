// Package journal keeps a local record of printed receipts so an order can
// be reprinted even when the order service is unreachable.
package journal

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/warungku/poscore/internal/domain"
	"github.com/warungku/poscore/internal/receipt"
	apperrors "github.com/warungku/poscore/pkg/errors"
)

// Entry is one printed order. The document itself is not stored; reprints
// rebuild it from the frozen totals so layout fixes apply retroactively.
type Entry struct {
	OrderNumber  string             `json:"order_number"`
	Totals       domain.OrderTotals `json:"totals"`
	Cashier      string             `json:"cashier"`
	CustomerName string             `json:"customer_name,omitempty"`
	Notes        string             `json:"notes,omitempty"`
	PrintedAt    time.Time          `json:"printed_at"`
	Copies       int                `json:"copies"`
	Reprints     int                `json:"reprints"`
}

// Meta returns the receipt metadata for rebuilding this entry's document.
func (e Entry) Meta(reprint bool) receipt.OrderMeta {
	return receipt.OrderMeta{
		OrderNumber:  e.OrderNumber,
		Cashier:      e.Cashier,
		Timestamp:    e.PrintedAt,
		CustomerName: e.CustomerName,
		Notes:        e.Notes,
		Reprint:      reprint,
	}
}

// Journal is a pebble-backed receipt log keyed by order number.
type Journal struct {
	db *pebble.DB
}

// Open opens or creates the journal at dir.
func Open(dir string) (*Journal, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("journal open: %w", err)
	}
	return &Journal{db: db}, nil
}

func key(orderNumber string) []byte {
	return []byte("receipt/" + orderNumber)
}

// Record stores an entry, overwriting any previous record of the same order.
// Writes are synced; a receipt that printed must survive a power cut.
func (j *Journal) Record(entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("journal encode %s: %w", entry.OrderNumber, err)
	}
	if err := j.db.Set(key(entry.OrderNumber), data, pebble.Sync); err != nil {
		return fmt.Errorf("journal write %s: %w", entry.OrderNumber, err)
	}
	return nil
}

// Get returns the entry for an order number.
func (j *Journal) Get(orderNumber string) (Entry, error) {
	v, closer, err := j.db.Get(key(orderNumber))
	if err != nil {
		if err == pebble.ErrNotFound {
			return Entry{}, apperrors.NotFound("receipt", orderNumber)
		}
		return Entry{}, fmt.Errorf("journal read %s: %w", orderNumber, err)
	}
	defer closer.Close()

	var entry Entry
	if err := json.Unmarshal(v, &entry); err != nil {
		return Entry{}, fmt.Errorf("journal decode %s: %w", orderNumber, err)
	}
	return entry, nil
}

// MarkReprinted bumps the reprint counter and returns the updated entry.
func (j *Journal) MarkReprinted(orderNumber string) (Entry, error) {
	entry, err := j.Get(orderNumber)
	if err != nil {
		return Entry{}, err
	}
	entry.Reprints++
	if err := j.Record(entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	it, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("receipt/"),
		UpperBound: []byte("receipt0"),
	})
	if err != nil {
		return nil, fmt.Errorf("journal iterate: %w", err)
	}
	defer it.Close()

	var entries []Entry
	for it.First(); it.Valid(); it.Next() {
		var entry Entry
		if err := json.Unmarshal(it.Value(), &entry); err != nil {
			return nil, fmt.Errorf("journal decode %s: %w", it.Key(), err)
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(a, b int) bool {
		return entries[a].PrintedAt.After(entries[b].PrintedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Prune deletes entries older than cutoff, keeping the journal bounded on a
// till that runs for years. Returns the number of entries removed.
func (j *Journal) Prune(cutoff time.Time) (int, error) {
	it, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("receipt/"),
		UpperBound: []byte("receipt0"),
	})
	if err != nil {
		return 0, fmt.Errorf("journal iterate: %w", err)
	}
	defer it.Close()

	var stale [][]byte
	for it.First(); it.Valid(); it.Next() {
		var entry Entry
		if err := json.Unmarshal(it.Value(), &entry); err != nil {
			return 0, fmt.Errorf("journal decode %s: %w", it.Key(), err)
		}
		if entry.PrintedAt.Before(cutoff) {
			k := make([]byte, len(it.Key()))
			copy(k, it.Key())
			stale = append(stale, k)
		}
	}

	for _, k := range stale {
		if err := j.db.Delete(k, pebble.Sync); err != nil {
			return 0, fmt.Errorf("journal delete %s: %w", k, err)
		}
	}
	return len(stale), nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
