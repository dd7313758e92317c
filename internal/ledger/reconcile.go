package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shaniyajacobs/NewCircuit-sub000/internal/gender"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/store"
	"github.com/shaniyajacobs/NewCircuit-sub000/pkg/logger"
)

// Report describes one reconciliation pass.
type Report struct {
	EventID string `json:"event_id"`
	Cached  Counts `json:"cached"`
	Actual  Counts `json:"actual"`
	Applied bool   `json:"applied"`
}

// Drifted reports whether the cached counters disagree with the roster.
func (r Report) Drifted() bool { return r.Cached != r.Actual }

// RecomputeCounts scans the full roster of eventID and returns the true
// per-gender counts. Entries whose gender does not normalise to a partition
// are not counted.
func (l *Ledger) RecomputeCounts(ctx context.Context, eventID string) (Counts, error) {
	if _, err := l.store.Event(ctx, eventID); err != nil {
		return Counts{}, err
	}
	roster, err := l.store.Roster(ctx, eventID)
	if err != nil {
		return Counts{}, err
	}
	var c Counts
	for _, e := range roster {
		switch gender.Normalize(e.Gender) {
		case gender.Male:
			c.Men++
		case gender.Female:
			c.Women++
		}
	}
	return c, nil
}

// ApplyCounts unconditionally overwrites the cached counters of eventID.
func (l *Ledger) ApplyCounts(ctx context.Context, eventID string, c Counts) error {
	if c.Men < 0 || c.Women < 0 {
		return ErrInvalidSpots
	}
	return l.transact(ctx, "apply_counts", func(tx store.Tx) error {
		if _, err := tx.Event(ctx, eventID); err != nil {
			return err
		}
		return tx.SetCounts(ctx, eventID, c.Men, c.Women)
	})
}

// Reconcile counts the roster and, when apply is set and the counters have
// drifted, overwrites them. Count and overwrite share one transaction so a
// concurrent signup cannot slip between them.
func (l *Ledger) Reconcile(ctx context.Context, eventID string, apply bool) (Report, error) {
	var rep Report
	err := l.transact(ctx, "reconcile", func(tx store.Tx) error {
		ev, err := tx.Event(ctx, eventID)
		if err != nil {
			return err
		}
		men, women, err := tx.CountRoster(ctx, eventID)
		if err != nil {
			return err
		}
		rep = Report{
			EventID: eventID,
			Cached:  countsOf(ev),
			Actual:  Counts{Men: men, Women: women},
		}
		if !apply || !rep.Drifted() {
			return nil
		}
		if err := tx.SetCounts(ctx, eventID, men, women); err != nil {
			return err
		}
		rep.Applied = true
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	if rep.Drifted() {
		l.metrics.RecordReconcile(rep.Actual.Men-rep.Cached.Men, rep.Actual.Women-rep.Cached.Women)
		l.log.Warn(ctx, "counter drift detected",
			logger.String("event_id", eventID),
			logger.Int("cached_men", rep.Cached.Men), logger.Int("actual_men", rep.Actual.Men),
			logger.Int("cached_women", rep.Cached.Women), logger.Int("actual_women", rep.Actual.Women),
			logger.Bool("applied", rep.Applied))
	}
	return rep, nil
}

// Healer periodically reconciles events that went through a best-effort
// path.
type Healer struct {
	ledger   *Ledger
	interval time.Duration

	mu    sync.Mutex
	dirty map[string]struct{}
}

func newHealer(l *Ledger, interval time.Duration) *Healer {
	return &Healer{
		ledger:   l,
		interval: interval,
		dirty:    make(map[string]struct{}),
	}
}

// MarkDirty queues eventID for the next sweep.
func (h *Healer) MarkDirty(eventID string) {
	h.mu.Lock()
	h.dirty[eventID] = struct{}{}
	h.mu.Unlock()
}

// Pending returns the events waiting to be reconciled.
func (h *Healer) Pending() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.dirty))
	for id := range h.dirty {
		ids = append(ids, id)
	}
	return ids
}

// Run sweeps dirty events every interval until ctx is done.
func (h *Healer) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Sweep(ctx)
		}
	}
}

// Sweep reconciles every dirty event once. The dirty set is taken as a
// whole before reconciling, so marks made meanwhile wait for the next
// sweep. Events that fail are marked again; events that no longer exist are
// dropped.
func (h *Healer) Sweep(ctx context.Context) {
	h.mu.Lock()
	batch := h.dirty
	h.dirty = make(map[string]struct{}, len(batch))
	h.mu.Unlock()

	for id := range batch {
		_, err := h.ledger.Reconcile(ctx, id, true)
		if err != nil && !errors.Is(err, store.ErrEventNotFound) {
			h.ledger.log.Error(ctx, "reconcile failed", logger.String("event_id", id), logger.Error(err))
			h.MarkDirty(id)
		}
	}
}
