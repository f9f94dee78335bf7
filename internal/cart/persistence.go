package cart

import (
	"context"
	"sync"
	"time"

	"github.com/curocart/curocart-backend/pkg/logger"
	"github.com/curocart/curocart-backend/pkg/metrics"
	"go.uber.org/multierr"
)

// Persister is the key-value snapshot surface behind a store. The cart
// mapping and the active pointer are persisted independently; Clear removes
// both keys so that a fresh load sees an empty collection.
type Persister interface {
	Load(ctx context.Context) (Collection, error)
	SaveCarts(ctx context.Context, carts map[string]*PharmacyCart) error
	SaveActive(ctx context.Context, activePharmacyID string) error
	Clear(ctx context.Context) error
}

// writeQueue serializes snapshot writes through a single goroutine so cart
// mutations never block on the backing store. Writes are applied in mutation
// order; failures are logged and counted, never rolled back — the in-memory
// state stays authoritative for the process lifetime.
type writeQueue struct {
	ops     chan func(ctx context.Context) error
	done    chan struct{}
	logg    *logger.Logger
	metrics *metrics.CartMetrics

	mu   sync.Mutex
	errs error
}

func newWriteQueue(size int, logg *logger.Logger, m *metrics.CartMetrics) *writeQueue {
	if size <= 0 {
		size = 256
	}
	q := &writeQueue{
		ops:     make(chan func(ctx context.Context) error, size),
		done:    make(chan struct{}),
		logg:    logg,
		metrics: m,
	}
	go q.run()
	return q
}

func (q *writeQueue) run() {
	defer close(q.done)
	for op := range q.ops {
		start := time.Now()
		err := op(context.Background())
		q.metrics.ObservePersistDuration(time.Since(start))
		if err != nil {
			q.metrics.IncPersistFailure()
			if q.logg != nil {
				q.logg.Error(context.Background(), "cart snapshot write failed", err)
			}
			q.mu.Lock()
			q.errs = multierr.Append(q.errs, err)
			q.mu.Unlock()
		}
	}
}

// enqueue hands a write to the queue, blocking while it is full. Snapshot
// writes must apply in mutation order; a bounded stall under backpressure is
// the price of that invariant.
func (q *writeQueue) enqueue(op func(ctx context.Context) error) {
	q.ops <- op
}

// close drains pending writes and returns any accumulated write errors.
func (q *writeQueue) close() error {
	close(q.ops)
	<-q.done
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.errs
}

// MemoryPersister keeps snapshots in process memory. Used by tests and as a
// stand-in when no backing store is configured.
type MemoryPersister struct {
	mu     sync.Mutex
	carts  map[string]*PharmacyCart
	active string
	stored bool
}

// NewMemoryPersister builds an empty in-memory persister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (m *MemoryPersister) Load(ctx context.Context) (Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.stored {
		return Collection{Carts: map[string]*PharmacyCart{}}, nil
	}
	return cloneCollection(Collection{Carts: m.carts, ActivePharmacyID: m.active}), nil
}

func (m *MemoryPersister) SaveCarts(ctx context.Context, carts map[string]*PharmacyCart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts = cloneCollection(Collection{Carts: carts}).Carts
	m.stored = true
	return nil
}

func (m *MemoryPersister) SaveActive(ctx context.Context, activePharmacyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = activePharmacyID
	m.stored = true
	return nil
}

func (m *MemoryPersister) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts = nil
	m.active = ""
	m.stored = false
	return nil
}
