package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/curocart/curocart-backend/pkg/logger"
	"github.com/curocart/curocart-backend/pkg/metrics"
	"go.uber.org/multierr"
)

// PersisterFactory builds the persistence adapter for one customer.
type PersisterFactory func(customerID string) Persister

// Manager hands out one Store per customer, loading the persisted collection
// on first use. Stores live for the process lifetime; their write queues are
// drained on Close.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Store

	factory   PersisterFactory
	defaults  DeliveryConfig
	queueSize int
	logg      *logger.Logger
	metrics   *metrics.CartMetrics
	clock     func() time.Time
}

// ManagerParams configures a Manager.
type ManagerParams struct {
	Factory   PersisterFactory
	Defaults  DeliveryConfig
	QueueSize int
	Logger    *logger.Logger
	Metrics   *metrics.CartMetrics
	Clock     func() time.Time
}

// NewManager builds a manager backed by the provided persister factory.
func NewManager(params ManagerParams) (*Manager, error) {
	if params.Factory == nil {
		return nil, fmt.Errorf("persister factory required")
	}
	return &Manager{
		stores:    map[string]*Store{},
		factory:   params.Factory,
		defaults:  params.Defaults,
		queueSize: params.QueueSize,
		logg:      params.Logger,
		metrics:   params.Metrics,
		clock:     params.Clock,
	}, nil
}

// ForCustomer returns the customer's store, loading it on first use.
func (m *Manager) ForCustomer(ctx context.Context, customerID string) (*Store, error) {
	if customerID == "" {
		return nil, fmt.Errorf("customer id required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if store, exists := m.stores[customerID]; exists {
		return store, nil
	}

	store, err := NewStore(ctx, StoreParams{
		Persister: m.factory(customerID),
		Defaults:  m.defaults,
		QueueSize: m.queueSize,
		Logger:    m.logg,
		Metrics:   m.metrics,
		Clock:     m.clock,
	})
	if err != nil {
		return nil, err
	}
	m.stores[customerID] = store
	return store, nil
}

// Close drains every store's write queue and reports accumulated failures.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs error
	for id, store := range m.stores {
		if err := store.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("store %s: %w", id, err))
		}
	}
	m.stores = map[string]*Store{}
	return errs
}
