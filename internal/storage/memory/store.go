// Package memory provides an in-memory implementation of the storage
// contracts. It backs unit tests and ephemeral runs; the SQLite store is the
// durable implementation.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/studiofit/membercore/internal/domain/event"
	"github.com/studiofit/membercore/internal/domain/replay"
	"github.com/studiofit/membercore/internal/storage"
	"github.com/studiofit/membercore/internal/view"
)

type streamKey struct {
	aggregate   event.Aggregate
	aggregateID string
}

// Store keeps events and views in process memory, guarded by a mutex.
type Store struct {
	mu          sync.RWMutex
	streams     map[streamKey][]event.Event
	outbox      []storage.OutboxEntry
	checkpoints map[streamKey]replay.Checkpoint
	customers   map[string]view.Customer
	products    map[string]view.Product
	contracts   map[string]view.Contract
	invoices    map[string]view.Invoice
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		streams:     make(map[streamKey][]event.Event),
		checkpoints: make(map[streamKey]replay.Checkpoint),
		customers:   make(map[string]view.Customer),
		products:    make(map[string]view.Product),
		contracts:   make(map[string]view.Contract),
		invoices:    make(map[string]view.Invoice),
	}
}

// Get implements replay.CheckpointStore.
func (s *Store) Get(ctx context.Context, aggregate event.Aggregate, aggregateID string) (replay.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return replay.Checkpoint{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	checkpoint, ok := s.checkpoints[streamKey{aggregate: aggregate, aggregateID: aggregateID}]
	if !ok {
		return replay.Checkpoint{}, replay.ErrCheckpointNotFound
	}
	return checkpoint, nil
}

// Save implements replay.CheckpointStore.
func (s *Store) Save(ctx context.Context, checkpoint replay.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[streamKey{aggregate: checkpoint.Aggregate, aggregateID: checkpoint.AggregateID}] = checkpoint
	return nil
}

// AppendEvents implements storage.EventStore.
func (s *Store) AppendEvents(ctx context.Context, aggregate event.Aggregate, aggregateID string, expectedVersion uint64, events []event.Event) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	aggregateID = strings.TrimSpace(aggregateID)
	if aggregateID == "" {
		return nil, fmt.Errorf("aggregate id is required")
	}
	if len(events) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := streamKey{aggregate: aggregate, aggregateID: aggregateID}
	current := uint64(len(s.streams[key]))
	if current != expectedVersion {
		return nil, fmt.Errorf("append %s/%s at version %d, current %d: %w",
			aggregate, aggregateID, expectedVersion, current, storage.ErrVersionConflict)
	}

	stored := make([]event.Event, 0, len(events))
	for i, evt := range events {
		evt.Aggregate = aggregate
		evt.AggregateID = aggregateID
		evt.Seq = expectedVersion + uint64(i) + 1
		if evt.Timestamp.IsZero() {
			evt.Timestamp = time.Now().UTC()
		}
		evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)
		hash, err := storage.EventHash(evt)
		if err != nil {
			return nil, fmt.Errorf("hash event %d: %w", i, err)
		}
		evt.Hash = hash
		stored = append(stored, evt)
	}

	s.streams[key] = append(s.streams[key], stored...)
	for _, evt := range stored {
		s.outbox = append(s.outbox, storage.OutboxEntry{
			Aggregate:     evt.Aggregate,
			AggregateID:   evt.AggregateID,
			Seq:           evt.Seq,
			EventType:     evt.Type,
			Status:        storage.OutboxStatusPending,
			NextAttemptAt: evt.Timestamp,
			UpdatedAt:     evt.Timestamp,
		})
	}
	return stored, nil
}

// ListEvents implements storage.EventStore.
func (s *Store) ListEvents(ctx context.Context, aggregate event.Aggregate, aggregateID string, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stream := s.streams[streamKey{aggregate: aggregate, aggregateID: strings.TrimSpace(aggregateID)}]
	if afterSeq >= uint64(len(stream)) {
		return nil, nil
	}
	end := afterSeq + uint64(limit)
	if end > uint64(len(stream)) {
		end = uint64(len(stream))
	}
	return append([]event.Event(nil), stream[afterSeq:end]...), nil
}

// LatestSeq implements storage.EventStore.
func (s *Store) LatestSeq(ctx context.Context, aggregate event.Aggregate, aggregateID string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.streams[streamKey{aggregate: aggregate, aggregateID: strings.TrimSpace(aggregateID)}])), nil
}

// PutCustomer implements storage.CustomerViewStore.
func (s *Store) PutCustomer(ctx context.Context, customer view.Customer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(customer.ID) == "" {
		return fmt.Errorf("customer id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[customer.ID] = customer
	return nil
}

// GetCustomer implements storage.CustomerViewStore.
func (s *Store) GetCustomer(ctx context.Context, id string) (view.Customer, error) {
	if err := ctx.Err(); err != nil {
		return view.Customer{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	customer, ok := s.customers[id]
	if !ok {
		return view.Customer{}, storage.ErrNotFound
	}
	return customer, nil
}

// ListCustomers implements storage.CustomerViewStore.
func (s *Store) ListCustomers(ctx context.Context, includeArchived bool) ([]view.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	customers := make([]view.Customer, 0, len(s.customers))
	for _, customer := range s.customers {
		if !includeArchived && customer.Archived {
			continue
		}
		customers = append(customers, customer)
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].ID < customers[j].ID })
	return customers, nil
}

// PutProduct implements storage.ProductViewStore.
func (s *Store) PutProduct(ctx context.Context, product view.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(product.ID) == "" {
		return fmt.Errorf("product id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	product.Variants = append([]view.ProductVariant(nil), product.Variants...)
	s.products[product.ID] = product
	return nil
}

// GetProduct implements storage.ProductViewStore.
func (s *Store) GetProduct(ctx context.Context, id string) (view.Product, error) {
	if err := ctx.Err(); err != nil {
		return view.Product{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[id]
	if !ok {
		return view.Product{}, storage.ErrNotFound
	}
	product.Variants = append([]view.ProductVariant(nil), product.Variants...)
	return product, nil
}

// ListProducts implements storage.ProductViewStore.
func (s *Store) ListProducts(ctx context.Context, includeArchived bool) ([]view.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	products := make([]view.Product, 0, len(s.products))
	for _, product := range s.products {
		if !includeArchived && product.Archived {
			continue
		}
		product.Variants = append([]view.ProductVariant(nil), product.Variants...)
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

// PutContract implements storage.ContractViewStore.
func (s *Store) PutContract(ctx context.Context, contract view.Contract) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(contract.ID) == "" {
		return fmt.Errorf("contract id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts[contract.ID] = contract
	return nil
}

// GetContract implements storage.ContractViewStore.
func (s *Store) GetContract(ctx context.Context, id string) (view.Contract, error) {
	if err := ctx.Err(); err != nil {
		return view.Contract{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	contract, ok := s.contracts[id]
	if !ok {
		return view.Contract{}, storage.ErrNotFound
	}
	return contract, nil
}

// ListContractsByStatus implements storage.ContractViewStore.
func (s *Store) ListContractsByStatus(ctx context.Context, status view.ContractStatus) ([]view.Contract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	contracts := make([]view.Contract, 0)
	for _, contract := range s.contracts {
		if contract.Status == status {
			contracts = append(contracts, contract)
		}
	}
	sort.Slice(contracts, func(i, j int) bool { return contracts[i].ID < contracts[j].ID })
	return contracts, nil
}

// ListContractsByCustomer implements storage.ContractViewStore.
func (s *Store) ListContractsByCustomer(ctx context.Context, customerID string) ([]view.Contract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	contracts := make([]view.Contract, 0)
	for _, contract := range s.contracts {
		if contract.CustomerID == customerID {
			contracts = append(contracts, contract)
		}
	}
	sort.Slice(contracts, func(i, j int) bool { return contracts[i].ID < contracts[j].ID })
	return contracts, nil
}

// PutInvoice implements storage.InvoiceViewStore.
func (s *Store) PutInvoice(ctx context.Context, invoice view.Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(invoice.ID) == "" {
		return fmt.Errorf("invoice id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[invoice.ID] = invoice
	return nil
}

// GetInvoice implements storage.InvoiceViewStore.
func (s *Store) GetInvoice(ctx context.Context, id string) (view.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return view.Invoice{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	invoice, ok := s.invoices[id]
	if !ok {
		return view.Invoice{}, storage.ErrNotFound
	}
	return invoice, nil
}

// ListInvoicesByStatus implements storage.InvoiceViewStore.
func (s *Store) ListInvoicesByStatus(ctx context.Context, status view.InvoiceStatus) ([]view.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	invoices := make([]view.Invoice, 0)
	for _, invoice := range s.invoices {
		if invoice.Status == status {
			invoices = append(invoices, invoice)
		}
	}
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].ID < invoices[j].ID })
	return invoices, nil
}

// ListInvoicesByCustomer implements storage.InvoiceViewStore.
func (s *Store) ListInvoicesByCustomer(ctx context.Context, customerID string) ([]view.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	invoices := make([]view.Invoice, 0)
	for _, invoice := range s.invoices {
		if invoice.CustomerID == customerID {
			invoices = append(invoices, invoice)
		}
	}
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].ID < invoices[j].ID })
	return invoices, nil
}
