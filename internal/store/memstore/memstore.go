// Package memstore is an in-process implementation of store.Store. Every
// operation runs under one lock; transactions hold the lock for their whole
// duration and restore a snapshot when they fail.
package memstore

import (
	"context"
	"sync"

	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/store"

	"github.com/google/uuid"
)

// table keeps rows by id plus their insertion order.
type table[T any] struct {
	rows  map[string]T
	order []string
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) get(id string) (T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[T]) put(id string, v T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = v
}

func (t *table[T]) del(id string) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// each visits rows oldest first; newestFirst reverses that.
func (t *table[T]) each(newestFirst bool, fn func(T) bool) {
	n := len(t.order)
	for i := 0; i < n; i++ {
		idx := i
		if newestFirst {
			idx = n - 1 - i
		}
		if !fn(t.rows[t.order[idx]]) {
			return
		}
	}
}

func (t *table[T]) clone() *table[T] {
	c := &table[T]{rows: make(map[string]T, len(t.rows)), order: append([]string(nil), t.order...)}
	for k, v := range t.rows {
		c.rows[k] = v
	}
	return c
}

type state struct {
	warehouse      *table[models.WarehouseItem]
	ngoResources   *table[models.NgoResource]
	replenishments *table[models.ReplenishmentRequest]
	requests       *table[models.HelpRequest]
	users          *table[models.User]
	contacts       *table[models.ContactQuery]
	sequences      map[string]int64
}

func newState() *state {
	return &state{
		warehouse:      newTable[models.WarehouseItem](),
		ngoResources:   newTable[models.NgoResource](),
		replenishments: newTable[models.ReplenishmentRequest](),
		requests:       newTable[models.HelpRequest](),
		users:          newTable[models.User](),
		contacts:       newTable[models.ContactQuery](),
		sequences:      make(map[string]int64),
	}
}

func (s *state) clone() *state {
	seq := make(map[string]int64, len(s.sequences))
	for k, v := range s.sequences {
		seq[k] = v
	}
	return &state{
		warehouse:      s.warehouse.clone(),
		ngoResources:   s.ngoResources.clone(),
		replenishments: s.replenishments.clone(),
		requests:       s.requests.clone(),
		users:          s.users.clone(),
		contacts:       s.contacts.clone(),
		sequences:      seq,
	}
}

type txKey struct{}

// Store is safe for concurrent use.
type Store struct {
	mu sync.Mutex
	st *state
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState()}
}

// lock acquires the store lock unless ctx already runs inside one of this
// store's transactions.
func (s *Store) lock(ctx context.Context) func() {
	if owner, _ := ctx.Value(txKey{}).(*Store); owner == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if owner, _ := ctx.Value(txKey{}).(*Store); owner == s {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) Close(context.Context) error { return nil }

func (s *Store) Warehouse() store.WarehouseRepository          { return warehouseRepo{s} }
func (s *Store) NgoResources() store.NgoResourceRepository     { return ngoResourceRepo{s} }
func (s *Store) Replenishments() store.ReplenishmentRepository { return replenishmentRepo{s} }
func (s *Store) Requests() store.RequestRepository             { return requestRepo{s} }
func (s *Store) Users() store.UserRepository                   { return userRepo{s} }
func (s *Store) Sequences() store.SequenceRepository           { return sequenceRepo{s} }
func (s *Store) Contacts() store.ContactRepository             { return contactRepo{s} }

func newID() string { return uuid.NewString() }

// --- sequences ---

type sequenceRepo struct{ s *Store }

func (r sequenceRepo) Next(ctx context.Context, name string) (int64, error) {
	defer r.s.lock(ctx)()
	r.s.st.sequences[name]++
	return r.s.st.sequences[name], nil
}

func (r sequenceRepo) AdvanceTo(ctx context.Context, name string, value int64) error {
	defer r.s.lock(ctx)()
	if r.s.st.sequences[name] < value {
		r.s.st.sequences[name] = value
	}
	return nil
}
