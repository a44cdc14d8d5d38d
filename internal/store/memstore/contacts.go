package memstore

import (
	"context"
	"fmt"
	"time"

	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/store"
)

type contactRepo struct{ s *Store }

func (r contactRepo) Insert(ctx context.Context, q *models.ContactQuery) error {
	defer r.s.lock(ctx)()
	if q.ID == "" {
		q.ID = newID()
	}
	r.s.st.contacts.put(q.ID, *q)
	return nil
}

func (r contactRepo) Get(ctx context.Context, id string) (*models.ContactQuery, error) {
	defer r.s.lock(ctx)()
	q, ok := r.s.st.contacts.get(id)
	if !ok {
		return nil, fmt.Errorf("contact query %s: %w", id, store.ErrNotFound)
	}
	return &q, nil
}

func (r contactRepo) List(ctx context.Context) ([]models.ContactQuery, error) {
	defer r.s.lock(ctx)()
	out := []models.ContactQuery{}
	r.s.st.contacts.each(true, func(q models.ContactQuery) bool {
		out = append(out, q)
		return true
	})
	return out, nil
}

func (r contactRepo) SetStatus(ctx context.Context, id string, status models.ContactStatus, at time.Time) (*models.ContactQuery, error) {
	defer r.s.lock(ctx)()
	q, ok := r.s.st.contacts.get(id)
	if !ok {
		return nil, fmt.Errorf("contact query %s: %w", id, store.ErrNotFound)
	}
	q.Status = status
	q.UpdatedAt = at
	r.s.st.contacts.put(id, q)
	return &q, nil
}
