// Package store declares the persistence contract shared by the MongoDB and
// in-memory backends.
package store

import (
	"context"
	"errors"
	"time"

	"disaster-relief-api-server/internal/models"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrDuplicate         = errors.New("duplicate key")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStale means a conditional update matched nothing because the
	// document moved on (e.g. a replenishment request is no longer Pending).
	ErrStale = errors.New("document changed concurrently")
)

// Store groups the repositories and the transaction boundary.
type Store interface {
	Warehouse() WarehouseRepository
	NgoResources() NgoResourceRepository
	Replenishments() ReplenishmentRepository
	Requests() RequestRepository
	Users() UserRepository
	Sequences() SequenceRepository
	Contacts() ContactRepository

	// WithTransaction runs fn as one atomic unit. Repository calls made with
	// the ctx passed to fn take part in the transaction; if fn returns an
	// error nothing it wrote is kept. fn may be retried, so it must not have
	// side effects outside the store.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	Close(ctx context.Context) error
}

type WarehouseRepository interface {
	List(ctx context.Context) ([]models.WarehouseItem, error)
	Get(ctx context.Context, id string) (*models.WarehouseItem, error)
	GetByNameKey(ctx context.Context, nameKey string) (*models.WarehouseItem, error)
	Insert(ctx context.Context, item *models.WarehouseItem) error
	Update(ctx context.Context, item *models.WarehouseItem) error
	Delete(ctx context.Context, id string) error
	// Withdraw decrements totalQuantity by qty only if at least qty is on hand.
	// Returns ErrNotFound or ErrInsufficientStock otherwise.
	Withdraw(ctx context.Context, id string, qty int) (*models.WarehouseItem, error)
	// IDs lists every item code, for sequence recovery.
	IDs(ctx context.Context) ([]string, error)
}

type NgoResourceRepository interface {
	Get(ctx context.Context, id string) (*models.NgoResource, error)
	ListByOwner(ctx context.Context, ngoID string) ([]models.NgoResource, error)
	ListAll(ctx context.Context) ([]models.NgoResource, error)
	// Credit adds qty to the (tmpl.ManagedBy, tmpl.CentralResourceID) record,
	// creating it from tmpl when absent. created reports which happened.
	Credit(ctx context.Context, tmpl models.NgoResource, qty int) (rec *models.NgoResource, created bool, err error)
	// AddQuantity increments an existing record; ErrNotFound if it is gone.
	AddQuantity(ctx context.Context, id string, qty int) (*models.NgoResource, error)
	Update(ctx context.Context, rec *models.NgoResource) error
	Delete(ctx context.Context, id string) error
	CountByOwnerAndStatus(ctx context.Context, ngoID string, status models.ResourceStatus) (int64, error)
	CountByCentralResource(ctx context.Context, centralResourceID string) (int64, error)
}

type ReplenishmentRepository interface {
	Insert(ctx context.Context, req *models.ReplenishmentRequest) error
	Get(ctx context.Context, id string) (*models.ReplenishmentRequest, error)
	// List filters by status when non-empty and by ngoID when non-empty, newest first.
	List(ctx context.Context, status models.ReplenishmentStatus, ngoID string) ([]models.ReplenishmentRequest, error)
	// Resolve moves a Pending request to status; ErrStale when it is not Pending.
	Resolve(ctx context.Context, id string, status models.ReplenishmentStatus, by string, at time.Time) (*models.ReplenishmentRequest, error)
	CountPendingForCentralResource(ctx context.Context, centralResourceID string) (int64, error)
}

// RequestChange is a partial update of a help request; nil fields are left alone.
type RequestChange struct {
	Status            *models.RequestStatus
	AssignedVolunteer *string
	ManagedBy         *string
	CompletionNotes   *string
	AppendAssistance  *models.AssistanceEntry
	// ExpectStatus makes the update conditional on the current status.
	ExpectStatus *models.RequestStatus
}

type RequestRepository interface {
	Insert(ctx context.Context, req *models.HelpRequest) error
	Get(ctx context.Context, id string) (*models.HelpRequest, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.HelpRequest, error)
	// Apply performs change atomically and returns the updated document.
	// ErrStale when ExpectStatus no longer matches.
	Apply(ctx context.Context, id string, change RequestChange, at time.Time) (*models.HelpRequest, error)
	CountByStatus(ctx context.Context) (map[models.RequestStatus]int64, error)
	Count(ctx context.Context, filter models.RequestFilter) (int64, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
	// SumPeople totals the people field over the matching requests.
	SumPeople(ctx context.Context, filter models.RequestFilter) (int64, error)
}

type UserRepository interface {
	Insert(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
	SetActive(ctx context.Context, id string, active bool) (*models.User, error)
	SetLocation(ctx context.Context, id string, loc models.GeoPoint) (*models.User, error)
	CountByRole(ctx context.Context, role models.Role, excludeID string) (int64, error)
}

// SequenceRepository hands out monotonically increasing numbers per name.
type SequenceRepository interface {
	Next(ctx context.Context, name string) (int64, error)
	// AdvanceTo raises the sequence to at least value; it never lowers it.
	AdvanceTo(ctx context.Context, name string, value int64) error
}

type ContactRepository interface {
	Insert(ctx context.Context, q *models.ContactQuery) error
	Get(ctx context.Context, id string) (*models.ContactQuery, error)
	// List returns every query, newest first.
	List(ctx context.Context) ([]models.ContactQuery, error)
	SetStatus(ctx context.Context, id string, status models.ContactStatus, at time.Time) (*models.ContactQuery, error)
}
