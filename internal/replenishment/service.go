// Package replenishment lets an NGO ask the warehouse to top up one of its
// holdings and lets an admin settle that request exactly once.
package replenishment

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"disaster-relief-api-server/internal/apperr"
	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/notify"
	"disaster-relief-api-server/internal/store"
)

type Service struct {
	store store.Store
	pub   notify.Publisher
	now   func() time.Time
}

func NewService(st store.Store, pub notify.Publisher) *Service {
	if pub == nil {
		pub = notify.Nop{}
	}
	return &Service{store: st, pub: pub, now: func() time.Time { return time.Now().UTC() }}
}

// CreateInput names the NGO holding to top up. Clients send it as
// resourceId; ngoInventoryRecordId is accepted too. Names are always taken
// from the store, and ngoId, when sent, must be the caller.
type CreateInput struct {
	ResourceID           string `json:"resourceId"`
	NgoInventoryRecordID string `json:"ngoInventoryRecordId"`
	NgoID                string `json:"ngoId"`
	Quantity             int    `json:"quantity"`
}

func (in CreateInput) recordID() string {
	if id := strings.TrimSpace(in.ResourceID); id != "" {
		return id
	}
	return strings.TrimSpace(in.NgoInventoryRecordID)
}

// Create files a Pending request against one of the caller's holdings. The
// warehouse item, names and ids are snapshotted at this point.
func (s *Service) Create(ctx context.Context, caller *models.User, in CreateInput) (*models.ReplenishmentRequest, error) {
	recordID := in.recordID()
	if recordID == "" {
		return nil, apperr.Validation("resourceId is required")
	}
	if in.Quantity <= 0 {
		return nil, apperr.Validation("Quantity must be a positive number")
	}
	rec, err := s.store.NgoResources().Get(ctx, recordID)
	if err != nil {
		return nil, store.AppError(err, "Resource not found")
	}
	if rec.ManagedBy != caller.ID || (in.NgoID != "" && in.NgoID != caller.ID) {
		return nil, apperr.Forbidden("User not authorized to request replenishment for this resource")
	}
	if rec.CentralResourceID == "" {
		return nil, apperr.Validation("Cannot create replenishment request. The resource is not linked to the central warehouse.")
	}

	now := s.now()
	req := &models.ReplenishmentRequest{
		NgoInventoryRecordID: rec.ID,
		CentralResourceID:    rec.CentralResourceID,
		ResourceName:         rec.Name,
		NgoID:                caller.ID,
		NgoName:              caller.Name,
		Quantity:             in.Quantity,
		Status:               models.ReplenishmentPending,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.store.Replenishments().Insert(ctx, req); err != nil {
		return nil, apperr.Internal(err, "Could not create replenishment request")
	}
	log.Printf("[replenishment] %s requested %d of %s (request %s)", caller.Name, req.Quantity, req.CentralResourceID, req.ID)
	s.pub.Publish(notify.EventReplenishmentRequest, req)
	return req, nil
}

// List returns requests in the given status (Pending when empty), newest first.
func (s *Service) List(ctx context.Context, status models.ReplenishmentStatus) ([]models.ReplenishmentRequest, error) {
	if status == "" {
		status = models.ReplenishmentPending
	}
	if !validStatus(status) {
		return nil, apperr.Validation("Invalid status: %s", status)
	}
	reqs, err := s.store.Replenishments().List(ctx, status, "")
	if err != nil {
		return nil, apperr.Internal(err, "Could not load replenishment requests")
	}
	return reqs, nil
}

// ListForNgo returns every request the NGO has filed, any status.
func (s *Service) ListForNgo(ctx context.Context, ngoID string) ([]models.ReplenishmentRequest, error) {
	reqs, err := s.store.Replenishments().List(ctx, "", ngoID)
	if err != nil {
		return nil, apperr.Internal(err, "Could not load replenishment requests")
	}
	return reqs, nil
}

func validStatus(s models.ReplenishmentStatus) bool {
	switch s {
	case models.ReplenishmentPending, models.ReplenishmentApproved, models.ReplenishmentRejected:
		return true
	}
	return false
}

// Resolve approves or rejects a Pending request. Approval moves the stock
// and closes the request in one transaction; if any step fails nothing
// changes. A request that is no longer Pending is a Conflict.
func (s *Service) Resolve(ctx context.Context, id string, status models.ReplenishmentStatus, admin string) (*models.ReplenishmentRequest, error) {
	if status != models.ReplenishmentApproved && status != models.ReplenishmentRejected {
		return nil, apperr.Validation("Status must be Approved or Rejected")
	}

	var resolved *models.ReplenishmentRequest
	var credited *models.NgoResource
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		req, err := s.store.Replenishments().Get(ctx, id)
		if err != nil {
			return store.AppError(err, "Request not found")
		}
		if req.Status != models.ReplenishmentPending {
			return apperr.Conflict("Request has already been %s", strings.ToLower(string(req.Status)))
		}

		if status == models.ReplenishmentApproved {
			// A missing warehouse item is reported as a stock failure.
			if _, err := s.store.Warehouse().Withdraw(ctx, req.CentralResourceID, req.Quantity); err != nil {
				if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInsufficientStock) {
					return apperr.InsufficientStock("Not enough stock in the central warehouse to approve this request.")
				}
				return apperr.Internal(err, "Server error")
			}
			credited, err = s.store.NgoResources().AddQuantity(ctx, req.NgoInventoryRecordID, req.Quantity)
			if err != nil {
				return store.AppError(err, "The requesting NGO's resource could not be found.")
			}
		}

		resolved, err = s.store.Replenishments().Resolve(ctx, id, status, admin, s.now())
		if err != nil {
			return store.AppError(err, "Request has already been resolved")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[replenishment] request %s %s by %s", id, strings.ToLower(string(status)), admin)
	s.pub.Publish(notify.EventReplenishmentResolved, resolved)
	if credited != nil {
		s.pub.Publish(notify.EventInventoryUpdated, credited)
	}
	return resolved, nil
}
