package inventory

import (
	"context"
	"errors"
	"log"
	"strings"

	"disaster-relief-api-server/internal/apperr"
	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/notify"
	"disaster-relief-api-server/internal/store"
)

// Defaults for a holding created by the first assignment to an NGO.
const (
	DefaultNgoLocation = "NGO Premises"
	DefaultNgoContact  = "N/A"
)

type AssignInput struct {
	CentralResourceID string `json:"centralResourceId"`
	NgoID             string `json:"ngoId"`
	Quantity          int    `json:"quantity"`
}

// AssignToNgo moves quantity from a warehouse item into the NGO's holding of
// it in one transaction. created reports whether the holding is new.
func (s *Service) AssignToNgo(ctx context.Context, in AssignInput) (rec *models.NgoResource, created bool, err error) {
	if in.CentralResourceID == "" || in.NgoID == "" {
		return nil, false, apperr.Validation("centralResourceId and ngoId are required")
	}
	if in.Quantity <= 0 {
		return nil, false, apperr.Validation("Quantity must be a positive number")
	}
	ngo, err := s.store.Users().Get(ctx, in.NgoID)
	if err != nil {
		return nil, false, store.AppError(err, "NGO not found")
	}
	if ngo.Role != models.RoleNGO {
		return nil, false, apperr.InvalidRole("User %s is not an NGO", ngo.Name)
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		item, err := s.store.Warehouse().Withdraw(ctx, in.CentralResourceID, in.Quantity)
		if err != nil {
			return assignErr(err)
		}
		rec, created, err = s.store.NgoResources().Credit(ctx, models.NgoResource{
			Name:              item.ResourceName,
			Category:          item.Category,
			Unit:              item.Unit,
			Location:          DefaultNgoLocation,
			Contact:           DefaultNgoContact,
			ManagedBy:         in.NgoID,
			CentralResourceID: item.ID,
			Status:            models.ResourceAvailable,
		}, in.Quantity)
		if err != nil {
			return apperr.Internal(err, "Could not credit the NGO's inventory")
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	log.Printf("[inventory] assigned %d of %s to NGO %s (created=%t)", in.Quantity, in.CentralResourceID, in.NgoID, created)
	s.pub.Publish(notify.EventInventoryUpdated, rec)
	return rec, created, nil
}

func assignErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return store.AppError(err, "Central Warehouse item not found.")
	}
	return store.AppError(err, "Not enough stock in the central warehouse to assign this quantity.")
}

func (s *Service) ListNgoResources(ctx context.Context, ngoID string) ([]models.NgoResource, error) {
	recs, err := s.store.NgoResources().ListByOwner(ctx, ngoID)
	if err != nil {
		return nil, apperr.Internal(err, "Could not load NGO resources")
	}
	return recs, nil
}

// OwnedResource is an NGO holding with its owner resolved, for the admin view.
type OwnedResource struct {
	models.NgoResource
	Owner *models.UserSummary `json:"owner,omitempty"`
}

func (s *Service) ListAllNgoResources(ctx context.Context) ([]OwnedResource, error) {
	recs, err := s.store.NgoResources().ListAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Could not load resources")
	}
	owners := map[string]*models.UserSummary{}
	out := make([]OwnedResource, 0, len(recs))
	for _, rec := range recs {
		owner, seen := owners[rec.ManagedBy]
		if !seen {
			if u, err := s.store.Users().Get(ctx, rec.ManagedBy); err == nil {
				owner = u.Summary()
			}
			owners[rec.ManagedBy] = owner
		}
		out = append(out, OwnedResource{NgoResource: rec, Owner: owner})
	}
	return out, nil
}

// owned loads a holding and checks that caller manages it.
func (s *Service) owned(ctx context.Context, id, caller, action string) (*models.NgoResource, error) {
	rec, err := s.store.NgoResources().Get(ctx, id)
	if err != nil {
		return nil, store.AppError(err, "Resource not found")
	}
	if rec.ManagedBy != caller {
		return nil, apperr.Forbidden("User not authorized to %s this resource", action)
	}
	return rec, nil
}

// UpdateNgoResource edits the owner's bookkeeping only; the warehouse is
// never touched.
func (s *Service) UpdateNgoResource(ctx context.Context, id, caller string, p models.NgoResourcePatch) (*models.NgoResource, error) {
	if p.Status != nil && !p.Status.Valid() {
		return nil, apperr.Validation("Invalid status: %s", *p.Status)
	}
	if p.Category != nil && !p.Category.Valid() {
		return nil, apperr.Validation("Invalid category: %s", *p.Category)
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		return nil, apperr.Validation("Quantity cannot be negative")
	}

	var updated *models.NgoResource
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.owned(ctx, id, caller, "update")
		if err != nil {
			return err
		}
		setString(&rec.Name, p.Name)
		setString(&rec.Unit, p.Unit)
		setString(&rec.Location, p.Location)
		setString(&rec.Contact, p.Contact)
		if p.Category != nil {
			rec.Category = *p.Category
		}
		if p.Quantity != nil {
			rec.Quantity = *p.Quantity
		}
		if p.Status != nil {
			rec.Status = *p.Status
		}
		rec.UpdatedAt = s.now()
		if err := s.store.NgoResources().Update(ctx, rec); err != nil {
			return store.AppError(err, "Resource not found")
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.pub.Publish(notify.EventInventoryUpdated, updated)
	return updated, nil
}

// setString overwrites dst only with a non-blank value.
func setString(dst *string, v *string) {
	if v != nil && strings.TrimSpace(*v) != "" {
		*dst = strings.TrimSpace(*v)
	}
}

// DeleteNgoResource removes the holding. Its quantity is not returned to the
// warehouse.
func (s *Service) DeleteNgoResource(ctx context.Context, id, caller string) error {
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.owned(ctx, id, caller, "delete"); err != nil {
			return err
		}
		return store.AppError(s.store.NgoResources().Delete(ctx, id), "Resource not found")
	})
	if err != nil {
		return err
	}
	s.pub.Publish(notify.EventInventoryUpdated, map[string]string{"deletedId": id})
	return nil
}

// DeployResult carries the deployed holding and the caller's fresh count.
type DeployResult struct {
	UpdatedResource *models.NgoResource `json:"updatedResource"`
	UpdatedStats    struct {
		ResourcesDeployed int64 `json:"resourcesDeployed"`
	} `json:"updatedStats"`
}

func (s *Service) DeployNgoResource(ctx context.Context, id, caller string) (*DeployResult, error) {
	res := &DeployResult{}
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.owned(ctx, id, caller, "deploy")
		if err != nil {
			return err
		}
		rec.Status = models.ResourceDeployed
		rec.UpdatedAt = s.now()
		if err := s.store.NgoResources().Update(ctx, rec); err != nil {
			return store.AppError(err, "Resource not found")
		}
		res.UpdatedResource = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	n, err := s.store.NgoResources().CountByOwnerAndStatus(ctx, caller, models.ResourceDeployed)
	if err != nil {
		return nil, apperr.Internal(err, "Server error")
	}
	res.UpdatedStats.ResourcesDeployed = n
	s.pub.Publish(notify.EventInventoryUpdated, res.UpdatedResource)
	return res, nil
}
