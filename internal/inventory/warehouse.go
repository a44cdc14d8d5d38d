// Package inventory owns the central warehouse and the NGO holdings drawn
// from it. Quantity only moves between the two; it is never created or lost
// by a transfer.
package inventory

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"disaster-relief-api-server/internal/apperr"
	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/notify"
	"disaster-relief-api-server/internal/store"
)

const (
	warehouseSequence = "warehouseItemId"
	warehousePrefix   = "RES"
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

// NameKey is the case-insensitive identity of a warehouse item name.
func NameKey(name string) string {
	return models.FoldName(name)
}

// FormatWarehouseID renders RES001..RES999, widening past that.
func FormatWarehouseID(n int64) string {
	return fmt.Sprintf("%s%03d", warehousePrefix, n)
}

func parseWarehouseID(id string) (int64, bool) {
	if !strings.HasPrefix(id, warehousePrefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(id, warehousePrefix), 10, 64)
	return n, err == nil && n > 0
}

// NextWarehouseID allocates a fresh item code. It runs outside any
// transaction, so an aborted insert simply leaves a gap.
func (s *Service) NextWarehouseID(ctx context.Context) (string, error) {
	n, err := s.store.Sequences().Next(ctx, warehouseSequence)
	if err != nil {
		return "", apperr.Internal(err, "Could not allocate a warehouse item id")
	}
	return FormatWarehouseID(n), nil
}

// SyncWarehouseSequence raises the id counter past every existing code.
func (s *Service) SyncWarehouseSequence(ctx context.Context) error {
	ids, err := s.store.Warehouse().IDs(ctx)
	if err != nil {
		return err
	}
	var highest int64
	for _, id := range ids {
		if n, ok := parseWarehouseID(id); ok && n > highest {
			highest = n
		}
	}
	if err := s.store.Sequences().AdvanceTo(ctx, warehouseSequence, highest); err != nil {
		return err
	}
	log.Printf("[inventory] warehouse id sequence at %d", highest)
	return nil
}

func (s *Service) ListWarehouse(ctx context.Context) ([]models.WarehouseItem, error) {
	items, err := s.store.Warehouse().List(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Could not load warehouse inventory")
	}
	return items, nil
}

func (s *Service) GetWarehouseItem(ctx context.Context, id string) (*models.WarehouseItem, error) {
	item, err := s.store.Warehouse().Get(ctx, id)
	return item, store.AppError(err, "Warehouse item not found")
}

type WarehouseInput struct {
	ResourceName  string          `json:"resourceName"`
	Category      models.Category `json:"category"`
	TotalQuantity *int            `json:"totalQuantity"`
	Unit          string          `json:"unit"`
	Location      string          `json:"location"`
}

func (in WarehouseInput) validate() error {
	missing := map[string]string{}
	if strings.TrimSpace(in.ResourceName) == "" {
		missing["resourceName"] = "Resource name is required"
	}
	if in.Category == "" {
		missing["category"] = "Category is required"
	}
	if in.TotalQuantity == nil {
		missing["totalQuantity"] = "Total quantity is required"
	}
	if strings.TrimSpace(in.Unit) == "" {
		missing["unit"] = "Unit is required"
	}
	if strings.TrimSpace(in.Location) == "" {
		missing["location"] = "Location is required"
	}
	if len(missing) > 0 {
		return apperr.ValidationFields(missing)
	}
	if !in.Category.Valid() {
		return apperr.Validation("Invalid category: %s", in.Category)
	}
	if *in.TotalQuantity < 0 {
		return apperr.Validation("Total quantity cannot be negative")
	}
	return nil
}

func (s *Service) AddWarehouseItem(ctx context.Context, in WarehouseInput) (*models.WarehouseItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	key := NameKey(in.ResourceName)
	if _, err := s.store.Warehouse().GetByNameKey(ctx, key); err == nil {
		return nil, apperr.Conflict("Resource with this name already exists in the warehouse.")
	}

	id, err := s.NextWarehouseID(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	item := &models.WarehouseItem{
		ID:            id,
		ResourceName:  strings.TrimSpace(in.ResourceName),
		NameKey:       key,
		Category:      in.Category,
		TotalQuantity: *in.TotalQuantity,
		Unit:          strings.TrimSpace(in.Unit),
		Location:      strings.TrimSpace(in.Location),
		LastUpdated:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Warehouse().Insert(ctx, item); err != nil {
		return nil, store.AppError(err, "Resource with this name already exists in the warehouse.")
	}
	log.Printf("[inventory] warehouse item %s (%s) added with %d %s", item.ID, item.ResourceName, item.TotalQuantity, item.Unit)
	s.pub.Publish(notify.EventInventoryUpdated, item)
	return item, nil
}

// WarehousePatch holds the admin-editable fields; nil keeps the current value.
type WarehousePatch struct {
	ResourceName  *string          `json:"resourceName"`
	Category      *models.Category `json:"category"`
	TotalQuantity *int             `json:"totalQuantity"`
	Unit          *string          `json:"unit"`
	Location      *string          `json:"location"`
}

func (s *Service) UpdateWarehouseItem(ctx context.Context, id string, p WarehousePatch) (*models.WarehouseItem, error) {
	if p.Category != nil && !p.Category.Valid() {
		return nil, apperr.Validation("Invalid category: %s", *p.Category)
	}
	if p.TotalQuantity != nil && *p.TotalQuantity < 0 {
		return nil, apperr.Validation("Total quantity cannot be negative")
	}

	var updated *models.WarehouseItem
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		item, err := s.store.Warehouse().Get(ctx, id)
		if err != nil {
			return store.AppError(err, "Warehouse item not found")
		}
		if p.ResourceName != nil && strings.TrimSpace(*p.ResourceName) != "" {
			key := NameKey(*p.ResourceName)
			if other, err := s.store.Warehouse().GetByNameKey(ctx, key); err == nil && other.ID != id {
				return apperr.Conflict("Resource with this name already exists in the warehouse.")
			}
			item.ResourceName = strings.TrimSpace(*p.ResourceName)
			item.NameKey = key
		}
		if p.Category != nil {
			item.Category = *p.Category
		}
		if p.TotalQuantity != nil {
			item.TotalQuantity = *p.TotalQuantity
		}
		if p.Unit != nil && strings.TrimSpace(*p.Unit) != "" {
			item.Unit = strings.TrimSpace(*p.Unit)
		}
		if p.Location != nil && strings.TrimSpace(*p.Location) != "" {
			item.Location = strings.TrimSpace(*p.Location)
		}
		now := s.now()
		item.LastUpdated = now
		item.UpdatedAt = now
		if err := s.store.Warehouse().Update(ctx, item); err != nil {
			return store.AppError(err, "Resource with this name already exists in the warehouse.")
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.pub.Publish(notify.EventInventoryUpdated, updated)
	return updated, nil
}

// DeleteWarehouseItem refuses while any NGO holding or pending replenishment
// still points at the item.
func (s *Service) DeleteWarehouseItem(ctx context.Context, id string) error {
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.store.Warehouse().Get(ctx, id); err != nil {
			return store.AppError(err, "Warehouse item not found")
		}
		holders, err := s.store.NgoResources().CountByCentralResource(ctx, id)
		if err != nil {
			return apperr.Internal(err, "Server error")
		}
		pending, err := s.store.Replenishments().CountPendingForCentralResource(ctx, id)
		if err != nil {
			return apperr.Internal(err, "Server error")
		}
		if holders > 0 || pending > 0 {
			return apperr.Conflict("Warehouse item is still referenced by %d NGO resource(s) and %d pending replenishment request(s)", holders, pending)
		}
		return store.AppError(s.store.Warehouse().Delete(ctx, id), "Warehouse item not found")
	})
	if err != nil {
		return err
	}
	log.Printf("[inventory] warehouse item %s removed", id)
	s.pub.Publish(notify.EventInventoryUpdated, map[string]string{"deletedId": id})
	return nil
}
