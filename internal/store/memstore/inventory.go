package memstore

import (
	"context"
	"fmt"
	"time"

	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/store"
)

type warehouseRepo struct{ s *Store }

func (r warehouseRepo) List(ctx context.Context) ([]models.WarehouseItem, error) {
	defer r.s.lock(ctx)()
	items := []models.WarehouseItem{}
	r.s.st.warehouse.each(false, func(it models.WarehouseItem) bool {
		items = append(items, it)
		return true
	})
	return items, nil
}

func (r warehouseRepo) Get(ctx context.Context, id string) (*models.WarehouseItem, error) {
	defer r.s.lock(ctx)()
	it, ok := r.s.st.warehouse.get(id)
	if !ok {
		return nil, fmt.Errorf("warehouse item %s: %w", id, store.ErrNotFound)
	}
	return &it, nil
}

func (r warehouseRepo) GetByNameKey(ctx context.Context, nameKey string) (*models.WarehouseItem, error) {
	defer r.s.lock(ctx)()
	var found *models.WarehouseItem
	r.s.st.warehouse.each(false, func(it models.WarehouseItem) bool {
		if it.NameKey == nameKey {
			found = &it
			return false
		}
		return true
	})
	if found == nil {
		return nil, fmt.Errorf("warehouse item named %q: %w", nameKey, store.ErrNotFound)
	}
	return found, nil
}

func (r warehouseRepo) nameTaken(nameKey, exceptID string) bool {
	taken := false
	r.s.st.warehouse.each(false, func(it models.WarehouseItem) bool {
		if it.NameKey == nameKey && it.ID != exceptID {
			taken = true
			return false
		}
		return true
	})
	return taken
}

func (r warehouseRepo) Insert(ctx context.Context, item *models.WarehouseItem) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.st.warehouse.get(item.ID); ok {
		return fmt.Errorf("warehouse item %s: %w", item.ID, store.ErrDuplicate)
	}
	if r.nameTaken(item.NameKey, "") {
		return fmt.Errorf("warehouse item named %q: %w", item.ResourceName, store.ErrDuplicate)
	}
	r.s.st.warehouse.put(item.ID, *item)
	return nil
}

func (r warehouseRepo) Update(ctx context.Context, item *models.WarehouseItem) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.st.warehouse.get(item.ID); !ok {
		return fmt.Errorf("warehouse item %s: %w", item.ID, store.ErrNotFound)
	}
	if r.nameTaken(item.NameKey, item.ID) {
		return fmt.Errorf("warehouse item named %q: %w", item.ResourceName, store.ErrDuplicate)
	}
	r.s.st.warehouse.put(item.ID, *item)
	return nil
}

func (r warehouseRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	if !r.s.st.warehouse.del(id) {
		return fmt.Errorf("warehouse item %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r warehouseRepo) Withdraw(ctx context.Context, id string, qty int) (*models.WarehouseItem, error) {
	defer r.s.lock(ctx)()
	it, ok := r.s.st.warehouse.get(id)
	if !ok {
		return nil, fmt.Errorf("warehouse item %s: %w", id, store.ErrNotFound)
	}
	if it.TotalQuantity < qty {
		return nil, fmt.Errorf("warehouse item %s has %d, need %d: %w", id, it.TotalQuantity, qty, store.ErrInsufficientStock)
	}
	now := time.Now().UTC()
	it.TotalQuantity -= qty
	it.LastUpdated = now
	it.UpdatedAt = now
	r.s.st.warehouse.put(id, it)
	return &it, nil
}

func (r warehouseRepo) IDs(ctx context.Context) ([]string, error) {
	defer r.s.lock(ctx)()
	return append([]string(nil), r.s.st.warehouse.order...), nil
}

type ngoResourceRepo struct{ s *Store }

func (r ngoResourceRepo) Get(ctx context.Context, id string) (*models.NgoResource, error) {
	defer r.s.lock(ctx)()
	rec, ok := r.s.st.ngoResources.get(id)
	if !ok {
		return nil, fmt.Errorf("ngo resource %s: %w", id, store.ErrNotFound)
	}
	return &rec, nil
}

func (r ngoResourceRepo) filter(newestFirst bool, keep func(models.NgoResource) bool) []models.NgoResource {
	out := []models.NgoResource{}
	r.s.st.ngoResources.each(newestFirst, func(rec models.NgoResource) bool {
		if keep(rec) {
			out = append(out, rec)
		}
		return true
	})
	return out
}

func (r ngoResourceRepo) ListByOwner(ctx context.Context, ngoID string) ([]models.NgoResource, error) {
	defer r.s.lock(ctx)()
	return r.filter(true, func(rec models.NgoResource) bool { return rec.ManagedBy == ngoID }), nil
}

func (r ngoResourceRepo) ListAll(ctx context.Context) ([]models.NgoResource, error) {
	defer r.s.lock(ctx)()
	return r.filter(true, func(models.NgoResource) bool { return true }), nil
}

func (r ngoResourceRepo) Credit(ctx context.Context, tmpl models.NgoResource, qty int) (*models.NgoResource, bool, error) {
	defer r.s.lock(ctx)()
	now := time.Now().UTC()
	existing := r.filter(false, func(rec models.NgoResource) bool {
		return rec.ManagedBy == tmpl.ManagedBy && rec.CentralResourceID == tmpl.CentralResourceID
	})
	if len(existing) > 0 {
		rec := existing[0]
		rec.Quantity += qty
		rec.UpdatedAt = now
		r.s.st.ngoResources.put(rec.ID, rec)
		return &rec, false, nil
	}
	rec := tmpl
	if rec.ID == "" {
		rec.ID = newID()
	}
	rec.Quantity = qty
	rec.CreatedAt = now
	rec.UpdatedAt = now
	r.s.st.ngoResources.put(rec.ID, rec)
	return &rec, true, nil
}

func (r ngoResourceRepo) AddQuantity(ctx context.Context, id string, qty int) (*models.NgoResource, error) {
	defer r.s.lock(ctx)()
	rec, ok := r.s.st.ngoResources.get(id)
	if !ok {
		return nil, fmt.Errorf("ngo resource %s: %w", id, store.ErrNotFound)
	}
	rec.Quantity += qty
	rec.UpdatedAt = time.Now().UTC()
	r.s.st.ngoResources.put(id, rec)
	return &rec, nil
}

func (r ngoResourceRepo) Update(ctx context.Context, rec *models.NgoResource) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.st.ngoResources.get(rec.ID); !ok {
		return fmt.Errorf("ngo resource %s: %w", rec.ID, store.ErrNotFound)
	}
	r.s.st.ngoResources.put(rec.ID, *rec)
	return nil
}

func (r ngoResourceRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	if !r.s.st.ngoResources.del(id) {
		return fmt.Errorf("ngo resource %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r ngoResourceRepo) CountByOwnerAndStatus(ctx context.Context, ngoID string, status models.ResourceStatus) (int64, error) {
	defer r.s.lock(ctx)()
	return int64(len(r.filter(false, func(rec models.NgoResource) bool {
		return rec.ManagedBy == ngoID && rec.Status == status
	}))), nil
}

func (r ngoResourceRepo) CountByCentralResource(ctx context.Context, centralResourceID string) (int64, error) {
	defer r.s.lock(ctx)()
	return int64(len(r.filter(false, func(rec models.NgoResource) bool {
		return rec.CentralResourceID == centralResourceID
	}))), nil
}

type replenishmentRepo struct{ s *Store }

func (r replenishmentRepo) Insert(ctx context.Context, req *models.ReplenishmentRequest) error {
	defer r.s.lock(ctx)()
	if req.ID == "" {
		req.ID = newID()
	}
	r.s.st.replenishments.put(req.ID, *req)
	return nil
}

func (r replenishmentRepo) Get(ctx context.Context, id string) (*models.ReplenishmentRequest, error) {
	defer r.s.lock(ctx)()
	req, ok := r.s.st.replenishments.get(id)
	if !ok {
		return nil, fmt.Errorf("replenishment request %s: %w", id, store.ErrNotFound)
	}
	return &req, nil
}

func (r replenishmentRepo) List(ctx context.Context, status models.ReplenishmentStatus, ngoID string) ([]models.ReplenishmentRequest, error) {
	defer r.s.lock(ctx)()
	out := []models.ReplenishmentRequest{}
	r.s.st.replenishments.each(true, func(req models.ReplenishmentRequest) bool {
		if (status == "" || req.Status == status) && (ngoID == "" || req.NgoID == ngoID) {
			out = append(out, req)
		}
		return true
	})
	return out, nil
}

func (r replenishmentRepo) Resolve(ctx context.Context, id string, status models.ReplenishmentStatus, by string, at time.Time) (*models.ReplenishmentRequest, error) {
	defer r.s.lock(ctx)()
	req, ok := r.s.st.replenishments.get(id)
	if !ok {
		return nil, fmt.Errorf("replenishment request %s: %w", id, store.ErrNotFound)
	}
	if req.Status != models.ReplenishmentPending {
		return nil, fmt.Errorf("replenishment request %s is %s: %w", id, req.Status, store.ErrStale)
	}
	req.Status = status
	req.ResolvedBy = by
	req.ResolvedAt = &at
	req.UpdatedAt = at
	r.s.st.replenishments.put(id, req)
	return &req, nil
}

func (r replenishmentRepo) CountPendingForCentralResource(ctx context.Context, centralResourceID string) (int64, error) {
	defer r.s.lock(ctx)()
	var n int64
	r.s.st.replenishments.each(false, func(req models.ReplenishmentRequest) bool {
		if req.CentralResourceID == centralResourceID && req.Status == models.ReplenishmentPending {
			n++
		}
		return true
	})
	return n, nil
}
