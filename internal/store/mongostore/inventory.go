package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type warehouseRepo struct{ col *mongo.Collection }

func (r warehouseRepo) List(ctx context.Context) ([]models.WarehouseItem, error) {
	return findAll[models.WarehouseItem](ctx, r.col, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r warehouseRepo) Get(ctx context.Context, id string) (*models.WarehouseItem, error) {
	var item models.WarehouseItem
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		return nil, notFound(err, "warehouse item "+id)
	}
	return &item, nil
}

func (r warehouseRepo) GetByNameKey(ctx context.Context, nameKey string) (*models.WarehouseItem, error) {
	var item models.WarehouseItem
	if err := r.col.FindOne(ctx, bson.M{"resourceNameKey": nameKey}).Decode(&item); err != nil {
		return nil, notFound(err, "warehouse item named "+nameKey)
	}
	return &item, nil
}

func (r warehouseRepo) Insert(ctx context.Context, item *models.WarehouseItem) error {
	if _, err := r.col.InsertOne(ctx, item); err != nil {
		return duplicate(err, "inserting warehouse item "+item.ID)
	}
	return nil
}

func (r warehouseRepo) Update(ctx context.Context, item *models.WarehouseItem) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": item.ID}, item)
	if err != nil {
		return duplicate(err, "updating warehouse item "+item.ID)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("warehouse item %s: %w", item.ID, store.ErrNotFound)
	}
	return nil
}

func (r warehouseRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("deleting warehouse item %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("warehouse item %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// Withdraw is a conditional decrement: the filter only matches while enough
// stock is on hand, so two concurrent withdrawals cannot both pass a stale check.
func (r warehouseRepo) Withdraw(ctx context.Context, id string, qty int) (*models.WarehouseItem, error) {
	now := time.Now().UTC()
	filter := bson.M{"_id": id, "totalQuantity": bson.M{"$gte": qty}}
	update := bson.M{
		"$inc": bson.M{"totalQuantity": -qty},
		"$set": bson.M{"lastUpdated": now, "updatedAt": now},
	}
	var item models.WarehouseItem
	err := r.col.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&item)
	if err == nil {
		return &item, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("withdrawing from warehouse item %s: %w", id, err)
	}
	n, cerr := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if cerr != nil {
		return nil, fmt.Errorf("checking warehouse item %s: %w", id, cerr)
	}
	if n == 0 {
		return nil, fmt.Errorf("warehouse item %s: %w", id, store.ErrNotFound)
	}
	return nil, fmt.Errorf("warehouse item %s short of %d: %w", id, qty, store.ErrInsufficientStock)
}

func (r warehouseRepo) IDs(ctx context.Context) ([]string, error) {
	docs, err := findAll[struct {
		ID string `bson:"_id"`
	}](ctx, r.col, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

type ngoResourceRepo struct{ col *mongo.Collection }

func (r ngoResourceRepo) Get(ctx context.Context, id string) (*models.NgoResource, error) {
	var rec models.NgoResource
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		return nil, notFound(err, "ngo resource "+id)
	}
	return &rec, nil
}

func (r ngoResourceRepo) ListByOwner(ctx context.Context, ngoID string) ([]models.NgoResource, error) {
	return findAll[models.NgoResource](ctx, r.col, bson.M{"managedBy": ngoID}, newestFirst)
}

func (r ngoResourceRepo) ListAll(ctx context.Context) ([]models.NgoResource, error) {
	return findAll[models.NgoResource](ctx, r.col, bson.M{}, newestFirst)
}

// Credit upserts on the (managedBy, centralResourceId) pair. The unique index
// on that pair turns a racing first insert into a duplicate-key error, which
// is retried as a plain increment.
func (r ngoResourceRepo) Credit(ctx context.Context, tmpl models.NgoResource, qty int) (*models.NgoResource, bool, error) {
	now := time.Now().UTC()
	filter := bson.M{"managedBy": tmpl.ManagedBy, "centralResourceId": tmpl.CentralResourceID}
	update := bson.M{
		"$inc": bson.M{"quantity": qty},
		"$set": bson.M{"updatedAt": now},
		"$setOnInsert": bson.M{
			"_id":       newID(),
			"name":      tmpl.Name,
			"category":  tmpl.Category,
			"unit":      tmpl.Unit,
			"location":  tmpl.Location,
			"contact":   tmpl.Contact,
			"status":    tmpl.Status,
			"createdAt": now,
		},
	}

	// Two first-time credits racing on the unique (managedBy, centralResourceId)
	// index end in a write conflict for one transaction. The error keeps its
	// labels so session.WithTransaction replays the whole unit, and the replay
	// finds the record.
	res, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return nil, false, fmt.Errorf("crediting ngo resource: %w", err)
	}

	var rec models.NgoResource
	if err := r.col.FindOne(ctx, filter).Decode(&rec); err != nil {
		return nil, false, notFound(err, "credited ngo resource")
	}
	return &rec, res.UpsertedCount > 0, nil
}

func (r ngoResourceRepo) AddQuantity(ctx context.Context, id string, qty int) (*models.NgoResource, error) {
	update := bson.M{"$inc": bson.M{"quantity": qty}, "$set": bson.M{"updatedAt": time.Now().UTC()}}
	var rec models.NgoResource
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&rec)
	if err != nil {
		return nil, notFound(err, "ngo resource "+id)
	}
	return &rec, nil
}

func (r ngoResourceRepo) Update(ctx context.Context, rec *models.NgoResource) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec)
	if err != nil {
		return fmt.Errorf("updating ngo resource %s: %w", rec.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("ngo resource %s: %w", rec.ID, store.ErrNotFound)
	}
	return nil
}

func (r ngoResourceRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("deleting ngo resource %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("ngo resource %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r ngoResourceRepo) CountByOwnerAndStatus(ctx context.Context, ngoID string, status models.ResourceStatus) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"managedBy": ngoID, "status": status})
}

func (r ngoResourceRepo) CountByCentralResource(ctx context.Context, centralResourceID string) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"centralResourceId": centralResourceID})
}

type replenishmentRepo struct{ col *mongo.Collection }

func (r replenishmentRepo) Insert(ctx context.Context, req *models.ReplenishmentRequest) error {
	if req.ID == "" {
		req.ID = newID()
	}
	if _, err := r.col.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("failed to create replenishment request: %w", err)
	}
	return nil
}

func (r replenishmentRepo) Get(ctx context.Context, id string) (*models.ReplenishmentRequest, error) {
	var req models.ReplenishmentRequest
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, notFound(err, "replenishment request "+id)
	}
	return &req, nil
}

func (r replenishmentRepo) List(ctx context.Context, status models.ReplenishmentStatus, ngoID string) ([]models.ReplenishmentRequest, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	if ngoID != "" {
		filter["ngoId"] = ngoID
	}
	return findAll[models.ReplenishmentRequest](ctx, r.col, filter, newestFirst)
}

// Resolve only matches Pending requests, so a request is closed at most once.
func (r replenishmentRepo) Resolve(ctx context.Context, id string, status models.ReplenishmentStatus, by string, at time.Time) (*models.ReplenishmentRequest, error) {
	filter := bson.M{"_id": id, "status": models.ReplenishmentPending}
	update := bson.M{"$set": bson.M{"status": status, "resolvedBy": by, "resolvedAt": at, "updatedAt": at}}
	var req models.ReplenishmentRequest
	err := r.col.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&req)
	if err == nil {
		return &req, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("resolving replenishment request %s: %w", id, err)
	}
	n, cerr := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if cerr != nil {
		return nil, fmt.Errorf("checking replenishment request %s: %w", id, cerr)
	}
	if n == 0 {
		return nil, fmt.Errorf("replenishment request %s: %w", id, store.ErrNotFound)
	}
	return nil, fmt.Errorf("replenishment request %s already resolved: %w", id, store.ErrStale)
}

func (r replenishmentRepo) CountPendingForCentralResource(ctx context.Context, centralResourceID string) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"centralResourceId": centralResourceID, "status": models.ReplenishmentPending})
}
