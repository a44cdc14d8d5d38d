package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type requestRepo struct{ col *mongo.Collection }

func requestFilter(f models.RequestFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	} else if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if f.RequestType != "" {
		filter["requestType"] = f.RequestType
	}
	if f.ManagedBy != "" {
		filter["managedBy"] = f.ManagedBy
	}
	if f.AssignedVolunteer != "" {
		filter["assignedVolunteer"] = f.AssignedVolunteer
	}
	if len(f.Priorities) > 0 {
		filter["priority"] = bson.M{"$in": f.Priorities}
	}
	return filter
}

func (r requestRepo) Insert(ctx context.Context, req *models.HelpRequest) error {
	if req.ID == "" {
		req.ID = newID()
	}
	if req.AssistanceLog == nil {
		req.AssistanceLog = []models.AssistanceEntry{}
	}
	if _, err := r.col.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

func (r requestRepo) Get(ctx context.Context, id string) (*models.HelpRequest, error) {
	var req models.HelpRequest
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, notFound(err, "request "+id)
	}
	return &req, nil
}

func (r requestRepo) List(ctx context.Context, f models.RequestFilter) ([]models.HelpRequest, error) {
	sortKey := "createdAt"
	if f.ByUpdated {
		sortKey = "updatedAt"
	}
	opts := options.Find().SetSort(bson.D{{Key: sortKey, Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return findAll[models.HelpRequest](ctx, r.col, requestFilter(f), opts)
}

// Apply builds a single update document so the status change and the log
// append land together.
func (r requestRepo) Apply(ctx context.Context, id string, change store.RequestChange, at time.Time) (*models.HelpRequest, error) {
	set := bson.M{"updatedAt": at}
	if change.Status != nil {
		set["status"] = *change.Status
	}
	if change.AssignedVolunteer != nil {
		set["assignedVolunteer"] = *change.AssignedVolunteer
	}
	if change.ManagedBy != nil {
		set["managedBy"] = *change.ManagedBy
	}
	if change.CompletionNotes != nil {
		set["completionNotes"] = *change.CompletionNotes
	}
	update := bson.M{"$set": set}
	if change.AppendAssistance != nil {
		update["$push"] = bson.M{"assistanceLog": *change.AppendAssistance}
	}

	filter := bson.M{"_id": id}
	if change.ExpectStatus != nil {
		filter["status"] = *change.ExpectStatus
	}

	var req models.HelpRequest
	err := r.col.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&req)
	if err == nil {
		return &req, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("updating request %s: %w", id, err)
	}
	if change.ExpectStatus == nil {
		return nil, fmt.Errorf("request %s: %w", id, store.ErrNotFound)
	}
	n, cerr := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if cerr != nil {
		return nil, fmt.Errorf("checking request %s: %w", id, cerr)
	}
	if n == 0 {
		return nil, fmt.Errorf("request %s: %w", id, store.ErrNotFound)
	}
	return nil, fmt.Errorf("request %s changed status: %w", id, store.ErrStale)
}

func (r requestRepo) CountByStatus(ctx context.Context) (map[models.RequestStatus]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$status"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregating request statuses: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.RequestStatus `bson:"_id"`
		Count  int64                `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decoding request statuses: %w", err)
	}
	counts := make(map[models.RequestStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r requestRepo) Count(ctx context.Context, f models.RequestFilter) (int64, error) {
	return r.col.CountDocuments(ctx, requestFilter(f))
}

func (r requestRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": from, "$lt": to}})
}

type userRepo struct{ col *mongo.Collection }

func (r userRepo) Insert(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = newID()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		return duplicate(err, "inserting user "+u.Email)
	}
	return nil
}

func (r userRepo) Get(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFound(err, "user "+id)
	}
	return &u, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&u); err != nil {
		return nil, notFound(err, "user "+email)
	}
	return &u, nil
}

func (r userRepo) List(ctx context.Context) ([]models.User, error) {
	return findAll[models.User](ctx, r.col, bson.M{}, newestFirst)
}

func (r userRepo) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	return findAll[models.User](ctx, r.col, bson.M{"role": role})
}

func (r userRepo) set(ctx context.Context, id string, fields bson.M) (*models.User, error) {
	fields["updatedAt"] = time.Now().UTC()
	var u models.User
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	if err != nil {
		return nil, notFound(err, "user "+id)
	}
	return &u, nil
}

func (r userRepo) SetActive(ctx context.Context, id string, active bool) (*models.User, error) {
	return r.set(ctx, id, bson.M{"isActive": active})
}

func (r userRepo) SetLocation(ctx context.Context, id string, loc models.GeoPoint) (*models.User, error) {
	return r.set(ctx, id, bson.M{"currentLocation": loc})
}

func (r userRepo) CountByRole(ctx context.Context, role models.Role, excludeID string) (int64, error) {
	filter := bson.M{"role": role}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	return r.col.CountDocuments(ctx, filter)
}

func (r requestRepo) SumPeople(ctx context.Context, f models.RequestFilter) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: requestFilter(f)}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: nil}, {Key: "total", Value: bson.D{{Key: "$sum", Value: "$people"}}}}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("summing people: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("decoding people total: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
