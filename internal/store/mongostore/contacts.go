package mongostore

import (
	"context"
	"fmt"
	"time"

	"disaster-relief-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type contactRepo struct{ col *mongo.Collection }

func (r contactRepo) Insert(ctx context.Context, q *models.ContactQuery) error {
	if q.ID == "" {
		q.ID = newID()
	}
	if _, err := r.col.InsertOne(ctx, q); err != nil {
		return fmt.Errorf("failed to save contact query: %w", err)
	}
	return nil
}

func (r contactRepo) Get(ctx context.Context, id string) (*models.ContactQuery, error) {
	var q models.ContactQuery
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&q); err != nil {
		return nil, notFound(err, "contact query "+id)
	}
	return &q, nil
}

func (r contactRepo) List(ctx context.Context) ([]models.ContactQuery, error) {
	return findAll[models.ContactQuery](ctx, r.col, bson.M{}, newestFirst)
}

func (r contactRepo) SetStatus(ctx context.Context, id string, status models.ContactStatus, at time.Time) (*models.ContactQuery, error) {
	var q models.ContactQuery
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&q)
	if err != nil {
		return nil, notFound(err, "contact query "+id)
	}
	return &q, nil
}
