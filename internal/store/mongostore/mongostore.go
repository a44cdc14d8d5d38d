// Package mongostore implements store.Store on MongoDB. Multi-document
// changes use session transactions, so the server must run as a replica set.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"disaster-relief-api-server/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colWarehouse      = "central_warehouse"
	colNgoResources   = "ngo_resources"
	colReplenishments = "replenishment_requests"
	colRequests       = "requests"
	colUsers          = "users"
	colCounters       = "counters"
	colContacts       = "contact_queries"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ store.Store = (*Store)(nil)

// Connect dials MongoDB and pings it before returning.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	log.Printf("[mongo] connected to database %s", dbName)
	return New(client, client.Database(dbName)), nil
}

func New(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{client: client, db: db}
}

// Database exposes the underlying handle for seeding.
func (s *Store) Database() *mongo.Database { return s.db }

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Already inside a session: join it.
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *Store) Warehouse() store.WarehouseRepository {
	return warehouseRepo{s.db.Collection(colWarehouse)}
}

func (s *Store) NgoResources() store.NgoResourceRepository {
	return ngoResourceRepo{s.db.Collection(colNgoResources)}
}

func (s *Store) Replenishments() store.ReplenishmentRepository {
	return replenishmentRepo{s.db.Collection(colReplenishments)}
}

func (s *Store) Requests() store.RequestRepository {
	return requestRepo{s.db.Collection(colRequests)}
}

func (s *Store) Users() store.UserRepository {
	return userRepo{s.db.Collection(colUsers)}
}

func (s *Store) Contacts() store.ContactRepository {
	return contactRepo{s.db.Collection(colContacts)}
}

func (s *Store) Sequences() store.SequenceRepository {
	return sequenceRepo{s.db.Collection(colCounters)}
}

// EnsureIndexes creates the indexes the invariants rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		colWarehouse: {
			{Keys: bson.D{{Key: "resourceNameKey", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colNgoResources: {
			{Keys: bson.D{{Key: "managedBy", Value: 1}, {Key: "centralResourceId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "managedBy", Value: 1}, {Key: "status", Value: 1}}},
		},
		colReplenishments: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "centralResourceId", Value: 1}, {Key: "status", Value: 1}}},
		},
		colRequests: {
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "managedBy", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "updatedAt", Value: -1}}},
		},
		colContacts: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for col, models := range specs {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("creating indexes on %s: %w", col, err)
		}
	}
	return nil
}

func newID() string { return primitive.NewObjectID().Hex() }

// notFound converts the driver's no-documents error into store.ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func duplicate(err error, what string) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", what, store.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", col.Name(), err)
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", col.Name(), err)
	}
	return out, nil
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

type sequenceRepo struct{ col *mongo.Collection }

func (r sequenceRepo) Next(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Value int64 `bson:"value"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"value": 1}}, opts).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("advancing sequence %s: %w", name, err)
	}
	return doc.Value, nil
}

func (r sequenceRepo) AdvanceTo(ctx context.Context, name string, value int64) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": name}, bson.M{"$max": bson.M{"value": value}}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("raising sequence %s: %w", name, err)
	}
	return nil
}
