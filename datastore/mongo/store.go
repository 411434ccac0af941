package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vikiai/newsletter/datastore"
	"github.com/vikiai/newsletter/models"
)

type document struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Email     string             `bson:"email"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *document) toModel() *models.Subscriber {
	return &models.Subscriber{
		ID:        d.ID.Hex(),
		Email:     d.Email,
		CreatedAt: d.CreatedAt,
	}
}

type store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Open connects to MongoDB at uri, pings it and makes sure the unique email
// index exists on database.collection.
func Open(ctx context.Context, uri, database, collection string, timeout time.Duration) (datastore.SubscriberStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	if err := EnsureIndexes(connectCtx, coll); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &store{client: client, collection: coll}, nil
}

// New wraps an existing collection. Close does not disconnect the client.
func New(coll *mongo.Collection) datastore.SubscriberStore {
	return &store{collection: coll}
}

// EnsureIndexes creates the unique index on email.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	mod := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := coll.Indexes().CreateOne(ctx, mod); err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

// FindByEmail implements datastore.SubscriberStore.FindByEmail
func (s *store) FindByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	var doc document
	err := s.collection.FindOne(ctx, bson.M{"email": datastore.NormalizeEmail(email)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, datastore.ErrSubscriberNotFound
		}
		return nil, datastore.Unavailable("find subscriber", err)
	}
	return doc.toModel(), nil
}

// Insert implements datastore.SubscriberStore.Insert
func (s *store) Insert(ctx context.Context, email string) (*models.Subscriber, error) {
	doc := document{
		ID:        primitive.NewObjectID(),
		Email:     datastore.NormalizeEmail(email),
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond), // BSON dates carry millisecond precision
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, datastore.ErrSubscriberExists
		}
		return nil, datastore.Unavailable("insert subscriber", err)
	}
	return doc.toModel(), nil
}

// DeleteByEmail implements datastore.SubscriberStore.DeleteByEmail
func (s *store) DeleteByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	var doc document
	err := s.collection.FindOneAndDelete(ctx, bson.M{"email": datastore.NormalizeEmail(email)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, datastore.ErrSubscriberNotFound
		}
		return nil, datastore.Unavailable("delete subscriber", err)
	}
	return doc.toModel(), nil
}

// Count implements datastore.SubscriberStore.Count
func (s *store) Count(ctx context.Context) (int64, error) {
	n, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, datastore.Unavailable("count subscribers", err)
	}
	return n, nil
}

func (s *store) Ping(ctx context.Context) error {
	return datastore.Unavailable("ping mongodb", s.collection.Database().Client().Ping(ctx, nil))
}

func (s *store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
