package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection names.
const (
	UsersCollection         = "users"
	VerificationsCollection = "user_verifications"
	RoomsCollection         = "rooms"
	EnquiriesCollection     = "enquiries"
)

const connectTimeout = 15 * time.Second

// Store is the MongoDB-backed store.
type Store struct {
	users         *mongo.Collection
	verifications *mongo.Collection
	rooms         *mongo.Collection
	enquiries     *mongo.Collection
	now           func() time.Time
}

// Connect dials uri, pings the primary and returns the named database.
// The caller owns the returned client and must Disconnect it.
func Connect(ctx context.Context, uri, dbName string, logger *zap.Logger) (*mongo.Client, *mongo.Database, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		logger.Error("mongodb connect failed", zap.Error(err))
		return nil, nil, fmt.Errorf("mongostore: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error("mongodb ping failed", zap.Error(err))
		return nil, nil, fmt.Errorf("mongostore: ping: %w", err)
	}

	logger.Info("mongodb connected", zap.String("database", dbName))
	return client, client.Database(dbName), nil
}

// New returns a Store over db. Call EnsureIndexes once at startup.
func New(db *mongo.Database) *Store {
	return &Store{
		users:         db.Collection(UsersCollection),
		verifications: db.Collection(VerificationsCollection),
		rooms:         db.Collection(RoomsCollection),
		enquiries:     db.Collection(EnquiriesCollection),
		now:           time.Now,
	}
}

// EnsureIndexes creates the unique and lookup indexes the store relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := []struct {
		col    *mongo.Collection
		models []mongo.IndexModel
	}{
		{s.users, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{s.verifications, []mongo.IndexModel{
			{Keys: bson.D{{Key: "account_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{s.rooms, []mongo.IndexModel{
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		}},
		{s.enquiries, []mongo.IndexModel{
			{Keys: bson.D{{Key: "customer_email", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "room_id", Value: 1}}},
		}},
	}
	for _, spec := range specs {
		if _, err := spec.col.Indexes().CreateMany(ctx, spec.models); err != nil {
			return fmt.Errorf("mongostore: create indexes on %s: %w", spec.col.Name(), err)
		}
	}
	return nil
}

func objectID(hex string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
