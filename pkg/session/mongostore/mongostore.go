// Package mongostore implements session.Store on a MongoDB collection.
// Each record is one document keyed by the session id; a TTL index on
// expires_at lets the server sweep expired documents.
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/sessionguard/pkg/session"
)

// DefaultCollection holds the session documents.
const DefaultCollection = "sessions"

// ErrStoreFailed wraps driver failures.
var ErrStoreFailed = errors.New("session.store_failed")

// Config holds store settings.
type Config struct {
	Collection string `env:"SESSION_MONGO_COLLECTION" envDefault:"sessions"`
}

type document struct {
	ID        string     `bson:"_id"`
	Data      string     `bson:"data"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

// Store is a MongoDB backed session.Store.
type Store struct {
	coll *mongo.Collection
	now  func() time.Time
}

// New creates a store on coll. Call EnsureIndexes once at startup.
func New(coll *mongo.Collection) *Store {
	return &Store{
		coll: coll,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// NewFromConfig creates a store on cfg.Collection of db.
func NewFromConfig(db *mongo.Database, cfg Config) *Store {
	name := cfg.Collection
	if name == "" {
		name = DefaultCollection
	}
	return New(db.Collection(name))
}

// EnsureIndexes creates the TTL index on expires_at. The server removes
// documents shortly after their deadline; reads filter them out until then.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl"),
	})
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// live matches id only while its deadline has not passed.
func (s *Store) live(id string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "expires_at", Value: bson.D{{Key: "$exists", Value: false}}}},
			bson.D{{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: s.now()}}}},
		}},
	}
}

// Get returns the live document for id.
func (s *Store) Get(ctx context.Context, id string) (session.Record, error) {
	var doc document
	if err := s.coll.FindOne(ctx, s.live(id)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, session.ErrSessionNotFound
		}
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return session.DecodeRecord([]byte(doc.Data))
}

// Set replaces the data and keeps a live deadline. A document that expired
// but was not swept yet is dropped first so its deadline does not apply to
// the new record.
func (s *Store) Set(ctx context.Context, id string, rec session.Record) error {
	data, err := session.EncodeRecord(rec)
	if err != nil {
		return err
	}

	expired := bson.D{
		{Key: "_id", Value: id},
		{Key: "expires_at", Value: bson.D{{Key: "$lte", Value: s.now()}}},
	}
	if _, err := s.coll.DeleteOne(ctx, expired); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}

	_, err = s.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "data", Value: string(data)}}}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// Destroy deletes the document for id.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// Expire only moves a deadline earlier; absent or expired documents are
// left alone.
func (s *Store) Expire(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return s.Destroy(ctx, id)
	}
	deadline := s.now().Add(ttl)

	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "expires_at", Value: bson.D{{Key: "$exists", Value: false}}}},
			bson.D{{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: deadline}}}},
		}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "expires_at", Value: deadline}}}}

	if _, err := s.coll.UpdateOne(ctx, filter, update); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}
