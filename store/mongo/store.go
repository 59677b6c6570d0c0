// Package mongo provides a Store backed by MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	coursegate "github.com/coursegate/coursegate"
	"github.com/coursegate/coursegate/entitlement"
	"github.com/coursegate/coursegate/store"
)

// colEntitlements is the collection holding one document per user.
const colEntitlements = "entitlements"

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using the official MongoDB driver.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New wraps an existing client and database name.
func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

// Open connects to the given MongoDB URL and returns a ready store.
func Open(ctx context.Context, url, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("coursegate/mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("coursegate/mongo: ping: %w", err)
	}
	return New(client, database), nil
}

// GetEntitlement returns the record for uid. An absent document is returned
// as the zero record with Paid=false.
func (s *Store) GetEntitlement(ctx context.Context, uid string) (entitlement.Record, error) {
	var m entitlementModel
	err := s.db.Collection(colEntitlements).
		FindOne(ctx, bson.M{"_id": uid}).
		Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return entitlement.Record{UID: uid, Paid: false}, nil
		}
		return entitlement.Record{}, fmt.Errorf("%w: get entitlement: %v", coursegate.ErrStoreUnavailable, err)
	}
	return m.toRecord(), nil
}

// SetPaid merges paid=true into the document for uid, creating it lazily.
// $setOnInsert keeps created_at stable across duplicate deliveries.
func (s *Store) SetPaid(ctx context.Context, uid string) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set":         bson.M{"paid": true, "updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := s.db.Collection(colEntitlements).UpdateOne(
		ctx,
		bson.M{"_id": uid},
		update,
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("%w: set paid: %v", coursegate.ErrStoreUnavailable, err)
	}
	return nil
}

// Migrate creates the collection indexes.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.Collection(colEntitlements).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "paid", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("coursegate/mongo: migrate indexes: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %v", coursegate.ErrStoreUnavailable, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}
