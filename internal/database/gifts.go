package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// GiftsCollection is the only collection the service reads and writes
const GiftsCollection = "gifts"

// Gift is a schema-less document. Whatever fields the client sends are stored
// as-is; _id is assigned by MongoDB on insert.
type Gift map[string]any

// Provider hands out the shared database handle
type Provider interface {
	Database(ctx context.Context) (*mongo.Database, error)
}

// GiftStore performs gift operations against the shared handle
type GiftStore struct {
	provider Provider
}

// NewGiftStore creates a store backed by provider
func NewGiftStore(provider Provider) *GiftStore {
	return &GiftStore{provider: provider}
}

func (s *GiftStore) collection(ctx context.Context) (*mongo.Collection, error) {
	db, err := s.provider.Database(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(GiftsCollection), nil
}

// ListGifts returns every gift in storage order. An empty collection yields an
// empty, non-nil slice.
func (s *GiftStore) ListGifts(ctx context.Context) ([]Gift, error) {
	coll, err := s.collection(ctx)
	if err != nil {
		return nil, err
	}

	cur, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to query gifts: %w", err)
	}

	gifts := make([]Gift, 0)
	if err := cur.All(ctx, &gifts); err != nil {
		return nil, fmt.Errorf("failed to read gifts: %w", err)
	}
	if gifts == nil {
		gifts = []Gift{}
	}

	return gifts, nil
}

// GetGift looks a gift up by the hex form of its ObjectID. Malformed ids and
// missing documents both return ErrNotFound.
func (s *GiftStore) GetGift(ctx context.Context, id string) (Gift, error) {
	coll, err := s.collection(ctx)
	if err != nil {
		return nil, err
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("gift %q: %w", id, ErrNotFound)
	}

	var gift Gift
	if err := coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&gift); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("gift %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get gift %q: %w", id, err)
	}

	return gift, nil
}

// CreateGift inserts gift unchanged and returns the id MongoDB assigned (or
// the client-supplied _id, if any). The caller's map is not modified.
func (s *GiftStore) CreateGift(ctx context.Context, gift Gift) (any, error) {
	coll, err := s.collection(ctx)
	if err != nil {
		return nil, err
	}

	res, err := coll.InsertOne(ctx, gift)
	if err != nil {
		return nil, fmt.Errorf("failed to insert gift: %w", err)
	}

	return res.InsertedID, nil
}

// CountGifts returns the collection's estimated document count
func (s *GiftStore) CountGifts(ctx context.Context) (int64, error) {
	coll, err := s.collection(ctx)
	if err != nil {
		return 0, err
	}

	n, err := coll.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count gifts: %w", err)
	}
	return n, nil
}
