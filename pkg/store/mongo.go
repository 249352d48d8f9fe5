package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hanscompark/castleblock/pkg/block"
	"github.com/hanscompark/castleblock/pkg/cache"
)

// DefaultMongoCollection is the collection used when none is configured.
const DefaultMongoCollection = "event_blocks"

// MongoOptions configures NewMongoStore.
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
	AppName    string
}

// MongoStore keeps records in a MongoDB collection, one document per
// block keyed by block ID, with an index on (pageId, createdAt).
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects, pings and ensures the page index. Connection
// failures are retryable.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	if opts.Collection == "" {
		opts.Collection = DefaultMongoCollection
	}
	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.AppName != "" {
		clientOpts.SetAppName(opts.AppName)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, cache.Retryable(fmt.Errorf("mongo ping: %w", err))
	}

	s := &MongoStore{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "pageId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("mongo create index: %w", err)
	}
	return nil
}

// mongoRecord reads attributes loosely so documents written by older
// releases are default-filled by block.DecodeValues.
type mongoRecord struct {
	ID         string        `bson:"_id"`
	PageID     string        `bson:"pageId"`
	Version    block.Version `bson:"version"`
	Attributes bson.M        `bson:"attributes"`
	CreatedAt  time.Time     `bson:"createdAt"`
	UpdatedAt  time.Time     `bson:"updatedAt"`
}

func (m *mongoRecord) record() (*Record, error) {
	attrs, _, err := block.DecodeValues(map[string]any(m.Attributes))
	if err != nil {
		return nil, fmt.Errorf("decode block %s: %w", m.ID, err)
	}
	return &Record{
		ID:         m.ID,
		PageID:     m.PageID,
		Version:    m.Version,
		Attributes: attrs,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, pageID, blockID string) (*Record, error) {
	var m mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": blockID, "pageId": pageID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	return m.record()
}

func (s *MongoStore) Put(ctx context.Context, rec *Record) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": rec.ID},
		rec,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo replace: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, pageID, blockID string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": blockID, "pageId": pageID})
	if err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, pageID string) ([]*Record, error) {
	cur, err := s.coll.Find(ctx,
		bson.M{"pageId": pageID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	var docs []mongoRecord
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo cursor: %w", err)
	}

	recs := make([]*Record, 0, len(docs))
	for i := range docs {
		rec, err := docs[i].record()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
