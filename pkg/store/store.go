// Package store persists event block snapshots.
//
// A [Record] is one block instance on one page: its identity, the schema
// version it was written with and the full attribute snapshot. The block
// lifecycle maps onto the [Store] interface as follows:
//
//   - insert: a new record with a fresh UUID and default attributes
//   - edit: the whole snapshot is replaced; there are no partial writes
//   - remove: the record is deleted
//
// Three backends are provided:
//   - [MemoryStore]: in-process storage for development and tests
//   - [FileStore]: one JSON file per record, for the CLI and single hosts
//   - [MongoStore]: MongoDB, for the render service
//
// [Blocks] implements the lifecycle on top of any Store.
package store

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/hanscompark/castleblock/pkg/block"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("block not found")

// Record is a persisted block instance.
type Record struct {
	ID         string           `json:"id" bson:"_id"`
	PageID     string           `json:"pageId" bson:"pageId"`
	Version    block.Version    `json:"version" bson:"version"`
	Attributes block.Attributes `json:"attributes" bson:"attributes"`
	CreatedAt  time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt" bson:"updatedAt"`
}

// Store is implemented by every backend. Implementations are safe for
// concurrent use and return copies, so callers may modify what they get.
type Store interface {
	// Get returns the record, or ErrNotFound.
	Get(ctx context.Context, pageID, blockID string) (*Record, error)

	// Put inserts or replaces rec.
	Put(ctx context.Context, rec *Record) error

	// Delete removes the record, or returns ErrNotFound.
	Delete(ctx context.Context, pageID, blockID string) error

	// List returns the page's records in insertion order.
	List(ctx context.Context, pageID string) ([]*Record, error)

	Close() error
}

// sortRecords orders records by creation time, then ID.
func sortRecords(recs []*Record) {
	slices.SortFunc(recs, func(a, b *Record) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func clone(rec *Record) *Record {
	c := *rec
	return &c
}
