package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/hanscompark/castleblock/pkg/block"
	"github.com/hanscompark/castleblock/pkg/clock"
	apperrors "github.com/hanscompark/castleblock/pkg/errors"
)

// Blocks implements the block lifecycle on a Store. Every write persists a
// complete, normalized current-version snapshot.
type Blocks struct {
	Store Store
	Clock clock.Clock
	NewID func() string
}

// NewBlocks returns a lifecycle over s using the system clock and random
// UUIDs.
func NewBlocks(s Store) *Blocks {
	return &Blocks{Store: s, Clock: clock.NewSystem(), NewID: uuid.NewString}
}

// Insert creates a block on pageID. A nil attrs inserts the defaults of a
// freshly added block.
func (b *Blocks) Insert(ctx context.Context, pageID string, attrs *block.Attributes) (*Record, error) {
	a := block.Defaults(block.Current)
	if attrs != nil {
		a = attrs.Normalize()
	}
	now := b.now()
	rec := &Record{
		ID:         b.NewID(),
		PageID:     pageID,
		Version:    block.Current,
		Attributes: a,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := b.Store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("insert block: %w", err)
	}
	return rec, nil
}

func (b *Blocks) Get(ctx context.Context, pageID, blockID string) (*Record, error) {
	return b.Store.Get(ctx, pageID, blockID)
}

func (b *Blocks) List(ctx context.Context, pageID string) ([]*Record, error) {
	return b.Store.List(ctx, pageID)
}

// Replace swaps the whole snapshot of an existing block.
func (b *Blocks) Replace(ctx context.Context, pageID, blockID string, attrs block.Attributes) (*Record, error) {
	rec, err := b.Store.Get(ctx, pageID, blockID)
	if err != nil {
		return nil, err
	}
	return b.write(ctx, rec, attrs.Normalize())
}

// Patch replaces the named fields of an existing block and persists the
// resulting full snapshot. All names are checked before anything is
// written; an unknown name or a wrongly typed value fails the whole patch
// with an INVALID_FIELD error.
func (b *Blocks) Patch(ctx context.Context, pageID, blockID string, values map[string]any) (*Record, error) {
	rec, err := b.Store.Get(ctx, pageID, blockID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)

	a := rec.Attributes
	for _, name := range names {
		if a, err = a.With(name, values[name]); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidField, err, "cannot set %s", name)
		}
	}
	return b.write(ctx, rec, a)
}

// Remove deletes a block.
func (b *Blocks) Remove(ctx context.Context, pageID, blockID string) error {
	return b.Store.Delete(ctx, pageID, blockID)
}

func (b *Blocks) write(ctx context.Context, rec *Record, a block.Attributes) (*Record, error) {
	rec.Attributes = a
	rec.Version = block.Current
	rec.UpdatedAt = b.now()
	if err := b.Store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("update block: %w", err)
	}
	return rec, nil
}

func (b *Blocks) now() time.Time {
	if b.Clock == nil {
		return time.Now().UTC()
	}
	return b.Clock.Now().UTC()
}
