package store

import (
	"context"
	"time"

	"github.com/hanscompark/castleblock/pkg/observability"
)

// Instrument wraps s so every operation is reported to the registered
// store hooks under the given backend name.
func Instrument(s Store, backend string) Store {
	return &instrumented{inner: s, backend: backend}
}

type instrumented struct {
	inner   Store
	backend string
}

func (s *instrumented) report(ctx context.Context, op string, start time.Time, err error) {
	observability.Store().OnStoreOp(ctx, s.backend, op, time.Since(start), err)
}

func (s *instrumented) Get(ctx context.Context, pageID, blockID string) (rec *Record, err error) {
	defer func(start time.Time) { s.report(ctx, "get", start, err) }(time.Now())
	return s.inner.Get(ctx, pageID, blockID)
}

func (s *instrumented) Put(ctx context.Context, rec *Record) (err error) {
	defer func(start time.Time) { s.report(ctx, "put", start, err) }(time.Now())
	return s.inner.Put(ctx, rec)
}

func (s *instrumented) Delete(ctx context.Context, pageID, blockID string) (err error) {
	defer func(start time.Time) { s.report(ctx, "delete", start, err) }(time.Now())
	return s.inner.Delete(ctx, pageID, blockID)
}

func (s *instrumented) List(ctx context.Context, pageID string) (recs []*Record, err error) {
	defer func(start time.Time) { s.report(ctx, "list", start, err) }(time.Now())
	return s.inner.List(ctx, pageID)
}

func (s *instrumented) Close() error { return s.inner.Close() }
