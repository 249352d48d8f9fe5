package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hanscompark/castleblock/pkg/block"
	"github.com/hanscompark/castleblock/pkg/cache"
	"github.com/hanscompark/castleblock/pkg/clock"
	"github.com/hanscompark/castleblock/pkg/eventdate"
	"github.com/hanscompark/castleblock/pkg/observability"
	"github.com/hanscompark/castleblock/pkg/render"
)

// Runner executes renders with caching.
//
// The Runner holds no per-render state. Multiple goroutines can safely use
// the same Runner with different options.
type Runner struct {
	Cache     cache.Cache
	Keyer     cache.Keyer
	Logger    *log.Logger
	Evaluator *eventdate.Evaluator

	// TTL bounds rendered markup in the cache. Zero means cache.TTLRender.
	TTL time.Duration
}

// NewRunner creates a runner. A nil keyer means cache.DefaultKeyer, a nil
// cache disables caching and a nil logger means log.Default. The runner
// evaluates dates on the system clock in time.Local; see SetClock and
// SetLocation.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:     c,
		Keyer:     keyer,
		Logger:    logger,
		Evaluator: eventdate.NewEvaluator(nil),
	}
}

// SetClock replaces the clock used for the past-event rule.
func (r *Runner) SetClock(c clock.Clock) { r.Evaluator.Clock = c }

// SetLocation sets the default location for the past-event rule.
func (r *Runner) SetLocation(loc *time.Location) {
	if loc != nil {
		r.Evaluator.Location = loc
	}
}

// RenderJSON decodes attribute JSON of any schema version and renders it.
// Only a body that is not a JSON object fails to decode.
func (r *Runner) RenderJSON(ctx context.Context, data []byte, opts Options) (*Result, error) {
	start := time.Now()
	attrs, from, err := block.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	decodeTime := time.Since(start)

	res, err := r.Render(ctx, attrs, opts)
	if err != nil {
		return nil, err
	}
	res.SourceVersion = from
	res.Stats.DecodeTime = decodeTime
	return res, nil
}

// Render renders attrs, consulting the cache first unless opts.Refresh is
// set.
func (r *Runner) Render(ctx context.Context, attrs block.Attributes, opts Options) (res *Result, err error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	hooks := observability.Render()
	mode := opts.Mode.String()
	start := time.Now()
	hooks.OnRenderStart(ctx, mode)
	defer func() {
		past := res != nil && res.Past
		hooks.OnRenderComplete(ctx, mode, past, time.Since(start), err)
	}()

	attrs = attrs.Normalize()
	snapshot, err := block.Encode(attrs)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	loc := opts.Location
	if loc == nil {
		loc = r.Evaluator.Location
	}
	current := r.Evaluator.Now()
	day := eventdate.StartOfDay(current, loc).Format(DayLayout)

	res = &Result{
		Attributes:    attrs,
		SourceVersion: block.Current,
		SnapshotHash:  cache.Hash(snapshot),
		Mode:          opts.Mode,
		Day:           day,
	}
	key := r.Keyer.RenderKey(res.SnapshotHash, cache.RenderKeyOpts{
		Mode:     mode,
		Day:      day,
		Location: loc.String(),
	})

	if !opts.Refresh {
		if cached, ok := r.lookup(ctx, key, opts.Logger); ok {
			res.HTML = cached.HTML
			res.Past = cached.Past
			res.Sections = cached.Sections
			res.CacheHit = true
			res.Stats.RenderTime = time.Since(start)
			opts.Logger.Debug("render cache hit", "mode", mode, "snapshot", shortHash(res.SnapshotHash))
			return res, nil
		}
	}

	card := render.Build(attrs, render.Options{Now: current, Location: loc})
	var buf bytes.Buffer
	if err := card.Render(&buf, opts.Mode); err != nil {
		return nil, fmt.Errorf("render %s: %w", mode, err)
	}
	res.HTML = buf.Bytes()
	res.Past = card.Past
	res.Sections = card.Sections()
	res.Stats.RenderTime = time.Since(start)

	r.store(ctx, key, cachedRender{HTML: res.HTML, Past: res.Past, Sections: res.Sections}, opts.Logger)

	opts.Logger.Debug("rendered block",
		"mode", mode,
		"past", res.Past,
		"bytes", len(res.HTML),
		"duration", res.Stats.RenderTime)
	return res, nil
}

// Registration returns the encoded registration document for schema
// version v, cached under the registration key.
func (r *Runner) Registration(ctx context.Context, v block.Version) ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("unknown schema version %d", v)
	}
	key := r.Keyer.RegistrationKey(int(v))
	hooks := observability.Cache()

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		hooks.OnCacheHit(ctx, "registration")
		return data, nil
	}
	hooks.OnCacheMiss(ctx, "registration")

	data, err := json.MarshalIndent(block.Register(v), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode registration: %w", err)
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLRegistration); err == nil {
		hooks.OnCacheSet(ctx, "registration", len(data))
	}
	return data, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) lookup(ctx context.Context, key string, logger *log.Logger) (cachedRender, bool) {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("render cache read failed", "err", err)
	}
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, "render")
		return cachedRender{}, false
	}
	var cached cachedRender
	if err := json.Unmarshal(data, &cached); err != nil {
		// Unreadable entries are re-rendered and overwritten.
		hooks.OnCacheMiss(ctx, "render")
		return cachedRender{}, false
	}
	hooks.OnCacheHit(ctx, "render")
	return cached, true
}

func (r *Runner) store(ctx context.Context, key string, entry cachedRender, logger *log.Logger) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	ttl := r.TTL
	if ttl <= 0 {
		ttl = cache.TTLRender
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		logger.Warn("render cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "render", len(data))
}
