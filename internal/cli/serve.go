package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hanscompark/castleblock/internal/server"
	"github.com/hanscompark/castleblock/pkg/block"
	"github.com/hanscompark/castleblock/pkg/buildinfo"
	"github.com/hanscompark/castleblock/pkg/cache"
	"github.com/hanscompark/castleblock/pkg/config"
	"github.com/hanscompark/castleblock/pkg/pipeline"
	"github.com/hanscompark/castleblock/pkg/store"
)

// serveFlags are the serve flags that override the configuration.
type serveFlags struct {
	configFile string
	envFiles   []string
	addr       string
	storeKind  string
	storeDir   string
	cacheKind  string
	cacheDir   string
	timezone   string
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP render service",
		Long: `Run the HTTP render service.

Configuration is read from the TOML file given by --config, then from .env
and CASTLEBLOCK_* environment variables, then from flags. The service renders
publish and preview markup, serves the registration document, manages
persisted blocks and exposes Prometheus metrics on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServeConfig(cmd, f)
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	f.bind(cmd)
	return cmd
}

func (f *serveFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "TOML configuration file")
	cmd.Flags().StringSliceVar(&f.envFiles, "env-file", nil, "dotenv files to load (default .env)")
	cmd.Flags().StringVar(&f.addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&f.storeKind, "store", "", "block store: memory, file, mongo")
	cmd.Flags().StringVar(&f.storeDir, "store-dir", "", "directory of the file store")
	cmd.Flags().StringVar(&f.cacheKind, "cache", "", "render cache: none, memory, file, redis")
	cmd.Flags().StringVar(&f.cacheDir, "cache-dir", "", "directory of the file cache")
	cmd.Flags().StringVar(&f.timezone, "timezone", "", "IANA time zone of the end date rule")
}

// loadServeConfig layers changed flags over the loaded configuration.
func loadServeConfig(cmd *cobra.Command, f serveFlags) (*config.Config, error) {
	cfg, err := config.Load(config.Sources{File: f.configFile, EnvFiles: f.envFiles})
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	set("addr", &cfg.Server.Addr, f.addr)
	set("store", &cfg.Store.Backend, f.storeKind)
	set("store-dir", &cfg.Store.Dir, f.storeDir)
	set("cache", &cfg.Cache.Backend, f.cacheKind)
	set("cache-dir", &cfg.Cache.Dir, f.cacheDir)
	set("timezone", &cfg.Render.Timezone, f.timezone)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *CLI) runServe(ctx context.Context, cfg *config.Config) error {
	logger := loggerFromContext(ctx)
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	renderCache, err := c.openCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	blockStore, err := c.openStore(ctx, cfg.Store)
	if err != nil {
		_ = renderCache.Close()
		return err
	}
	defer blockStore.Close()

	var keyer cache.Keyer
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(nil, cfg.Cache.Prefix)
	}
	runner := pipeline.NewRunner(renderCache, keyer, logger)
	runner.SetLocation(loc)
	runner.TTL = cfg.Cache.TTL
	defer runner.Close()

	metrics := server.NewMetrics()
	metrics.Register()

	handler := server.NewHandler(server.Deps{
		Runner:        runner,
		Blocks:        store.NewBlocks(store.Instrument(blockStore, cfg.Store.Backend)),
		Logger:        logger,
		Metrics:       metrics,
		MaxBodyBytes:  cfg.Server.MaxBodyBytes,
		SchemaVersion: block.Version(cfg.Render.SchemaVersion),
	})
	srv := server.New(server.Options{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handler, logger)

	printSuccess("castleblock %s", buildinfo.Version)
	printKeyValue("Listen", cfg.Server.Addr)
	printKeyValue("Store", cfg.Store.Backend)
	printKeyValue("Cache", cfg.Cache.Backend)
	printKeyValue("Timezone", loc.String())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// openCache builds the configured render cache. Redis connections are
// retried with backoff.
func (c *CLI) openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "memory":
		return cache.NewMemoryCache(), nil
	case "file":
		dir := cfg.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				return nil, fmt.Errorf("get cache dir: %w", err)
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	case "redis":
		var rc *cache.RedisCache
		err := c.connect(ctx, "redis "+cfg.Redis.Addr, func() error {
			var err error
			rc, err = cache.NewRedisCache(ctx, cache.RedisOptions{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			return err
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

// openStore builds the configured block store.
func (c *CLI) openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "memory":
		printWarning("Using the in-memory block store; blocks are lost on exit")
		return store.NewMemoryStore(), nil
	case "file":
		return store.NewFileStore(cfg.Dir)
	case "mongo":
		var ms *store.MongoStore
		err := c.connect(ctx, "mongo", func() error {
			var err error
			ms, err = store.NewMongoStore(ctx, store.MongoOptions{
				URI:        cfg.Mongo.URI,
				Database:   cfg.Mongo.Database,
				Collection: cfg.Mongo.Collection,
				AppName:    buildinfo.UserAgent(),
			})
			return err
		})
		if err != nil {
			return nil, err
		}
		return ms, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// connect runs fn with backoff behind a spinner that reports each retry.
func (c *CLI) connect(ctx context.Context, what string, fn func() error) error {
	spin := newSpinner(ctx, fmt.Sprintf("Connecting to %s...", what))
	spin.Start()

	start := time.Now()
	attempt := 0
	err := cache.RetryWithBackoff(ctx, func() error {
		attempt++
		if attempt > 1 {
			spin.SetMessage(fmt.Sprintf("Connecting to %s (attempt %d)...", what, attempt))
		}
		return fn()
	})
	if err != nil {
		spin.StopWithError(fmt.Sprintf("Cannot reach %s", what))
		return fmt.Errorf("connect %s: %w", what, err)
	}
	spin.StopWithSuccess(fmt.Sprintf("Connected to %s", what))
	loggerFromContext(ctx).Debug("connected", "backend", what, "attempts", attempt, "duration", time.Since(start))
	return nil
}
