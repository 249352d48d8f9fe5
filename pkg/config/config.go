// Package config loads castleblock configuration.
//
// Configuration is layered, later layers winning:
//
//  1. built-in defaults ([Default])
//  2. a TOML file (optional)
//  3. a .env file (optional) and the process environment, CASTLEBLOCK_*
//  4. command-line flags, applied by the CLI after Load returns
//
// The result is validated with struct tags before use.
//
//	cfg, err := config.Load(config.Sources{File: "castleblock.toml"})
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CASTLEBLOCK_"

// Config is the complete configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Render RenderConfig `toml:"render"`
	Store  StoreConfig  `toml:"store"`
	Cache  CacheConfig  `toml:"cache"`
}

type ServerConfig struct {
	Addr            string        `toml:"addr" validate:"required,hostname_port"`
	ReadTimeout     time.Duration `toml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `toml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" validate:"gte=0"`
	// MaxBodyBytes bounds request bodies.
	MaxBodyBytes int64 `toml:"max_body_bytes" validate:"gt=0"`
}

type RenderConfig struct {
	// Timezone is the IANA zone of the past-event rule, or "Local".
	Timezone string `toml:"timezone" validate:"required"`
	// SchemaVersion is the version of registration documents served by
	// default.
	SchemaVersion int `toml:"schema_version" validate:"oneof=1 2"`
}

type StoreConfig struct {
	Backend string      `toml:"backend" validate:"oneof=memory file mongo"`
	Dir     string      `toml:"dir"`
	Mongo   MongoConfig `toml:"mongo"`
}

type MongoConfig struct {
	URI        string `toml:"uri" validate:"omitempty,uri"`
	Database   string `toml:"database" validate:"omitempty,max=64"`
	Collection string `toml:"collection" validate:"omitempty,max=120"`
}

type CacheConfig struct {
	Backend string        `toml:"backend" validate:"oneof=none memory file redis"`
	Dir     string        `toml:"dir"`
	TTL     time.Duration `toml:"ttl" validate:"gte=0"`
	Prefix  string        `toml:"prefix"`
	Redis   RedisConfig   `toml:"redis"`
}

type RedisConfig struct {
	Addr     string `toml:"addr" validate:"omitempty,hostname_port"`
	Password string `toml:"password"`
	DB       int    `toml:"db" validate:"gte=0,lte=15"`
}

// Default returns the built-in configuration: an in-memory store and
// cache on :8080, dates evaluated in the local zone.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Render: RenderConfig{
			Timezone:      "Local",
			SchemaVersion: 2,
		},
		Store: StoreConfig{
			Backend: "memory",
			Mongo: MongoConfig{
				Database:   "castleblock",
				Collection: "event_blocks",
			},
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     24 * time.Hour,
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
	}
}

// Sources names the inputs of Load.
type Sources struct {
	// File is a TOML file. Empty skips the file layer.
	File string
	// EnvFiles are dotenv files; empty means ".env". Missing files are
	// ignored.
	EnvFiles []string
	// Lookup reads the environment; nil means os.LookupEnv.
	Lookup func(string) (string, bool)
}

// Load builds and validates the configuration from src.
func Load(src Sources) (*Config, error) {
	cfg := Default()
	if src.File != "" {
		md, err := toml.DecodeFile(src.File, cfg)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", src.File, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("config %s: unknown keys: %s", src.File, strings.Join(keys, ", "))
		}
	}

	if err := loadEnvFiles(src.EnvFiles); err != nil {
		return nil, err
	}
	lookup := src.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFiles merges dotenv files into the process environment without
// overriding variables that are already set.
func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from CASTLEBLOCK_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("ADDR", &c.Server.Addr)
	str("TIMEZONE", &c.Render.Timezone)
	str("STORE", &c.Store.Backend)
	str("STORE_DIR", &c.Store.Dir)
	str("MONGO_URI", &c.Store.Mongo.URI)
	str("MONGO_DATABASE", &c.Store.Mongo.Database)
	str("CACHE", &c.Cache.Backend)
	str("CACHE_DIR", &c.Cache.Dir)
	str("REDIS_ADDR", &c.Cache.Redis.Addr)
	str("REDIS_PASSWORD", &c.Cache.Redis.Password)

	if v, ok := lookup(EnvPrefix + "CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sCACHE_TTL: %w", EnvPrefix, err)
		}
		c.Cache.TTL = d
	}
	if v, ok := lookup(EnvPrefix + "REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_DB: %w", EnvPrefix, err)
		}
		c.Cache.Redis.DB = n
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the cross-field rules tags cannot
// express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid config: render.timezone: %w", err)
	}
	if c.Store.Backend == "mongo" && c.Store.Mongo.URI == "" {
		return errors.New("invalid config: store.mongo.uri is required for the mongo backend")
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return errors.New("invalid config: cache.redis.addr is required for the redis backend")
	}
	return nil
}

// Location resolves Render.Timezone.
func (c *Config) Location() (*time.Location, error) {
	if strings.EqualFold(c.Render.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Render.Timezone)
}
