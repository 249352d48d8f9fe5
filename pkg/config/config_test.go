package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func noEnv(t *testing.T) Sources {
	return Sources{EnvFiles: []string{filepath.Join(t.TempDir(), "missing.env")}, Lookup: env(nil)}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(noEnv(t))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Store.Backend != "memory" || cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.Local {
		t.Errorf("Location() = %v, %v", loc, err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "castleblock.toml", `
[server]
addr = "127.0.0.1:9000"
read_timeout = "3s"

[render]
timezone = "Europe/Berlin"

[store]
backend = "mongo"

[store.mongo]
uri = "mongodb://localhost:27017"
database = "castle"

[cache]
backend = "redis"
ttl = "1h"

[cache.redis]
addr = "cache:6379"
db = 2
`)
	src := noEnv(t)
	src.File = path
	cfg, err := Load(src)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Server.ReadTimeout != 3*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.WriteTimeout != 10*time.Second {
		t.Errorf("unset field lost its default: %v", cfg.Server.WriteTimeout)
	}
	if cfg.Store.Mongo.URI != "mongodb://localhost:27017" || cfg.Store.Mongo.Collection != "event_blocks" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Cache.TTL != time.Hour || cfg.Cache.Redis.DB != 2 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "Europe/Berlin" {
		t.Errorf("Location() = %v, %v", loc, err)
	}
}

func TestLoadFileUnknownKey(t *testing.T) {
	src := noEnv(t)
	src.File = writeFile(t, "c.toml", "[server]\nadress = \":1\"\n")
	_, err := Load(src)
	if err == nil || !strings.Contains(err.Error(), "server.adress") {
		t.Errorf("Load = %v, want unknown key error", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	src := noEnv(t)
	src.Lookup = env(map[string]string{
		"CASTLEBLOCK_ADDR":      ":7000",
		"CASTLEBLOCK_TIMEZONE":  "UTC",
		"CASTLEBLOCK_STORE":     "file",
		"CASTLEBLOCK_STORE_DIR": "/var/lib/castleblock",
		"CASTLEBLOCK_CACHE":     "none",
		"CASTLEBLOCK_CACHE_TTL": "90m",
		"CASTLEBLOCK_REDIS_DB":  "3",
	})
	cfg, err := Load(src)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":7000" || cfg.Render.Timezone != "UTC" {
		t.Errorf("server/render = %+v %+v", cfg.Server, cfg.Render)
	}
	if cfg.Store.Backend != "file" || cfg.Store.Dir != "/var/lib/castleblock" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Cache.Backend != "none" || cfg.Cache.TTL != 90*time.Minute || cfg.Cache.Redis.DB != 3 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
}

func TestEnvFile(t *testing.T) {
	const key = "CASTLEBLOCK_MONGO_DATABASE"
	os.Unsetenv(key)
	t.Cleanup(func() { os.Unsetenv(key) })

	dotenv := writeFile(t, ".env", key+"=from-dotenv\n")
	cfg, err := Load(Sources{EnvFiles: []string{dotenv}})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Mongo.Database != "from-dotenv" {
		t.Errorf("database = %q", cfg.Store.Mongo.Database)
	}
}

func TestEnvBadValues(t *testing.T) {
	for name, val := range map[string]string{
		"CASTLEBLOCK_CACHE_TTL": "soon",
		"CASTLEBLOCK_REDIS_DB":  "two",
	} {
		src := noEnv(t)
		src.Lookup = env(map[string]string{name: val})
		if _, err := Load(src); err == nil || !strings.Contains(err.Error(), name) {
			t.Errorf("%s=%s: err = %v", name, val, err)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"bad addr", func(c *Config) { c.Server.Addr = "localhost" }},
		{"bad store", func(c *Config) { c.Store.Backend = "postgres" }},
		{"bad cache", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"negative ttl", func(c *Config) { c.Cache.TTL = -time.Second }},
		{"redis db", func(c *Config) { c.Cache.Redis.DB = 16 }},
		{"schema version", func(c *Config) { c.Render.SchemaVersion = 3 }},
		{"timezone", func(c *Config) { c.Render.Timezone = "Mars/Olympus" }},
		{"mongo without uri", func(c *Config) { c.Store.Backend = "mongo" }},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis"; c.Cache.Redis.Addr = "" }},
		{"zero body limit", func(c *Config) { c.Server.MaxBodyBytes = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
