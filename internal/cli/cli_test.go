package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/hanscompark/castleblock/pkg/block"
	"github.com/hanscompark/castleblock/pkg/cache"
	"github.com/hanscompark/castleblock/pkg/config"
	"github.com/hanscompark/castleblock/pkg/render"
	"github.com/hanscompark/castleblock/pkg/store"
)

// quietStatus silences status lines for the duration of the test.
func quietStatus(t *testing.T) {
	t.Helper()
	prev := statusOut
	statusOut = io.Discard
	t.Cleanup(func() { statusOut = prev })
}

// execute runs the root command with args and stdin, returning stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	quietStatus(t)

	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const eventJSON = `{
	"title": "Autumn Fair",
	"blurb": "Crafts and cider in the courtyard.",
	"linkUrl": "https://example.org/fair",
	"endDate": "2026-10-20"
}`

func TestRenderCommand(t *testing.T) {
	tests := []struct {
		name     string
		today    string
		contains []string
		excludes []string
	}{
		{
			name:     "upcoming event",
			today:    "2026-10-16",
			contains: []string{render.ClassPublished, "Autumn Fair", "Crafts and cider"},
		},
		{
			name:     "end day still shows blurb",
			today:    "2026-10-20",
			contains: []string{"Crafts and cider"},
		},
		{
			name:     "past event hides blurb",
			today:    "2026-10-21",
			contains: []string{"Autumn Fair"},
			excludes: []string{"Crafts and cider", render.PastNoticeText},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, eventJSON, "render", "--no-cache", "--timezone", "UTC", "--today", tt.today)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(out, s) {
					t.Errorf("output contains %q:\n%s", s, out)
				}
			}
			if strings.Contains(out, render.ClassEditor) {
				t.Error("published markup carries the editor class")
			}
		})
	}
}

func TestRenderCommandFromFile(t *testing.T) {
	in := writeFile(t, "event.json", eventJSON)
	outPath := filepath.Join(t.TempDir(), "event.html")

	stdout, err := execute(t, "", "render", "--no-cache", "--today", "2026-10-16", "-o", outPath, in)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty when writing a file", stdout)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), render.ClassPublished) {
		t.Errorf("file missing published class:\n%s", data)
	}
}

func TestRenderCommandPreviewMode(t *testing.T) {
	out, err := execute(t, eventJSON, "render", "--no-cache", "--timezone", "UTC", "--today", "2026-10-21", "--mode", "preview")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, render.ClassEditor) {
		t.Errorf("preview missing editor class:\n%s", out)
	}
	if !strings.Contains(out, render.PastNoticeText) {
		t.Errorf("preview missing past notice:\n%s", out)
	}
}

func TestRenderCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		args []string
	}{
		{"not an object", `[1, 2]`, []string{"render", "--no-cache"}},
		{"bad mode", eventJSON, []string{"render", "--no-cache", "--mode", "draft"}},
		{"bad today", eventJSON, []string{"render", "--no-cache", "--today", "someday"}},
		{"bad timezone", eventJSON, []string{"render", "--no-cache", "--timezone", "Mars/Olympus"}},
		{"missing file", "", []string{"render", "--no-cache", "/nonexistent/event.json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.in, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPreviewCommand(t *testing.T) {
	out, err := execute(t, eventJSON, "preview", "--no-cache", "--timezone", "UTC", "--today", "2026-10-16")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !strings.Contains(out, render.ClassEditor) {
		t.Errorf("preview missing editor class:\n%s", out)
	}
	if strings.Contains(out, render.PastNoticeText) {
		t.Errorf("upcoming event shows the past notice:\n%s", out)
	}
}

func TestSchemaCommand(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	tests := []struct {
		name   string
		args   []string
		aspect string
	}{
		{"current", []string{"schema"}, "original"},
		{"v1", []string{"schema", "--version", "1"}, "4:3"},
		{"v2 uncached", []string{"schema", "--version", "2", "--no-cache"}, "original"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "", tt.args...)
			if err != nil {
				t.Fatalf("schema: %v", err)
			}
			var reg block.Registration
			if err := json.Unmarshal([]byte(out), &reg); err != nil {
				t.Fatalf("decode registration: %v\n%s", err, out)
			}
			if reg.Name != block.Name {
				t.Errorf("name = %q, want %q", reg.Name, block.Name)
			}
			if got := reg.Attributes[block.FieldAspectRatio].Default; got != tt.aspect {
				t.Errorf("aspectRatio default = %v, want %q", got, tt.aspect)
			}
		})
	}
}

func TestSchemaCommandUnknownVersion(t *testing.T) {
	if _, err := execute(t, "", "schema", "--version", "3"); err == nil {
		t.Error("expected error for version 3")
	}
}

func TestSchemaCommandFields(t *testing.T) {
	out, err := execute(t, "", "schema", "--fields")
	if err != nil {
		t.Fatalf("schema --fields: %v", err)
	}
	if out != "" {
		t.Errorf("--fields wrote %q to stdout", out)
	}
}

func TestMigrateCommand(t *testing.T) {
	out, err := execute(t, `{"title":"Old","endDate":"2020-01-01"}`, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	checks := map[string]any{
		"version":                float64(block.Current),
		block.FieldTitle:         "Old",
		block.FieldAspectRatio:   "4:3",
		block.FieldMediaWidth:    float64(block.DefaultMediaWidth),
		block.FieldMediaPosition: block.PositionLeft,
		block.FieldStackOnMobile: true,
		block.FieldEndDate:       "2020-01-01",
	}
	for k, want := range checks {
		if doc[k] != want {
			t.Errorf("%s = %v, want %v", k, doc[k], want)
		}
	}
}

func TestMigrateCommandWrite(t *testing.T) {
	path := writeFile(t, "event.json", `{"title":"Old"}`)

	if _, err := execute(t, "", "migrate", "--write", path); err != nil {
		t.Fatalf("migrate --write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	attrs, from, err := block.Decode(data)
	if err != nil {
		t.Fatalf("decode rewritten file: %v", err)
	}
	if from != block.Current {
		t.Errorf("rewritten version = %d, want %d", from, block.Current)
	}
	if attrs.AspectRatio != "4:3" {
		t.Errorf("aspectRatio = %q, want 4:3", attrs.AspectRatio)
	}
}

func TestMigrateCommandWriteNeedsFile(t *testing.T) {
	if _, err := execute(t, "{}", "migrate", "--write"); err == nil {
		t.Error("expected error for --write on stdin")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")

	attrs, err := loadSnapshot(path)
	if err != nil {
		t.Fatalf("loadSnapshot(missing): %v", err)
	}
	if !block.Equal(attrs, block.Defaults(block.Current)) {
		t.Errorf("missing file = %+v, want defaults", attrs)
	}

	attrs.Title = "Harvest Supper"
	attrs.MediaWidth = 40
	if err := saveSnapshot(path, attrs); err != nil {
		t.Fatalf("saveSnapshot: %v", err)
	}
	got, err := loadSnapshot(path)
	if err != nil {
		t.Fatalf("loadSnapshot: %v", err)
	}
	if diff := block.Diff(attrs, got); len(diff) > 0 {
		t.Errorf("round trip changed %v", diff)
	}
}

func TestLoadSnapshotNotObject(t *testing.T) {
	path := writeFile(t, "bad.json", `"just a string"`)
	if _, err := loadSnapshot(path); err == nil {
		t.Error("expected error")
	}
}

func TestLoadServeConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, "castleblock.toml", `
[server]
addr = "127.0.0.1:9000"

[cache]
backend = "none"
`)

	var f serveFlags
	cmd := &cobra.Command{Use: "serve"}
	f.bind(cmd)
	err := cmd.ParseFlags([]string{
		"--config", cfgPath,
		"--env-file", filepath.Join(dir, "missing.env"),
		"--store", "file",
		"--store-dir", dir,
		"--timezone", "Europe/Berlin",
	})
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := loadServeConfig(cmd, f)
	if err != nil {
		t.Fatalf("loadServeConfig: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("addr = %q, want the file value", cfg.Server.Addr)
	}
	if cfg.Cache.Backend != "none" {
		t.Errorf("cache = %q, want none", cfg.Cache.Backend)
	}
	if cfg.Store.Backend != "file" || cfg.Store.Dir != dir {
		t.Errorf("store = %q %q, want file %q", cfg.Store.Backend, cfg.Store.Dir, dir)
	}
	if cfg.Render.Timezone != "Europe/Berlin" {
		t.Errorf("timezone = %q", cfg.Render.Timezone)
	}
}

func TestLoadServeConfigInvalidFlag(t *testing.T) {
	var f serveFlags
	cmd := &cobra.Command{Use: "serve"}
	f.bind(cmd)
	if err := cmd.ParseFlags([]string{"--store", "postgres", "--env-file", filepath.Join(t.TempDir(), "none.env")}); err != nil {
		t.Fatal(err)
	}
	if _, err := loadServeConfig(cmd, f); err == nil {
		t.Error("expected validation error for unknown store backend")
	}
}

func TestOpenCache(t *testing.T) {
	c := New(io.Discard, LogInfo)
	ctx := context.Background()

	tests := []struct {
		cfg  config.CacheConfig
		want string
	}{
		{config.CacheConfig{Backend: "none"}, "cache.NullCache"},
		{config.CacheConfig{Backend: "memory"}, "*cache.MemoryCache"},
		{config.CacheConfig{Backend: "file", Dir: t.TempDir()}, "*cache.FileCache"},
	}
	for _, tt := range tests {
		t.Run(tt.cfg.Backend, func(t *testing.T) {
			got, err := c.openCache(ctx, tt.cfg)
			if err != nil {
				t.Fatalf("openCache: %v", err)
			}
			defer got.Close()
			if name := typeName(got); name != tt.want {
				t.Errorf("openCache(%s) = %s, want %s", tt.cfg.Backend, name, tt.want)
			}
		})
	}

	if _, err := c.openCache(ctx, config.CacheConfig{Backend: "memcached"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestOpenStore(t *testing.T) {
	quietStatus(t)
	c := New(io.Discard, LogInfo)
	ctx := context.Background()

	mem, err := c.openStore(ctx, config.StoreConfig{Backend: "memory"})
	if err != nil {
		t.Fatalf("openStore(memory): %v", err)
	}
	if _, ok := mem.(*store.MemoryStore); !ok {
		t.Errorf("openStore(memory) = %T", mem)
	}

	dir := t.TempDir()
	fs, err := c.openStore(ctx, config.StoreConfig{Backend: "file", Dir: dir})
	if err != nil {
		t.Fatalf("openStore(file): %v", err)
	}
	if f, ok := fs.(*store.FileStore); !ok || f.Path() != dir {
		t.Errorf("openStore(file) = %T", fs)
	}

	if _, err := c.openStore(ctx, config.StoreConfig{Backend: "sqlite"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func typeName(c cache.Cache) string {
	switch c.(type) {
	case cache.NullCache:
		return "cache.NullCache"
	case *cache.MemoryCache:
		return "*cache.MemoryCache"
	case *cache.FileCache:
		return "*cache.FileCache"
	}
	return "unknown"
}

func TestParseVersion(t *testing.T) {
	for _, n := range []int{1, 2} {
		if v, err := parseVersion(n); err != nil || int(v) != n {
			t.Errorf("parseVersion(%d) = %d, %v", n, v, err)
		}
	}
	for _, n := range []int{0, 3, -1} {
		if _, err := parseVersion(n); err == nil {
			t.Errorf("parseVersion(%d) should fail", n)
		}
	}
}

func TestRenderExampleSnapshots(t *testing.T) {
	tests := []struct {
		file     string
		contains []string
		excludes []string
	}{
		{
			file: "joust-v1.json",
			contains: []string{
				`<a href="https://example.com/joust">Joust Tournament</a>`,
				"<b>Daily</b> at noon",
				"padding-bottom: 56.25%",
				">Details</a>",
			},
		},
		{
			file:     "lantern-walk-v2.json",
			contains: []string{render.ClassMediaRight, render.ClassNotStacked, "Lantern Walk"},
			excludes: []string{"Bring a lantern"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join("..", "..", "examples", "snapshots", tt.file)
			out, err := execute(t, "", "render", "--no-cache", "--timezone", "UTC", "--today", "2026-10-16", path)
			if err != nil {
				t.Fatalf("render %s: %v", tt.file, err)
			}
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(out, s) {
					t.Errorf("output contains %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, err := execute(t, "", "completion", shell)
			if err != nil {
				t.Fatalf("completion %s: %v", shell, err)
			}
			if !strings.Contains(out, "castleblock") {
				t.Errorf("%s script does not mention the command", shell)
			}
		})
	}

	if _, err := execute(t, "", "completion", "tcsh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}
