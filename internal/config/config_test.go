package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/spidersearch/internal/model"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("database defaults to postgres on localhost", func(t *testing.T) {
		t.Parallel()
		if cfg.Database.Driver != DriverPostgres {
			t.Errorf("expected driver %q, got %q", DriverPostgres, cfg.Database.Driver)
		}
		if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
			t.Errorf("unexpected address %s:%d", cfg.Database.Host, cfg.Database.Port)
		}
		if cfg.Database.MaxConns != 4 {
			t.Errorf("expected MaxConns 4, got %d", cfg.Database.MaxConns)
		}
	})

	t.Run("sqlite path lives in the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if !strings.HasPrefix(cfg.Database.Path, XDGDataDir()) {
			t.Errorf("expected path under %s, got %s", XDGDataDir(), cfg.Database.Path)
		}
	})

	t.Run("spider defaults", func(t *testing.T) {
		t.Parallel()
		if cfg.Spider.Depth != 1 {
			t.Errorf("expected depth 1, got %d", cfg.Spider.Depth)
		}
		if cfg.Spider.Timeout != 30*time.Second {
			t.Errorf("expected timeout 30s, got %v", cfg.Spider.Timeout)
		}
		if cfg.Spider.OutputCharset != "windows-1251" {
			t.Errorf("expected windows-1251, got %q", cfg.Spider.OutputCharset)
		}
		if cfg.Spider.Parser != ParserPattern {
			t.Errorf("expected pattern parser, got %q", cfg.Spider.Parser)
		}
		if cfg.Spider.MaxRedirects != 5 {
			t.Errorf("expected 5 redirects, got %d", cfg.Spider.MaxRedirects)
		}
	})

	t.Run("server defaults", func(t *testing.T) {
		t.Parallel()
		if cfg.Server.Port != 8080 {
			t.Errorf("expected port 8080, got %d", cfg.Server.Port)
		}
		if cfg.Server.Addr() != ":8080" {
			t.Errorf("expected :8080, got %s", cfg.Server.Addr())
		}
		if cfg.Server.RedisAddr != "" {
			t.Errorf("cache should be disabled by default")
		}
	})

	t.Run("defaults validate", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("default config should be valid: %v", err)
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: ErrUnknownDriver},
		{name: "postgres without name", mutate: func(c *Config) { c.Database.Name = "" }, wantErr: ErrNoDatabaseName},
		{
			name: "sqlite without path",
			mutate: func(c *Config) {
				c.Database.Driver = DriverSQLite
				c.Database.Path = ""
			},
			wantErr: ErrNoDatabasePath,
		},
		{name: "negative max conns", mutate: func(c *Config) { c.Database.MaxConns = -1 }, wantErr: ErrInvalidMaxConns},
		{name: "negative depth", mutate: func(c *Config) { c.Spider.Depth = -1 }, wantErr: ErrInvalidDepth},
		{name: "negative workers", mutate: func(c *Config) { c.Spider.Workers = -2 }, wantErr: ErrInvalidWorkers},
		{name: "zero timeout", mutate: func(c *Config) { c.Spider.Timeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "zero body size", mutate: func(c *Config) { c.Spider.MaxBodySize = 0 }, wantErr: ErrInvalidMaxBodySize},
		{name: "negative redirects", mutate: func(c *Config) { c.Spider.MaxRedirects = -1 }, wantErr: ErrInvalidMaxRedirects},
		{name: "unknown parser", mutate: func(c *Config) { c.Spider.Parser = "xpath" }, wantErr: ErrUnknownParser},
		{name: "port zero", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: ErrInvalidPort},
		{name: "port too large", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: ErrInvalidPort},
		{name: "negative cache ttl", mutate: func(c *Config) { c.Server.CacheTTL = -time.Second }, wantErr: ErrInvalidCacheTTL},
		{name: "dom parser is valid", mutate: func(c *Config) { c.Spider.Parser = ParserDOM }},
		{name: "depth zero is valid", mutate: func(c *Config) { c.Spider.Depth = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSpider_SeedLink(t *testing.T) {
	t.Parallel()

	t.Run("missing seed", func(t *testing.T) {
		t.Parallel()
		if _, err := (Spider{}).SeedLink(); !errors.Is(err, ErrNoSeed) {
			t.Errorf("expected ErrNoSeed, got %v", err)
		}
	})

	t.Run("unknown scheme", func(t *testing.T) {
		t.Parallel()
		_, err := (Spider{Seed: "ftp://example.com"}).SeedLink()
		if !errors.Is(err, model.ErrUnknownProtocol) {
			t.Errorf("expected ErrUnknownProtocol, got %v", err)
		}
	})

	t.Run("valid seed", func(t *testing.T) {
		t.Parallel()
		link, err := (Spider{Seed: "https://example.com/start"}).SeedLink()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := model.Link{Protocol: model.ProtocolHTTPS, Host: "example.com", Path: "/start"}
		if link != want {
			t.Errorf("got %+v, want %+v", link, want)
		}
	})
}

func TestDatabase_ConnString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		db   Database
		want string
	}{
		{
			name: "all fields",
			db:   Database{Driver: DriverPostgres, Host: "db", Port: 5433, Name: "search", User: "spider", Password: "pw"},
			want: "host=db port=5433 dbname=search user=spider password=pw",
		},
		{
			name: "empty fields are omitted",
			db:   Database{Driver: DriverPostgres, Name: "search"},
			want: "dbname=search",
		},
		{
			name: "values with spaces and quotes are quoted",
			db:   Database{Driver: DriverPostgres, Name: "search", Password: `it's a pw`},
			want: `dbname=search password='it\'s a pw'`,
		},
		{
			name: "sqlite returns the path",
			db:   Database{Driver: DriverSQLite, Path: "/tmp/index.db", Host: "ignored"},
			want: "/tmp/index.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.db.ConnString(); got != tt.want {
				t.Errorf("ConnString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("overlays defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
database:
  driver: sqlite
  path: /var/lib/spidersearch/index.db
spider:
  seed: https://example.com/
  depth: 2
  timeout: 5s
  parser: dom
server:
  port: 9090
  cache_ttl: 1m
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Database.Driver != DriverSQLite || cfg.Database.Path != "/var/lib/spidersearch/index.db" {
			t.Errorf("database not loaded: %+v", cfg.Database)
		}
		if cfg.Spider.Seed != "https://example.com/" || cfg.Spider.Depth != 2 {
			t.Errorf("spider not loaded: %+v", cfg.Spider)
		}
		if cfg.Spider.Timeout != 5*time.Second {
			t.Errorf("expected 5s timeout, got %v", cfg.Spider.Timeout)
		}
		if cfg.Spider.Parser != ParserDOM {
			t.Errorf("expected dom parser, got %q", cfg.Spider.Parser)
		}
		if cfg.Spider.UserAgent != DefaultUserAgent {
			t.Errorf("missing key should keep default, got %q", cfg.Spider.UserAgent)
		}
		if cfg.Server.Port != 9090 || cfg.Server.CacheTTL != time.Minute {
			t.Errorf("server not loaded: %+v", cfg.Server)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("database: [unclosed"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestFindConfigFile_ExplicitPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	if got := FindConfigFile(path); got != path {
		t.Errorf("expected %s, got %s", path, got)
	}
	if got := FindConfigFile(path + ".missing"); got != "" {
		t.Errorf("expected empty result for missing explicit path, got %s", got)
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		EnvDBHost:     "db.internal",
		EnvDBPort:     "6543",
		EnvDBPassword: "s3cret",
		EnvSeed:       "http://seed.example/",
		EnvRedisAddr:  "cache:6379",
		EnvDBName:     "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := NewConfig()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 6543 {
		t.Errorf("database address not applied: %+v", cfg.Database)
	}
	if cfg.Database.Password != "s3cret" {
		t.Error("password not applied")
	}
	if cfg.Database.Name != DefaultDBName {
		t.Errorf("empty variable should not override, got %q", cfg.Database.Name)
	}
	if cfg.Spider.Seed != "http://seed.example/" {
		t.Errorf("seed not applied: %q", cfg.Spider.Seed)
	}
	if cfg.Server.RedisAddr != "cache:6379" {
		t.Errorf("redis addr not applied: %q", cfg.Server.RedisAddr)
	}

	bad := NewConfig()
	err := bad.ApplyEnv(func(k string) (string, bool) {
		if k == EnvDBPort {
			return "not-a-port", true
		}
		return "", false
	})
	if err == nil {
		t.Error("expected error for invalid port")
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("loads variables", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("SPIDERSEARCH_TEST_DOTENV=loaded\n"), 0600); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = os.Unsetenv("SPIDERSEARCH_TEST_DOTENV") })

		if err := LoadDotEnv(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := os.Getenv("SPIDERSEARCH_TEST_DOTENV"); got != "loaded" {
			t.Errorf("expected variable to be loaded, got %q", got)
		}
	})
}
