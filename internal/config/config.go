package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/spidersearch/internal/model"
)

// AppName is used for XDG directory paths.
const AppName = "spidersearch"

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Link extractors selectable with spider.parser.
const (
	ParserPattern = "pattern"
	ParserDOM     = "dom"
)

// Default configuration values.
const (
	DefaultDriver = DriverPostgres

	DefaultDBHost = "localhost"

	DefaultDBPort = 5432

	DefaultDBName = "search"

	DefaultDBUser = "postgres"

	// DefaultMaxConns sizes the Postgres pool independently of the worker count.
	DefaultMaxConns = 4

	DefaultDepth = 1

	// DefaultTimeout is the per-request connection deadline.
	DefaultTimeout = 30 * time.Second

	DefaultUserAgent = "spidersearch/1.0 (+https://github.com/nao1215/spidersearch)"

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize = 10 * 1024 * 1024

	// DefaultMaxRedirects bounds a redirect chain resubmitted at the same depth.
	DefaultMaxRedirects = 5

	// DefaultOutputCharset is the single charset fetched text is normalized to.
	DefaultOutputCharset = "windows-1251"

	DefaultParser = ParserPattern

	DefaultServerPort = 8080

	DefaultCacheTTL = 5 * time.Minute

	DefaultReadTimeout = 10 * time.Second
)

// Database holds index store connection settings.
type Database struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	// Path is the SQLite database file. Ignored by the postgres driver.
	Path string `yaml:"path"`
	// MaxConns is the Postgres pool size. 0 keeps the pgxpool default.
	MaxConns int32 `yaml:"max_conns"`
}

// ConnString assembles a keyword/value connection string for the postgres
// driver, or the file path for sqlite.
func (d Database) ConnString() string {
	if d.Driver == DriverSQLite {
		return d.Path
	}

	var parts []string
	add := func(key, value string) {
		if value != "" {
			parts = append(parts, key+"="+quoteConnValue(value))
		}
	}
	add("host", d.Host)
	if d.Port != 0 {
		add("port", strconv.Itoa(d.Port))
	}
	add("dbname", d.Name)
	add("user", d.User)
	add("password", d.Password)
	return strings.Join(parts, " ")
}

// quoteConnValue quotes a value for the libpq keyword/value format.
func quoteConnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// Validate checks the database section.
func (d Database) Validate() error {
	switch d.Driver {
	case DriverPostgres:
		if d.Name == "" {
			return ErrNoDatabaseName
		}
	case DriverSQLite:
		if d.Path == "" {
			return ErrNoDatabasePath
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, d.Driver)
	}
	if d.MaxConns < 0 {
		return ErrInvalidMaxConns
	}
	return nil
}

// Spider holds crawler and fetcher settings.
type Spider struct {
	// Seed is the URL the crawl starts from.
	Seed string `yaml:"seed"`
	// Depth is the recursion budget: 0 indexes only the seed.
	Depth int `yaml:"depth"`
	// Workers is the scheduler size. 0 selects NumCPU-2 (at least 1).
	Workers       int           `yaml:"workers"`
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	MaxBodySize   int64         `yaml:"max_body_size"`
	MaxRedirects  int           `yaml:"max_redirects"`
	OutputCharset string        `yaml:"output_charset"`
	Parser        string        `yaml:"parser"`
}

// Validate checks the spider section. A missing seed is not an error here;
// only the crawl command requires one (see SeedLink).
func (s Spider) Validate() error {
	if s.Depth < 0 {
		return ErrInvalidDepth
	}
	if s.Workers < 0 {
		return ErrInvalidWorkers
	}
	if s.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if s.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if s.MaxRedirects < 0 {
		return ErrInvalidMaxRedirects
	}
	if s.Parser != ParserPattern && s.Parser != ParserDOM {
		return fmt.Errorf("%w: %q", ErrUnknownParser, s.Parser)
	}
	return nil
}

// SeedLink parses the seed URL.
func (s Spider) SeedLink() (model.Link, error) {
	if strings.TrimSpace(s.Seed) == "" {
		return model.Link{}, ErrNoSeed
	}
	link, err := model.Parse(s.Seed)
	if err != nil {
		return model.Link{}, fmt.Errorf("invalid seed URL: %w", err)
	}
	return link, nil
}

// Server holds query frontend settings.
type Server struct {
	Port int `yaml:"port"`
	// RedisAddr enables the ranked result cache when set (host:port).
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
}

// Addr returns the listen address.
func (s Server) Addr() string {
	return ":" + strconv.Itoa(s.Port)
}

// Validate checks the server section.
func (s Server) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return ErrInvalidPort
	}
	if s.CacheTTL < 0 {
		return ErrInvalidCacheTTL
	}
	return nil
}

// Config is the full settings object.
type Config struct {
	Database Database `yaml:"database"`
	Spider   Spider   `yaml:"spider"`
	Server   Server   `yaml:"server"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Database: Database{
			Driver:   DefaultDriver,
			Host:     DefaultDBHost,
			Port:     DefaultDBPort,
			Name:     DefaultDBName,
			User:     DefaultDBUser,
			Path:     DefaultSQLitePath(),
			MaxConns: DefaultMaxConns,
		},
		Spider: Spider{
			Depth:         DefaultDepth,
			Timeout:       DefaultTimeout,
			UserAgent:     DefaultUserAgent,
			MaxBodySize:   DefaultMaxBodySize,
			MaxRedirects:  DefaultMaxRedirects,
			OutputCharset: DefaultOutputCharset,
			Parser:        DefaultParser,
		},
		Server: Server{
			Port:        DefaultServerPort,
			CacheTTL:    DefaultCacheTTL,
			ReadTimeout: DefaultReadTimeout,
		},
	}
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Spider.Validate(); err != nil {
		return err
	}
	return c.Server.Validate()
}

// XDGDataDir returns the data directory, e.g. ~/.local/share/spidersearch on Linux.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory, e.g. ~/.config/spidersearch on Linux.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultSQLitePath is where the sqlite driver keeps its index by default.
func DefaultSQLitePath() string {
	return filepath.Join(XDGDataDir(), "index.db")
}
