package config

import "errors"

// Configuration validation errors returned by Validate.
var (
	// ErrUnknownDriver is returned when database.driver is neither postgres nor sqlite.
	ErrUnknownDriver = errors.New("unknown database driver: must be postgres or sqlite")

	// ErrNoDatabaseName is returned when the postgres driver has no database name.
	ErrNoDatabaseName = errors.New("database name is required for the postgres driver")

	// ErrNoDatabasePath is returned when the sqlite driver has no file path.
	ErrNoDatabasePath = errors.New("database path is required for the sqlite driver")

	// ErrInvalidMaxConns is returned when the connection pool size is negative.
	ErrInvalidMaxConns = errors.New("invalid max_conns: must be non-negative")

	// ErrNoSeed is returned when a crawl is requested without a seed URL.
	ErrNoSeed = errors.New("no seed URL: set spider.seed or pass --seed")

	// ErrInvalidDepth is returned when the crawl depth is negative.
	ErrInvalidDepth = errors.New("invalid depth: must be non-negative")

	// ErrInvalidWorkers is returned when the worker count is negative.
	ErrInvalidWorkers = errors.New("invalid workers: must be non-negative")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the body limit is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidMaxRedirects is returned when the redirect hop limit is negative.
	ErrInvalidMaxRedirects = errors.New("invalid max redirects: must be non-negative")

	// ErrUnknownParser is returned when spider.parser names no known extractor.
	ErrUnknownParser = errors.New("unknown parser: must be pattern or dom")

	// ErrInvalidPort is returned when server.port is outside 1-65535.
	ErrInvalidPort = errors.New("invalid port: must be between 1 and 65535")

	// ErrInvalidCacheTTL is returned when the result cache TTL is negative.
	ErrInvalidCacheTTL = errors.New("invalid cache TTL: must be non-negative")
)
