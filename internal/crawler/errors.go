package crawler

import "errors"

var (
	// ErrInvalidSeed is returned by Crawl for a seed without protocol or host.
	ErrInvalidSeed = errors.New("invalid seed link")

	// ErrNegativeDepth is returned by Crawl for a depth below zero.
	ErrNegativeDepth = errors.New("depth must not be negative")
)
