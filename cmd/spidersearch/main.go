// Package main provides the entry point for the spidersearch CLI.
//
// spidersearch crawls a site into a relational index and answers ranked
// keyword queries over it.
//
// Usage:
//
//	spidersearch crawl --seed https://example.com --depth 2
//	spidersearch serve --port 8080
//	spidersearch search golang tutorial
//
// See --help for all available options.
package main

func main() {
	Execute()
}
