// Package model defines the value types shared across the crawl pipeline.
//
// The central type is Link, a parsed (protocol, host, path) triple that
// identifies a fetchable resource. Links are comparable with == and are
// rendered back to their canonical text form with String, which is also
// the key under which a crawled document is stored in the index.
package model
