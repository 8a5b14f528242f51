// Package config holds the settings of spidersearch.
//
// Settings are grouped the way the components consume them: Database for
// the index store, Spider for the crawler and fetcher, Server for the query
// frontend. A Config starts from NewConfig defaults, is overlaid by the YAML
// file found by FindConfigFile, then by environment variables (ApplyEnv),
// then by CLI flags. It is validated once and treated as read-only afterwards.
package config
