// Package config provides 12-factor configuration management for assetfetch.
//
// Configuration is loaded from environment variables with sensible defaults,
// or from a YAML/TOML file. Allow-list entries are normalized on load.
//
// Configuration Sections:
//   - Logging: Log level, output format and optional log file
//   - AllowList: Approved external domains and the legacy matching flag
//   - Classifier: Executable page suffix and internal handler route
//   - Fetch: Timeout, User-Agent, rate limit, circuit breaker, charset, credentials
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	f := fetch.New(cfg.FetchOptions(), sink)
//
// Environment Variables:
//   - LOG_LEVEL, LOG_DEV, LOG_FILE
//   - ALLOWED_DOMAINS (comma separated), ALLOWLIST_LEGACY_MATCH
//   - EXECUTABLE_SUFFIX, HANDLER_PATH
//   - FETCH_TIMEOUT_SECONDS, FETCH_USER_AGENT, FETCH_RATE_LIMIT
//   - FETCH_BREAKER_ENABLED, FETCH_CHARSET, FETCH_USERNAME, FETCH_PASSWORD
package config
