// Command assetfetch resolves asset references the way a page request would
// and prints their content.
//
// Usage:
//
//	assetfetch [flags] reference...
//
// Each reference is classified, checked against the allow-list and fetched
// or executed. Content of successful references is written to stdout; the
// exit status is 1 if any reference fails.
//
// Flags:
//
//	-config    YAML or TOML config file (default: environment variables)
//	-base      URL of the request references are resolved for
//	-app-path  virtual application path
//	-root      physical application root used to execute local pages
//	-cookie    request cookie name=value, repeatable
//	-allow     additional allow-listed domain, repeatable
//	-json      print results as JSON
//	-stats     print resolve statistics to stderr
//
// Example:
//
//	ALLOWED_DOMAINS=.cdn.example.com:443 assetfetch -base https://app.example.com/app/ \
//		-app-path /app -cookie session=abc \
//		"~/webresource.axd?d=xyz" https://cdn.example.com/lib.js
package main
