// Package logging provides structured logging using uber/zap.
//
// Two output modes are supported:
//   - Production: JSON lines, to stderr or appended to a log file
//   - Development: Colored console output for human readability
//
// The resolver does not use zap directly. It writes through Sink, a five-level
// fire-and-forget interface (Debug, Info, Warn, Error, Fatal). Fatal entries are
// recorded at fatal level but never exit the process.
//
// Example Usage:
//
//	logger, err := logging.New(logging.FileConfig("info", "/var/log/assetfetch.log"))
//	sink := logging.Guard(logger.Sink())
//	sink.Error("could not load file contents from /a.js", err)
package logging
