// Package resolver turns a reference to a script or style asset into its
// text.
//
// A reference is classified first (see package uri):
//   - local executables are rendered in-process by the host environment
//   - internal handler routes and self-referencing URLs are fetched without an
//     allow-list check
//   - external URLs are fetched only when their authority is approved by the
//     allow-list (see package allowlist), and any redirect they follow must be
//     approved as well
//
// Resolve never returns an error. It returns a Result whose Success flag must
// be checked, since a failure and an empty asset both carry empty Content.
// Each failure is logged once at Error level; a domain rejection is logged
// without an attached error.
//
// Example Usage:
//
//	r := resolver.New(resolver.Config{
//		Fetcher: fetch.New(fetch.DefaultOptions(), sink),
//		Logger:  sink,
//	})
//	res := r.Resolve(ctx, host.New(req, host.Options{}), "~/scripts/app.js", cfg.AllowList.Domains)
//	if !res.Success {
//		return res.Err
//	}
package resolver
