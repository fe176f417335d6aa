// Package fetch retrieves the text of an external resource on behalf of the
// current request.
//
// Every fetch is a single GET with no retries:
//   - the inbound request's cookies are replayed through a per-fetch cookie jar
//   - the body is decoded as UTF-8 (or by declared charset in auto mode)
//   - one leading byte-order mark is removed
//   - any transport error or non-2xx status is returned as an error
//
// Built on go-resty/resty over a pooled go-retryablehttp transport, with an
// optional rate limiter and circuit breaker.
//
// Example Usage:
//
//	f := fetch.New(fetch.DefaultOptions(), logger.Sink())
//	text, err := f.Fetch(ctx, "https://cdn.example.com/app.js", cookies)
package fetch
