/*
Package resilience provides a circuit breaker for outbound asset fetches.

# Overview

When enabled, the fetcher routes every GET through a Breaker. After repeated
transport failures the breaker opens and further fetches fail immediately with
ErrCircuitOpen instead of waiting on an unresponsive upstream. No retries are
performed; the breaker only short-circuits.

# Usage

	breaker := resilience.New("asset-fetch", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	body, err := resilience.Execute(breaker, func() ([]byte, error) {
		return get(ctx, target)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                         Open
*/
package resilience
