// Package geo defines the pluggable IP location lookup used by the
// click recorder. Lookups are advisory: anything that fails, times out
// or is simply not wired resolves to Unknown/Unknown.
package geo

import (
	"context"
	"time"
)

const Unknown = "Unknown"

type Location struct {
	Country string
	City    string
}

// UnknownLocation is what clicks record when no lookup is available.
var UnknownLocation = Location{Country: Unknown, City: Unknown}

type Lookup interface {
	Lookup(ctx context.Context, ip string) (Location, error)
}

// NoopLookup always answers Unknown. It stands in when no geo provider
// is configured.
type NoopLookup struct{}

func (NoopLookup) Lookup(context.Context, string) (Location, error) {
	return UnknownLocation, nil
}

// Bounded wraps a lookup with a per-call deadline so a slow provider
// can never stall resolution.
func Bounded(l Lookup, timeout time.Duration) Lookup {
	return &boundedLookup{inner: l, timeout: timeout}
}

type boundedLookup struct {
	inner   Lookup
	timeout time.Duration
}

func (b *boundedLookup) Lookup(ctx context.Context, ip string) (Location, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.inner.Lookup(ctx, ip)
}
