package timezone

import (
	"fmt"
	"time"

	"github.com/Amund211/stillhere/internal/domain"
	"github.com/jellydator/ttlcache/v3"
)

// Resolver turns IANA timezone identifiers into locations.
//
// Loaded locations are cached since every user is resolved on every sweep and
// most users share a handful of zones.
type Resolver struct {
	cache *ttlcache.Cache[string, *time.Location]
	load  func(name string) (*time.Location, error)
}

func NewResolver(ttl time.Duration) (*Resolver, func()) {
	cache := ttlcache.New[string, *time.Location](
		ttlcache.WithTTL[string, *time.Location](ttl),
		ttlcache.WithDisableTouchOnHit[string, *time.Location](),
	)
	go cache.Start()

	return &Resolver{
		cache: cache,
		load:  time.LoadLocation,
	}, cache.Stop
}

// Location returns the location for the IANA identifier name.
//
// "" and "Local" are rejected: they would silently resolve to UTC and the
// server's zone respectively.
func (r *Resolver) Location(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, fmt.Errorf("%w: invalid timezone %q", domain.ErrConfiguration, name)
	}

	if item := r.cache.Get(name); item != nil {
		return item.Value(), nil
	}

	loc, err := r.load(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q: %w", domain.ErrConfiguration, name, err)
	}

	r.cache.Set(name, loc, ttlcache.DefaultTTL)
	return loc, nil
}
