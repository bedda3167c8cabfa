// Package cache implements a TTL key-value store used for read-through
// caching of external service responses.
//
// Expiry is lazy: an expired entry is treated as a miss by Get/Exists and
// removed at that point. There is no secondary eviction policy (no LRU),
// so the store grows with the key space between reads.
//
// Usage:
//
//	store := cache.New(clock.System())
//	store.Set("media-server:library", payload, 5*time.Minute)
//	if v, ok := store.Get("media-server:library"); ok {
//	    // Serve cached response...
//	}
package cache
