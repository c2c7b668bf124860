package model

import "time"

// CacheEntry is a cached value with an absolute expiry.
type CacheEntry struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FreshAt reports whether the entry can still be served at now, keeping
// margin before its expiry.
func (e *CacheEntry) FreshAt(now time.Time, margin time.Duration) bool {
	return e != nil && e.Value != "" && now.Before(e.ExpiresAt.Add(-margin))
}
