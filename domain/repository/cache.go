package repository

import (
	"context"

	"mediahub/domain/model"
)

// ICache is a string-keyed store of values with absolute expiry.
// Get and Pop return nil, nil when the key is absent or expired.
type ICache interface {
	Get(ctx context.Context, key string) (*model.CacheEntry, error)
	Set(ctx context.Context, key string, entry model.CacheEntry) error
	Pop(ctx context.Context, key string) (*model.CacheEntry, error)
}
