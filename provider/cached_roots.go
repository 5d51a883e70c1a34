package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/AngleProtocol/merkl-dispute-sub000/cache"
	"github.com/AngleProtocol/merkl-dispute-sub000/logger"
)

// CachedRootsProvider keeps published snapshots and root lookups in a
// Store. Both never change once published, so entries are never
// invalidated. Store failures fall through to the inner provider.
type CachedRootsProvider struct {
	inner   MerkleRootsProvider
	store   cache.Store
	chainID uint64
	logger  logger.Logger
}

var _ MerkleRootsProvider = (*CachedRootsProvider)(nil)

func NewCachedRootsProvider(inner MerkleRootsProvider, store cache.Store, chainID uint64, log logger.Logger) *CachedRootsProvider {
	return &CachedRootsProvider{inner: inner, store: store, chainID: chainID, logger: log}
}

func (c *CachedRootsProvider) FetchEpochFor(ctx context.Context, root string) (uint32, error) {
	key := fmt.Sprintf("epoch/%d/%s", c.chainID, strings.ToLower(root))
	if v, ok := c.lookup(ctx, key); ok {
		epoch, err := strconv.ParseUint(string(v), 10, 32)
		if err == nil {
			return uint32(epoch), nil
		}
		c.logger.Warn("ignoring corrupt cache entry", logger.WithField("key", key), logger.WithError(err))
	}

	epoch, err := c.inner.FetchEpochFor(ctx, root)
	if err != nil {
		return 0, err
	}
	if err := c.store.Set(ctx, key, []byte(strconv.FormatUint(uint64(epoch), 10))); err != nil {
		c.logger.Warn("failed to cache root", logger.WithField("key", key), logger.WithError(err))
	}
	return epoch, nil
}

func (c *CachedRootsProvider) FetchTreeFor(ctx context.Context, epoch uint32) ([]byte, error) {
	key := fmt.Sprintf("tree/%d/%d", c.chainID, epoch)
	if v, ok := c.lookup(ctx, key); ok {
		return v, nil
	}

	data, err := c.inner.FetchTreeFor(ctx, epoch)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		c.logger.Warn("failed to cache snapshot", logger.WithField("key", key), logger.WithError(err))
	}
	return data, nil
}

func (c *CachedRootsProvider) lookup(ctx context.Context, key string) ([]byte, bool) {
	v, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", logger.WithField("key", key), logger.WithError(err))
		return nil, false
	}
	return v, ok
}
