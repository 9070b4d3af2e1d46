package search

import (
	"context"
	"sync"
	"time"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/terminology"
	"github.com/rs/zerolog"
)

type CacheConfig struct {
	// TTL is how long a fetched catalog is served before the store is asked
	// again. Zero disables caching.
	TTL time.Duration
	// CleanupInterval is how often expired catalogs are dropped. Zero means
	// they are only replaced on the next miss.
	CleanupInterval time.Duration
}

type cachedCatalog struct {
	catalog   *terminology.CodeCatalog
	expiresAt time.Time
}

// CatalogCache keeps whole catalogs from a CatalogReader for a while so
// searches do not refetch the catalog every time. Failed fetches are not
// cached.
type CatalogCache struct {
	reader   CatalogReader
	config   CacheConfig
	entries  sync.Map // catalog id -> *cachedCatalog
	now      func() time.Time
	log      zerolog.Logger
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewCatalogCache returns reader itself when cfg disables caching.
func NewCatalogCache(reader CatalogReader, cfg CacheConfig, log zerolog.Logger) CatalogReader {
	if cfg.TTL <= 0 {
		return reader
	}
	cache := &CatalogCache{
		reader:   reader,
		config:   cfg,
		now:      time.Now,
		log:      log.With().Str("component", "catalog_cache").Logger(),
		stopChan: make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go cache.startCleanupRoutine()
	}
	cache.log.Info().Dur("ttl", cfg.TTL).Msg("Catalog cache enabled")
	return cache
}

func (c *CatalogCache) GetCatalog(ctx context.Context, id string) (*terminology.CodeCatalog, error) {
	if value, ok := c.entries.Load(id); ok {
		entry := value.(*cachedCatalog)
		if c.now().Before(entry.expiresAt) {
			return entry.catalog, nil
		}
	}

	catalog, err := c.reader.GetCatalog(ctx, id)
	if err != nil {
		return nil, err
	}
	c.entries.Store(id, &cachedCatalog{catalog: catalog, expiresAt: c.now().Add(c.config.TTL)})
	c.log.Debug().Str("catalog", id).Int("concepts", len(catalog.Concepts)).Msg("Catalog cached")
	return catalog, nil
}

// Invalidate drops a cached catalog, e.g. after it was re-ingested.
func (c *CatalogCache) Invalidate(id string) {
	c.entries.Delete(id)
}

// Stop ends the cleanup routine.
func (c *CatalogCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *CatalogCache) startCleanupRoutine() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopChan:
			return
		}
	}
}

func (c *CatalogCache) cleanup() {
	now := c.now()
	removed := 0
	c.entries.Range(func(key, value any) bool {
		if !now.Before(value.(*cachedCatalog).expiresAt) {
			c.entries.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		c.log.Debug().Int("removed", removed).Msg("Expired catalogs removed")
	}
}
