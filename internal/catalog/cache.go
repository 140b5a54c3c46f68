package catalog

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"fcrawatch/internal/components/chrono"

	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("fcrawatch/catalog")

var ErrCatalogNotCached = errors.New("catalog not cached")

type cachedCatalog struct {
	Catalog   Catalog
	ExpiresAt int64
}

// Cache keeps discovered catalogs in badger so a re-run does not walk the
// whole form again. Entries are keyed by the form url.
type Cache struct {
	db   *badger.DB
	ttl  time.Duration
	time chrono.API
}

// OpenCache opens (or creates) the cache in dir, an empty dir keeps the cache
// in memory.
func OpenCache(dir string, ttl time.Duration, clock chrono.API) (Cache, error) {
	opts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.WARNING)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return Cache{}, fmt.Errorf("open catalog cache: %w", err)
	}
	return NewCache(db, ttl, clock), nil
}

func NewCache(db *badger.DB, ttl time.Duration, clock chrono.API) Cache {
	return Cache{db: db, ttl: ttl, time: clock}
}

func (c Cache) Close() error {
	return c.db.Close()
}

func (c Cache) key(formUrl string) []byte {
	return []byte("catalog:" + formUrl)
}

func (c Cache) Get(ctx context.Context, formUrl string) (Catalog, error) {
	_, span := tracer.Start(ctx, "cache.get")
	defer span.End()
	span.SetAttributes(attribute.String("cache_key", string(c.key(formUrl))))

	var serialized []byte
	err := c.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(c.key(formUrl))
		if err != nil {
			return err
		}
		serialized, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return Catalog{}, ErrCatalogNotCached
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return Catalog{}, err
	}

	var cached cachedCatalog
	err = gob.NewDecoder(bytes.NewBuffer(serialized)).Decode(&cached)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize cached catalog")
		return Catalog{}, err
	}

	if c.time.Now().Unix() >= cached.ExpiresAt {
		span.AddEvent("delete expired catalog")
		err = c.db.Update(func(tx *badger.Txn) error {
			return tx.Delete(c.key(formUrl))
		})
		if err != nil {
			span.RecordError(err)
		}
		return Catalog{}, ErrCatalogNotCached
	}

	return cached.Catalog, nil
}

func (c Cache) Set(ctx context.Context, formUrl string, catalog Catalog) error {
	_, span := tracer.Start(ctx, "cache.set")
	defer span.End()

	serialized := bytes.NewBuffer(nil)
	err := gob.NewEncoder(serialized).Encode(cachedCatalog{
		Catalog:   catalog,
		ExpiresAt: c.time.Now().Add(c.ttl).Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize catalog")
		return err
	}

	err = c.db.Update(func(tx *badger.Txn) error {
		return tx.Set(c.key(formUrl), serialized.Bytes())
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set badger item")
		return err
	}
	return nil
}

// CachedWalk returns the cached catalog for formUrl, walking the form (and
// refreshing the cache) when there is none or refresh is set.
func CachedWalk(ctx context.Context, discoverer Discoverer, cache Cache, formUrl string, refresh bool) (Catalog, error) {
	if !refresh {
		cached, err := cache.Get(ctx, formUrl)
		if err == nil {
			discoverer.tel.ReportDebug("using cached catalog", formUrl)
			return cached, nil
		}
		if err != ErrCatalogNotCached {
			discoverer.tel.ReportWarning(report_discovery_walk, fmt.Errorf("read cache: %w", err))
		}
	}

	catalog, err := discoverer.Walk(ctx)
	if err != nil {
		return Catalog{}, err
	}
	err = cache.Set(ctx, formUrl, catalog)
	if err != nil {
		discoverer.tel.ReportWarning(report_discovery_walk, fmt.Errorf("write cache: %w", err))
	}
	return catalog, nil
}
