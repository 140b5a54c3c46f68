package commands

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fcrawatch/internal/acquire"
	"fcrawatch/internal/catalog"
	"fcrawatch/internal/components/chrono"
	"fcrawatch/internal/components/db"
	"fcrawatch/internal/crawler"
	"fcrawatch/internal/ingest"
	"fcrawatch/internal/pipeline"
	"fcrawatch/internal/scrapers/fcra"
	"fcrawatch/pkg/migrations"
)

type store struct {
	db     *sql.DB
	qry    *db.Queries
	makeTx db.MakeTx
}

func openStore() (store, error) {
	sqldb, err := migrations.OpenAndMigrateDB(db.Schema, config.Database)
	if err != nil {
		return store{}, err
	}
	return store{
		db:     sqldb,
		qry:    db.New(sqldb),
		makeTx: db.NewMakeTx(sqldb),
	}, nil
}

type app struct {
	store
	clock    chrono.StandardImpl
	cache    catalog.Cache
	pipeline pipeline.Pipeline
}

func (a app) Close() error {
	return errors.Join(a.cache.Close(), a.db.Close())
}

// openApp builds the whole pipeline out of the loaded config.
func openApp() (app, error) {
	clock, err := chrono.NewStandardImpl(config.Location)
	if err != nil {
		return app{}, fmt.Errorf("load location: %w", err)
	}

	session, err := fcra.NewFormSession(config.Form, tel)
	if err != nil {
		return app{}, err
	}
	documents, err := fcra.NewDocumentClient(config.Documents, tel)
	if err != nil {
		return app{}, err
	}

	s, err := openStore()
	if err != nil {
		return app{}, err
	}
	cache, err := catalog.OpenCache(
		config.CacheDir,
		time.Duration(config.CacheTtlHours)*time.Hour,
		clock,
	)
	if err != nil {
		s.db.Close()
		return app{}, err
	}

	crawlOpts := config.crawlOptions()
	components := pipeline.Components{
		Discoverer: catalog.NewDiscoverer(session, clock, crawlOpts.Settle, tel),
		Cache:      cache,
		FormUrl:    config.Form.Url,
		Crawler:    crawler.NewCrawler(session, s.makeTx, clock, crawlOpts, tel),
		Acquirer: acquire.NewAcquirer(
			s.qry,
			s.makeTx,
			documents,
			config.checker(),
			clock,
			config.acquireOptions(),
			tel,
		),
		Ingestor: ingest.NewIngestor(
			s.qry,
			ingest.NewTabulaReader(config.Tabula),
			clock,
			ingest.Options{Workers: config.Ingest.Workers, Force: ingestForce},
			tel,
		),
		Root: config.DisclosuresDir,
	}

	return app{
		store:    s,
		clock:    clock,
		cache:    cache,
		pipeline: pipeline.NewPipeline(s.qry, s.makeTx, components, tel),
	}, nil
}
