// Package pipeline wires discovery, crawling, acquisition and ingestion
// together in the order the data flows through them.
package pipeline

import (
	"context"
	"fmt"

	"fcrawatch/internal/acquire"
	"fcrawatch/internal/catalog"
	"fcrawatch/internal/components/assert"
	"fcrawatch/internal/components/db"
	"fcrawatch/internal/components/failure"
	"fcrawatch/internal/components/telemetry"
	"fcrawatch/internal/crawler"
	"fcrawatch/internal/ingest"
)

const (
	report_pipeline_discover = "pipeline.discover"
	report_pipeline_missing  = "pipeline.missing-sub-jurisdiction"
	report_pipeline_units    = "pipeline.units"
)

type Pipeline struct {
	qry        *db.Queries
	makeTx     db.MakeTx
	discoverer catalog.Discoverer
	cache      catalog.Cache
	formUrl    string
	crawler    crawler.Crawler
	acquirer   acquire.Acquirer
	ingestor   ingest.Ingestor
	root       string
	tel        telemetry.API
}

type Components struct {
	Discoverer catalog.Discoverer
	Cache      catalog.Cache
	// FormUrl keys the catalog cache.
	FormUrl  string
	Crawler  crawler.Crawler
	Acquirer acquire.Acquirer
	Ingestor ingest.Ingestor
	// Root is the directory documents are written to and ingested from.
	Root string
}

func NewPipeline(qry *db.Queries, makeTx db.MakeTx, components Components, tel telemetry.API) Pipeline {
	assert.NotNil(qry)
	assert.NotNil(makeTx)
	assert.NotNil(tel)
	assert.NotEmptyStr(components.Root, "document root")

	return Pipeline{
		qry:        qry,
		makeTx:     makeTx,
		discoverer: components.Discoverer,
		cache:      components.Cache,
		formUrl:    components.FormUrl,
		crawler:    components.Crawler,
		acquirer:   components.Acquirer,
		ingestor:   components.Ingestor,
		root:       components.Root,
		tel:        telemetry.NewScopedAPI("pipeline", tel),
	}
}

// Discover loads the catalog (walking the form when it is not cached or
// refresh is set) and seeds its jurisdictions into the store.
func (p Pipeline) Discover(ctx context.Context, refresh bool) (catalog.Catalog, map[catalog.SubKey]int64, error) {
	cat, err := catalog.CachedWalk(ctx, p.discoverer, p.cache, p.formUrl, refresh)
	if err != nil {
		return catalog.Catalog{}, nil, fmt.Errorf("discover: %w", err)
	}
	ids, err := catalog.Seed(ctx, p.makeTx, cat)
	if err != nil {
		return catalog.Catalog{}, nil, err
	}

	p.tel.ReportCount(report_pipeline_discover, int64(len(cat.SubJurisdictions)))
	return cat, ids, nil
}

// Scope restricts a crawl, empty lists crawl everything.
type Scope struct {
	Jurisdictions []string
	Years         []string
}

type CrawlStats struct {
	Crawl   crawler.Stats
	Acquire acquire.Stats
}

// Requests turns the pending filings of a crawled unit into acquisition
// requests.
func Requests(result crawler.Result) []acquire.Request {
	pending := result.Pending()
	reqs := make([]acquire.Request, len(pending))
	for i, filing := range pending {
		reqs[i] = acquire.Request{
			Registration: filing.Registration,
			Year:         result.Unit.Year,
			Quarter:      result.Unit.Quarter,
			Sub:          result.Unit.Sub,
			SubID:        result.Unit.SubID,
		}
	}
	return reqs
}

// Crawl crawls every unit of the catalog within scope and acquires the
// documents of each unit before moving on to the next.
func (p Pipeline) Crawl(ctx context.Context, cat catalog.Catalog, ids map[catalog.SubKey]int64, scope Scope) (CrawlStats, error) {
	scoped := cat.Filter(scope.Jurisdictions, scope.Years)
	units := crawler.Units(scoped, ids, func(key catalog.SubKey) {
		p.tel.ReportWarning(
			report_pipeline_missing,
			failure.New(failure.KindSchemaViolation, "sub-jurisdiction %s/%s was never seeded", key.JurisdictionID, key.LocalCode),
		)
	})
	p.tel.ReportCount(report_pipeline_units, int64(len(units)))

	var stats CrawlStats
	sink := func(ctx context.Context, result crawler.Result) error {
		reqs := Requests(result)
		if len(reqs) == 0 {
			return nil
		}
		acquired, err := p.acquirer.AcquireAll(ctx, reqs)
		stats.Acquire.Requested += acquired.Requested
		stats.Acquire.Skipped += acquired.Skipped
		stats.Acquire.Ok += acquired.Ok
		stats.Acquire.Broken += acquired.Broken
		stats.Acquire.Failed += acquired.Failed
		return err
	}

	crawled, err := p.crawler.Crawl(ctx, units, sink)
	stats.Crawl = crawled
	if err != nil {
		return stats, fmt.Errorf("crawl: %w", err)
	}
	return stats, nil
}

func (p Pipeline) Resume(ctx context.Context) (acquire.Stats, error) {
	stats, err := p.acquirer.ResumePending(ctx)
	if err != nil {
		return stats, fmt.Errorf("resume: %w", err)
	}
	return stats, nil
}

func (p Pipeline) Ingest(ctx context.Context) (ingest.Stats, error) {
	stats, err := p.ingestor.IngestDir(ctx, p.root)
	if err != nil {
		return stats, fmt.Errorf("ingest: %w", err)
	}
	return stats, nil
}

type RunOptions struct {
	Refresh bool
	Scope   Scope
}

type RunStats struct {
	CrawlStats
	Resume acquire.Stats
	Ingest ingest.Stats
}

// Run runs every stage in order. Units and files that fail are reported by
// the stage that ran into them, only a fatal error stops the run.
func (p Pipeline) Run(ctx context.Context, opts RunOptions) (RunStats, error) {
	var stats RunStats

	cat, ids, err := p.Discover(ctx, opts.Refresh)
	if err != nil {
		return stats, err
	}
	stats.CrawlStats, err = p.Crawl(ctx, cat, ids, opts.Scope)
	if err != nil {
		return stats, err
	}
	stats.Resume, err = p.Resume(ctx)
	if err != nil {
		return stats, err
	}
	stats.Ingest, err = p.Ingest(ctx)
	if err != nil {
		return stats, err
	}
	return stats, nil
}
