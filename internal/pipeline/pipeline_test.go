package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fcrawatch/internal/acquire"
	"fcrawatch/internal/catalog"
	"fcrawatch/internal/components/chrono"
	"fcrawatch/internal/components/db"
	"fcrawatch/internal/components/telemetry"
	"fcrawatch/internal/crawler"
	"fcrawatch/internal/ingest"
	"fcrawatch/internal/scrapers/fcra"
	"fcrawatch/pkg/htmlutil"
	"fcrawatch/pkg/migrations"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func opts(values ...string) []htmlutil.Option {
	out := []htmlutil.Option{{Value: "0", Label: "--Select--"}}
	for _, v := range values {
		out = append(out, htmlutil.Option{Value: v, Label: "label " + v})
	}
	return out
}

type countingFetcher struct {
	mutex sync.Mutex
	calls int
	fail  map[string]bool
}

func (f *countingFetcher) Fetch(ctx context.Context, registration, year, quarter string) ([]byte, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls++
	if f.fail[registration] {
		return nil, errors.New("connection reset by peer")
	}
	return []byte("%PDF-1.4 " + registration), nil
}

func (f *countingFetcher) count() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.calls
}

type okChecker struct{}

func (okChecker) Check(ctx context.Context, path string) (db.Integrity, error) {
	return db.INTEGRITY_OK, nil
}

// registrationReader serves the same donor table for every document of a
// registration number.
type registrationReader map[string][][]string

func (r registrationReader) ReadTable(ctx context.Context, path string) ([][]string, error) {
	key, err := ingest.ParseFileName(path)
	if err != nil {
		return nil, err
	}
	table, ok := r[key.Registration]
	if !ok {
		return nil, fmt.Errorf("no tables in %s", path)
	}
	return table, nil
}

type fixture struct {
	qry      *db.Queries
	session  *fcra.FakeSession
	fetcher  *countingFetcher
	tel      *telemetry.RecordingAPI
	pipeline Pipeline
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	sqldb, err := migrations.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })
	require.NoError(t, migrations.Migrate(sqldb, db.Schema))

	session := fcra.NewFakeSession(fcra.FakeSite{
		Years:    opts("2015-2016"),
		Quarters: map[string][]htmlutil.Option{"2015-2016": opts("1")},
		Jurisdictions: []htmlutil.Option{
			{Value: "0", Label: "--Select--"},
			{Value: "29", Label: "KARNATAKA"},
			{Value: "32", Label: "KERALA"},
		},
		SubJurisdictions: map[string][]htmlutil.Option{
			"29": opts("572"),
			"32": opts("590"),
		},
		Tables: map[string][][]string{
			fcra.FakeTableKey("2015-2016", "1", "29", "572"): {
				{"1", "Org A", "R001", "1000.00"},
				{"2", "Org B", "R002", "0.00"},
			},
			fcra.FakeTableKey("2015-2016", "1", "32", "590"): {
				{"1", "Org C", "R003", "50.00"},
			},
		},
	})

	clock := chrono.NewFakeImpl(time.Unix(1700000000, 0))
	tel := telemetry.NewRecordingAPI()
	qry := db.New(sqldb)
	makeTx := db.NewMakeTx(sqldb)
	root := t.TempDir()

	cache, err := catalog.OpenCache("", time.Hour, clock)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	fetcher := &countingFetcher{fail: map[string]bool{}}
	reader := registrationReader{
		"R001": {
			{"S.No.", "Name of Donor", "Type", "Address", "Purpose", "Amount (Rs.)"},
			{"1", "JOHN DOE", "Individual", "LONDON", "Education", "1000.00"},
		},
		"R003": {
			{"1", "ACME FOUNDATION", "Institution", "NEW YORK", "Relief", "50.00"},
		},
	}

	acquireOpts := acquire.DefaultOptions()
	acquireOpts.Root = root

	components := Components{
		Discoverer: catalog.NewDiscoverer(session, clock, 0, tel),
		Cache:      cache,
		FormUrl:    "https://fcra.test/form",
		Crawler:    crawler.NewCrawler(session, makeTx, clock, crawler.DefaultOptions(), tel),
		Acquirer:   acquire.NewAcquirer(qry, makeTx, fetcher, okChecker{}, clock, acquireOpts, tel),
		Ingestor:   ingest.NewIngestor(qry, reader, clock, ingest.DefaultOptions(), tel),
		Root:       root,
	}

	return fixture{
		qry:      qry,
		session:  session,
		fetcher:  fetcher,
		tel:      tel,
		pipeline: NewPipeline(qry, makeTx, components, tel),
	}
}

func TestRequests(t *testing.T) {
	unit := crawler.Unit{
		Year:    "2015-2016",
		Quarter: "1",
		Sub:     catalog.SubKey{JurisdictionID: "29", LocalCode: "572"},
		SubID:   7,
	}
	reqs := Requests(crawler.Result{
		Unit: unit,
		Filings: []crawler.Filing{
			{Registration: "R001", Name: "Org A"},
			{Registration: "R002", Name: "Org B", Null: true},
		},
	})

	expected := []acquire.Request{{
		Registration: "R001",
		Year:         "2015-2016",
		Quarter:      "1",
		Sub:          unit.Sub,
		SubID:        7,
	}}
	if diff := cmp.Diff(expected, reqs); diff != "" {
		t.Fatalf("requests mismatch (-want +got):\n%s", diff)
	}
}

func TestRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	stats, err := f.pipeline.Run(ctx, RunOptions{})
	require.NoError(t, err)

	require.Equal(t, 2, stats.Crawl.Units)
	require.Equal(t, 0, stats.Crawl.Abandoned)
	require.Equal(t, 3, stats.Crawl.Filings)
	require.Equal(t, 1, stats.Crawl.Null)
	require.Equal(t, 2, stats.Acquire.Ok)
	require.Equal(t, 0, stats.Resume.Requested)
	require.Equal(t, 2, stats.Ingest.Ingested)
	require.Equal(t, 2, stats.Ingest.Records)

	counts, err := f.qry.CountCatalog(ctx)
	require.NoError(t, err)
	require.Equal(t, db.CountCatalogRow{
		Jurisdictions:    2,
		SubJurisdictions: 2,
		Organizations:    3,
		Files:            2,
		Pending:          0,
		Broken:           0,
		Ingested:         2,
		Disclosures:      2,
	}, counts)

	// the null return never reaches the document endpoint
	require.Equal(t, 2, f.fetcher.count())
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.pipeline.Run(ctx, RunOptions{})
	require.NoError(t, err)
	before, err := f.qry.CountCatalog(ctx)
	require.NoError(t, err)

	stats, err := f.pipeline.Run(ctx, RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, stats.Acquire.Skipped)
	require.Equal(t, 2, stats.Ingest.Skipped)
	require.Equal(t, 2, f.fetcher.count())

	after, err := f.qry.CountCatalog(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestRunResumesFailedDownloads(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fetcher.fail["R003"] = true

	stats, err := f.pipeline.Run(ctx, RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Acquire.Failed)
	// the row reserved during the crawl is retried (and fails again) on resume
	require.Equal(t, 1, stats.Resume.Requested)
	require.Equal(t, 1, stats.Ingest.Ingested)

	counts, err := f.qry.CountCatalog(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, counts.Pending)

	f.fetcher.fail["R003"] = false
	resumed, err := f.pipeline.Resume(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, resumed.Ok)

	ingested, err := f.pipeline.Ingest(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, ingested.Ingested)
	require.Equal(t, 1, ingested.Skipped)
}

func TestCrawlScope(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cat, ids, err := f.pipeline.Discover(ctx, false)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	stats, err := f.pipeline.Crawl(ctx, cat, ids, Scope{Jurisdictions: []string{"32"}})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Crawl.Units)
	require.Equal(t, 1, stats.Acquire.Ok)

	stats, err = f.pipeline.Crawl(ctx, cat, ids, Scope{Years: []string{"2016-2017"}})
	require.NoError(t, err)
	require.Equal(t, 0, stats.Crawl.Units)
}

func TestCrawlReportsUnseededSubJurisdictions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cat, ids, err := f.pipeline.Discover(ctx, false)
	require.NoError(t, err)
	delete(ids, catalog.SubKey{JurisdictionID: "32", LocalCode: "590"})

	stats, err := f.pipeline.Crawl(ctx, cat, ids, Scope{})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Crawl.Units)
	require.Len(t, f.tel.Find(telemetry.LevelWarning, report_pipeline_missing), 1)
}

func TestDiscoverUsesCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, _, err := f.pipeline.Discover(ctx, false)
	require.NoError(t, err)
	walked := len(f.session.Calls())

	_, _, err = f.pipeline.Discover(ctx, false)
	require.NoError(t, err)
	require.Equal(t, walked, len(f.session.Calls()))

	_, _, err = f.pipeline.Discover(ctx, true)
	require.NoError(t, err)
	require.Greater(t, len(f.session.Calls()), walked)
}
