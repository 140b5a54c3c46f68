package crawler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fcrawatch/internal/components/assert"
	"fcrawatch/internal/components/chrono"
	"fcrawatch/internal/components/db"
	"fcrawatch/internal/components/failure"
	"fcrawatch/internal/components/telemetry"
	"fcrawatch/internal/scrapers/fcra"

	"github.com/antzucaro/matchr"
)

const (
	report_crawler_unit         = "crawler.unit"
	report_crawler_parse_rows   = "crawler.parse-rows"
	report_crawler_organization = "crawler.organization"
	report_crawler_jurisdiction = "crawler.jurisdiction"
	report_crawler_sink         = "crawler.sink"
	report_crawler_abandoned    = "crawler.abandoned"
)

// nullAmount is the declared amount of a return without contributions.
const nullAmount = "0.00"

type Options struct {
	// Settle is waited after every interaction with the form.
	Settle time.Duration
	// Backoff is waited after a unit was abandoned.
	Backoff time.Duration
	// NameDriftThreshold is the Jaro-Winkler similarity under which a
	// changed organization name is reported.
	NameDriftThreshold float64
}

func DefaultOptions() Options {
	return Options{
		Settle:             2500 * time.Millisecond,
		Backoff:            10 * time.Second,
		NameDriftThreshold: 0.8,
	}
}

type Crawler struct {
	session fcra.Session
	makeTx  db.MakeTx
	time    chrono.API
	opts    Options
	tel     telemetry.API
}

func NewCrawler(session fcra.Session, makeTx db.MakeTx, clock chrono.API, opts Options, tel telemetry.API) Crawler {
	assert.NotNil(session)
	assert.NotNil(makeTx)
	assert.NotNil(clock)
	assert.NotNil(tel)

	return Crawler{
		session: session,
		makeTx:  makeTx,
		time:    clock,
		opts:    opts,
		tel:     telemetry.NewScopedAPI("crawler", tel),
	}
}

type step func(ctx context.Context, unit Unit) error

func (c Crawler) steps() map[State]step {
	selectStep := func(field fcra.Field, value func(Unit) string) step {
		return func(ctx context.Context, unit Unit) error {
			return c.session.Select(ctx, field, value(unit))
		}
	}
	return map[State]step{
		StateNavigate: func(ctx context.Context, _ Unit) error {
			return c.session.Navigate(ctx)
		},
		StateSelectYear:    selectStep(fcra.FieldYear, func(u Unit) string { return u.Year }),
		StateSelectQuarter: selectStep(fcra.FieldQuarter, func(u Unit) string { return u.Quarter }),
		StateSelectJurisdiction: selectStep(fcra.FieldJurisdiction, func(u Unit) string {
			return u.Sub.JurisdictionID
		}),
		StateSelectSubJurisdiction: selectStep(fcra.FieldSubJurisdiction, func(u Unit) string {
			return u.Sub.LocalCode
		}),
		StateSubmit: func(ctx context.Context, _ Unit) error {
			return c.session.Submit(ctx)
		},
	}
}

// CrawlUnit drives the form through a single unit and upserts every
// organization it lists. Form failures are KindNavigation, store failures
// are KindStore.
func (c Crawler) CrawlUnit(ctx context.Context, unit Unit) (Result, error) {
	steps := c.steps()

	state := StateNavigate
	var rows [][]string
	var filings []Filing
	for state != StateDone {
		var err error
		switch state {
		case StateAwaitTable:
			rows, err = c.session.Table(ctx)
		case StateParseRows:
			filings = c.ParseRows(rows)
		default:
			err = steps[state](ctx, unit)
			if err == nil {
				err = c.time.Sleep(ctx, c.opts.Settle)
			}
		}
		if err != nil {
			return Result{}, failure.Wrap(
				failure.KindNavigation,
				fmt.Errorf("%s: %s: %w", unit, state, err),
			)
		}
		state++
	}

	err := c.upsertOrganizations(ctx, filings)
	if err != nil {
		return Result{}, failure.Wrap(failure.KindStore, fmt.Errorf("%s: %w", unit, err))
	}

	return Result{Unit: unit, Filings: filings}, nil
}

// ParseRows reads (index, name, registration, amount) rows. A registration
// listed more than once yields a single filing in first-seen position that
// is null if any of its rows is.
func (c Crawler) ParseRows(rows [][]string) []Filing {
	var filings []Filing
	index := map[string]int{}
	for _, row := range rows {
		if len(row) < 4 {
			c.tel.ReportDebug(report_crawler_parse_rows, "skipping short row", row)
			continue
		}
		name := strings.TrimSpace(row[1])
		registration := strings.TrimSpace(row[2])
		amount := strings.TrimSpace(row[3])
		if registration == "" {
			c.tel.ReportDebug(report_crawler_parse_rows, "skipping row without registration", row)
			continue
		}

		null := amount == nullAmount
		i, seen := index[registration]
		if !seen {
			index[registration] = len(filings)
			filings = append(filings, Filing{
				Registration: registration,
				Name:         name,
				Null:         null,
			})
			continue
		}
		filings[i].Name = name
		filings[i].Null = filings[i].Null || null
	}
	return filings
}

func (c Crawler) upsertOrganizations(ctx context.Context, filings []Filing) error {
	if len(filings) == 0 {
		return nil
	}

	tx, discard, commit, err := c.makeTx(ctx)
	if err != nil {
		return err
	}
	defer discard()

	for _, filing := range filings {
		org, err := tx.GetOrganization(ctx, filing.Registration)
		if errors.Is(err, sql.ErrNoRows) {
			err = tx.CreateOrganization(ctx, db.CreateOrganizationParams{
				Fcra: filing.Registration,
				Name: filing.Name,
			})
			if err != nil {
				return fmt.Errorf("create organization %s: %w", filing.Registration, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("get organization %s: %w", filing.Registration, err)
		}
		if org.Name == filing.Name || filing.Name == "" {
			continue
		}

		similarity := matchr.JaroWinkler(org.Name, filing.Name, false)
		if similarity < c.opts.NameDriftThreshold {
			c.tel.ReportWarning(
				report_crawler_organization,
				fmt.Errorf("organization name changed"),
				filing.Registration,
				org.Name,
				filing.Name,
				similarity,
			)
		}
		err = tx.UpdateOrganizationName(ctx, db.UpdateOrganizationNameParams{
			Name: filing.Name,
			Fcra: filing.Registration,
		})
		if err != nil {
			return fmt.Errorf("update organization %s: %w", filing.Registration, err)
		}
	}

	return commit()
}

type Stats struct {
	Units     int
	Abandoned int
	Filings   int
	Null      int
}

// Sink receives the result of every unit that was crawled successfully.
type Sink func(ctx context.Context, result Result) error

// Crawl crawls every unit in order. An abandoned unit is reported, followed
// by a backoff, and the crawl moves on. It only stops early on a fatal
// error (from the store or from sink) or when ctx is done.
func (c Crawler) Crawl(ctx context.Context, units []Unit, sink Sink) (Stats, error) {
	var stats Stats
	current := ""
	crawled := 0
	// counts go out at info level, one line per jurisdiction
	finish := func() {
		if current == "" {
			return
		}
		scoped := telemetry.NewScopedAPI("finished jurisdiction "+current, c.tel)
		scoped.ReportCount(report_crawler_jurisdiction, int64(crawled))
	}

	for _, unit := range units {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if unit.Sub.JurisdictionID != current {
			finish()
			current = unit.Sub.JurisdictionID
			crawled = 0
		}

		stats.Units++
		crawled++
		result, err := c.CrawlUnit(ctx, unit)
		if err != nil {
			kind := failure.KindOf(err)
			if kind.Fatal() {
				return stats, err
			}
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Abandoned++
			c.tel.ReportWarning(report_crawler_unit, err, unit.Year, unit.Quarter, unit.Sub.JurisdictionID, unit.Sub.LocalCode)
			err = c.time.Sleep(ctx, c.opts.Backoff)
			if err != nil {
				return stats, err
			}
			continue
		}

		stats.Filings += len(result.Filings)
		stats.Null += len(result.Filings) - len(result.Pending())

		if sink == nil {
			continue
		}
		err = sink(ctx, result)
		if err != nil {
			if failure.KindOf(err).Fatal() || ctx.Err() != nil {
				return stats, err
			}
			c.tel.ReportWarning(report_crawler_sink, err, unit.String())
		}
	}
	finish()

	c.tel.ReportCount(report_crawler_abandoned, int64(stats.Abandoned))
	return stats, nil
}
