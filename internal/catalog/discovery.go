package catalog

import (
	"context"
	"fmt"
	"time"

	"fcrawatch/internal/components/assert"
	"fcrawatch/internal/components/chrono"
	"fcrawatch/internal/components/telemetry"
	"fcrawatch/internal/scrapers/fcra"
	"fcrawatch/pkg/htmlutil"
)

const (
	report_discovery_walk              = "discovery.walk"
	report_discovery_periods           = "discovery.periods"
	report_discovery_jurisdictions     = "discovery.jurisdictions"
	report_discovery_sub_jurisdictions = "discovery.sub-jurisdictions"
)

// yearPlaceholder is the value of the "--Select--" entry of the year field.
const yearPlaceholder = "0"

type Discoverer struct {
	session fcra.Session
	time    chrono.API
	settle  time.Duration
	tel     telemetry.API
}

// NewDiscoverer creates a Discoverer, settle is how long to wait after
// every interaction for the form to update.
func NewDiscoverer(session fcra.Session, clock chrono.API, settle time.Duration, tel telemetry.API) Discoverer {
	assert.NotNil(session)
	assert.NotNil(clock)
	assert.NotNil(tel)

	return Discoverer{
		session: session,
		time:    clock,
		settle:  settle,
		tel:     telemetry.NewScopedAPI("catalog", tel),
	}
}

func (d Discoverer) navigate(ctx context.Context) error {
	err := d.session.Navigate(ctx)
	if err != nil {
		return err
	}
	return d.time.Sleep(ctx, d.settle)
}

func (d Discoverer) selectValue(ctx context.Context, field fcra.Field, value string) error {
	err := d.session.Select(ctx, field, value)
	if err != nil {
		return err
	}
	return d.time.Sleep(ctx, d.settle)
}

// afterPlaceholder drops the leading "--Select--" option and any option
// without a value.
func afterPlaceholder(options []htmlutil.Option) []htmlutil.Option {
	if len(options) == 0 {
		return nil
	}
	out := []htmlutil.Option{}
	for _, opt := range options[1:] {
		if opt.Value == "" {
			continue
		}
		out = append(out, opt)
	}
	return out
}

// ListFilingPeriods returns every year with its quarters in the order the
// form lists them, a (year, quarter) pair appears at most once.
func (d Discoverer) ListFilingPeriods(ctx context.Context) ([]FilingPeriod, error) {
	listError := func(err error) error {
		return fmt.Errorf("list filing periods: %w", err)
	}

	err := d.navigate(ctx)
	if err != nil {
		return nil, listError(err)
	}
	years, err := d.session.Options(ctx, fcra.FieldYear)
	if err != nil {
		return nil, listError(err)
	}

	var periods []FilingPeriod
	index := map[string]int{}
	seen := map[[2]string]struct{}{}

	for _, year := range years {
		if year.Value == yearPlaceholder || year.Value == "" {
			continue
		}

		err = d.selectValue(ctx, fcra.FieldYear, year.Value)
		if err != nil {
			return nil, listError(fmt.Errorf("year %s: %w", year.Value, err))
		}
		quarters, err := d.session.Options(ctx, fcra.FieldQuarter)
		if err != nil {
			return nil, listError(fmt.Errorf("year %s: %w", year.Value, err))
		}

		i, ok := index[year.Value]
		if !ok {
			i = len(periods)
			index[year.Value] = i
			periods = append(periods, FilingPeriod{Year: year.Value})
		}
		for _, quarter := range afterPlaceholder(quarters) {
			key := [2]string{year.Value, quarter.Value}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			periods[i].Quarters = append(periods[i].Quarters, quarter.Value)
		}
	}

	d.tel.ReportCount(report_discovery_periods, int64(len(seen)))
	return periods, nil
}

func (d Discoverer) ListJurisdictions(ctx context.Context) (Jurisdictions, error) {
	listError := func(err error) error {
		return fmt.Errorf("list jurisdictions: %w", err)
	}

	err := d.navigate(ctx)
	if err != nil {
		return nil, listError(err)
	}
	options, err := d.session.Options(ctx, fcra.FieldJurisdiction)
	if err != nil {
		return nil, listError(err)
	}

	var out Jurisdictions
	seen := map[string]struct{}{}
	for _, opt := range afterPlaceholder(options) {
		if _, dup := seen[opt.Value]; dup {
			continue
		}
		seen[opt.Value] = struct{}{}
		out = append(out, Jurisdiction{ID: opt.Value, Name: opt.Label})
	}

	d.tel.ReportCount(report_discovery_jurisdictions, int64(len(out)))
	return out, nil
}

func (d Discoverer) ListSubJurisdictions(ctx context.Context, jurisdictionId string) (SubJurisdictions, error) {
	listError := func(err error) error {
		return fmt.Errorf("list sub-jurisdictions of %s: %w", jurisdictionId, err)
	}

	err := d.navigate(ctx)
	if err != nil {
		return nil, listError(err)
	}
	err = d.selectValue(ctx, fcra.FieldJurisdiction, jurisdictionId)
	if err != nil {
		return nil, listError(err)
	}
	options, err := d.session.Options(ctx, fcra.FieldSubJurisdiction)
	if err != nil {
		return nil, listError(err)
	}

	var out SubJurisdictions
	seen := map[string]struct{}{}
	for _, opt := range afterPlaceholder(options) {
		if _, dup := seen[opt.Value]; dup {
			continue
		}
		seen[opt.Value] = struct{}{}
		out = append(out, SubJurisdiction{
			Key:  SubKey{JurisdictionID: jurisdictionId, LocalCode: opt.Value},
			Name: opt.Label,
		})
	}
	return out, nil
}

// Walk collects the whole catalog. A jurisdiction whose sub-jurisdictions
// cannot be listed is reported and left out, the walk goes on with the next
// one.
func (d Discoverer) Walk(ctx context.Context) (Catalog, error) {
	periods, err := d.ListFilingPeriods(ctx)
	if err != nil {
		return Catalog{}, err
	}
	jurisdictions, err := d.ListJurisdictions(ctx)
	if err != nil {
		return Catalog{}, err
	}

	out := Catalog{Periods: periods}
	for _, jurisdiction := range jurisdictions {
		subs, err := d.ListSubJurisdictions(ctx, jurisdiction.ID)
		if ctx.Err() != nil {
			return Catalog{}, ctx.Err()
		}
		if err != nil {
			d.tel.ReportWarning(
				report_discovery_sub_jurisdictions,
				err,
				jurisdiction.ID,
				jurisdiction.Name,
			)
			continue
		}
		out.Jurisdictions = append(out.Jurisdictions, jurisdiction)
		out.SubJurisdictions = append(out.SubJurisdictions, subs...)
	}

	d.tel.ReportCount(report_discovery_walk, int64(len(out.SubJurisdictions)))
	return out, nil
}
