package fcra

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"fcrawatch/pkg/htmlutil"
)

// FakeSite describes the contents of the reporting form for FakeSession.
type FakeSite struct {
	// Years, Jurisdictions and the values of Quarters / SubJurisdictions
	// are option lists as rendered, placeholders included.
	Years            []htmlutil.Option
	Quarters         map[string][]htmlutil.Option
	Jurisdictions    []htmlutil.Option
	SubJurisdictions map[string][]htmlutil.Option
	// Tables is keyed by FakeTableKey, a unit with no table has no filings.
	Tables map[string][][]string
}

func FakeTableKey(year, quarter, jurisdiction, subJurisdiction string) string {
	return strings.Join([]string{year, quarter, jurisdiction, subJurisdiction}, "|")
}

// FakeSession is an in-memory Session for tests.
type FakeSession struct {
	Site FakeSite
	// Fail, when set, is consulted before every interaction. op is one of
	// "navigate", "options", "select", "submit", "table".
	Fail func(op string, field Field, value string) error

	mutex     sync.Mutex
	selected  map[Field]string
	submitted bool
	loaded    bool
	calls     []string
}

func NewFakeSession(site FakeSite) *FakeSession {
	return &FakeSession{Site: site, selected: map[Field]string{}}
}

func (f *FakeSession) record(op string, field Field, value string) error {
	f.calls = append(f.calls, fmt.Sprintf("%s %s %s", op, field, value))
	if f.Fail != nil {
		return f.Fail(op, field, value)
	}
	return nil
}

// Calls returns every interaction made so far.
func (f *FakeSession) Calls() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return slices.Clone(f.calls)
}

func (f *FakeSession) Navigate(ctx context.Context) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if err := f.record("navigate", -1, ""); err != nil {
		return err
	}
	f.selected = map[Field]string{}
	f.submitted = false
	f.loaded = true
	return nil
}

func (f *FakeSession) options(field Field) []htmlutil.Option {
	switch field {
	case FieldYear:
		return f.Site.Years
	case FieldQuarter:
		return f.Site.Quarters[f.selected[FieldYear]]
	case FieldJurisdiction:
		return f.Site.Jurisdictions
	case FieldSubJurisdiction:
		return f.Site.SubJurisdictions[f.selected[FieldJurisdiction]]
	}
	return nil
}

func (f *FakeSession) Options(ctx context.Context, field Field) ([]htmlutil.Option, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if err := f.record("options", field, ""); err != nil {
		return nil, err
	}
	if !f.loaded {
		return nil, fmt.Errorf("form was not loaded")
	}
	return slices.Clone(f.options(field)), nil
}

func (f *FakeSession) Select(ctx context.Context, field Field, value string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if err := f.record("select", field, value); err != nil {
		return err
	}
	if !f.loaded {
		return fmt.Errorf("form was not loaded")
	}
	found := slices.ContainsFunc(f.options(field), func(o htmlutil.Option) bool {
		return o.Value == value
	})
	if !found {
		return fmt.Errorf("%s field has no option '%s'", field, value)
	}
	f.selected[field] = value
	f.submitted = false
	return nil
}

func (f *FakeSession) Submit(ctx context.Context) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if err := f.record("submit", -1, ""); err != nil {
		return err
	}
	if !f.loaded {
		return fmt.Errorf("form was not loaded")
	}
	f.submitted = true
	return nil
}

func (f *FakeSession) Table(ctx context.Context) ([][]string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if err := f.record("table", -1, ""); err != nil {
		return nil, err
	}
	if !f.submitted {
		return nil, fmt.Errorf("form was not submitted")
	}
	key := FakeTableKey(
		f.selected[FieldYear],
		f.selected[FieldQuarter],
		f.selected[FieldJurisdiction],
		f.selected[FieldSubJurisdiction],
	)
	table := f.Site.Tables[key]
	out := make([][]string, len(table))
	for i, row := range table {
		out[i] = slices.Clone(row)
	}
	return out, nil
}
