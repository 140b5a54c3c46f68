package fcra

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"slices"

	"fcrawatch/internal/components/assert"
	"fcrawatch/internal/components/telemetry"
	"fcrawatch/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const (
	report_form_navigate = "form.navigate"
	report_form_select   = "form.select"
	report_form_submit   = "form.submit"
	report_form_table    = "form.table"
)

// FormSession drives the reporting form the way a browser would: every
// select change and the submit button are server postbacks carrying the
// page's hidden state (__VIEWSTATE and friends) back with them.
type FormSession struct {
	config FormConfig
	http   *resty.Client
	tel    telemetry.API

	page   *url.URL
	doc    *goquery.Document
	action string
	values url.Values
	// set once the current page is the response to Submit
	submitted bool
}

func NewFormSession(config FormConfig, tel telemetry.API) (*FormSession, error) {
	assert.NotNil(tel)
	assert.NotEmptyStr(config.Url, "form url")

	tel = telemetry.NewScopedAPI("fcra", tel)

	httpClient, page, err := newHttpClient(config.Url, clientOptions{
		timeout: config.timeout(),
	}, tel)
	if err != nil {
		return nil, fmt.Errorf("form session: %w", err)
	}

	return &FormSession{
		config: config,
		http:   httpClient,
		tel:    tel,
		page:   page,
	}, nil
}

func (s *FormSession) load(res *resty.Response) error {
	if res.IsError() {
		return fmt.Errorf("unexpected status %s", res.Status())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	form := doc.Find("form").First()
	if form.Length() == 0 {
		return fmt.Errorf("page has no form")
	}
	action, err := s.page.Parse(form.AttrOr("action", ""))
	if err != nil {
		return fmt.Errorf("parse form action: %w", err)
	}

	s.doc = doc
	s.action = action.String()
	s.values = formValues(form)
	s.submitted = false
	return nil
}

// formValues collects what a browser would submit for the form, minus any
// submit buttons.
func formValues(form *goquery.Selection) url.Values {
	values := url.Values{}
	form.Find("input[name]").Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		switch input.AttrOr("type", "text") {
		case "submit", "button", "image", "reset", "file":
			return
		case "checkbox", "radio":
			if _, checked := input.Attr("checked"); !checked {
				return
			}
			values.Add(name, input.AttrOr("value", "on"))
		default:
			values.Add(name, input.AttrOr("value", ""))
		}
	})
	form.Find("select[name]").Each(func(_ int, sel *goquery.Selection) {
		if sel.Find("option").Length() == 0 {
			return
		}
		values.Set(sel.AttrOr("name", ""), htmlutil.GetSelected(sel))
	})
	form.Find("textarea[name]").Each(func(_ int, area *goquery.Selection) {
		values.Set(area.AttrOr("name", ""), area.Text())
	})
	return values
}

func (s *FormSession) Navigate(ctx context.Context) error {
	s.tel.ReportDebug(report_form_navigate, s.page.String())

	res, err := s.http.R().
		SetContext(ctx).
		Get(s.page.String())
	if err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	err = s.load(res)
	if err != nil {
		s.tel.ReportWarning(report_form_navigate, err)
		return fmt.Errorf("navigate: %w", err)
	}
	return nil
}

func (s *FormSession) ready() error {
	if s.doc == nil {
		return fmt.Errorf("form was not loaded, call Navigate first")
	}
	return nil
}

func (s *FormSession) field(field Field) (*goquery.Selection, error) {
	err := s.ready()
	if err != nil {
		return nil, err
	}
	id := s.config.fieldId(field)
	sel := s.doc.Find(fmt.Sprintf("select[id='%s']", id))
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%s field '%s' not found", field, id)
	}
	return sel.First(), nil
}

func (s *FormSession) Options(ctx context.Context, field Field) ([]htmlutil.Option, error) {
	sel, err := s.field(field)
	if err != nil {
		return nil, err
	}
	return htmlutil.GetOptions(ctx, sel), nil
}

func (s *FormSession) Select(ctx context.Context, field Field, value string) error {
	sel, err := s.field(field)
	if err != nil {
		return err
	}
	options := htmlutil.GetOptions(ctx, sel)
	found := slices.ContainsFunc(options, func(o htmlutil.Option) bool {
		return o.Value == value
	})
	if !found {
		return fmt.Errorf("%s field has no option '%s'", field, value)
	}

	name := sel.AttrOr("name", s.config.fieldId(field))
	values := cloneValues(s.values)
	values.Set(name, value)
	values.Set("__EVENTTARGET", name)
	values.Set("__EVENTARGUMENT", "")

	s.tel.ReportDebug(report_form_select, field.String(), value)

	res, err := s.http.R().
		SetContext(ctx).
		SetFormDataFromValues(values).
		Post(s.action)
	if err != nil {
		return fmt.Errorf("select %s '%s': %w", field, value, err)
	}
	err = s.load(res)
	if err != nil {
		s.tel.ReportWarning(report_form_select, err, field.String(), value)
		return fmt.Errorf("select %s '%s': %w", field, value, err)
	}
	return nil
}

func (s *FormSession) Submit(ctx context.Context) error {
	err := s.ready()
	if err != nil {
		return err
	}

	button := s.doc.Find(fmt.Sprintf("[id='%s']", s.config.SubmitButton)).First()
	if button.Length() == 0 {
		return fmt.Errorf("submit button '%s' not found", s.config.SubmitButton)
	}

	values := cloneValues(s.values)
	values.Set("__EVENTTARGET", "")
	values.Set("__EVENTARGUMENT", "")
	values.Set(button.AttrOr("name", s.config.SubmitButton), button.AttrOr("value", ""))

	s.tel.ReportDebug(report_form_submit)

	res, err := s.http.R().
		SetContext(ctx).
		SetFormDataFromValues(values).
		Post(s.action)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	err = s.load(res)
	if err != nil {
		s.tel.ReportWarning(report_form_submit, err)
		return fmt.Errorf("submit: %w", err)
	}
	s.submitted = true
	return nil
}

// Table returns the data rows of the submitted result. The grid is not
// rendered at all when a unit has no filings, that is an empty table.
func (s *FormSession) Table(ctx context.Context) ([][]string, error) {
	err := s.ready()
	if err != nil {
		return nil, err
	}
	if !s.submitted {
		return nil, fmt.Errorf("form was not submitted")
	}
	table := s.doc.Find(fmt.Sprintf("table[id='%s']", s.config.ResultTable)).First()
	if table.Length() == 0 {
		s.tel.ReportDebug(report_form_table, 0)
		return [][]string{}, nil
	}

	rows := htmlutil.GetTableRows(table)
	if len(rows) == 0 {
		return [][]string{}, nil
	}
	// the first row is the header
	data := rows[1:]
	s.tel.ReportDebug(report_form_table, len(data))
	return data, nil
}

func cloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for k, v := range values {
		out[k] = slices.Clone(v)
	}
	return out
}
