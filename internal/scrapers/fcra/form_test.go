package fcra

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"fcrawatch/internal/components/telemetry"
	"fcrawatch/pkg/htmlutil"

	"github.com/stretchr/testify/require"
)

// postbackServer emulates the reporting form: dependent selects are only
// populated once their parent was posted back and every post must carry the
// last issued view state.
type postbackServer struct {
	mutex     sync.Mutex
	viewstate int
	posts     int
	// noFilings renders the submitted page without the result grid, the way
	// the site answers for a unit nobody filed in.
	noFilings bool
}

var placeholder = htmlutil.Option{Value: "0", Label: "--Select--"}

func (s *postbackServer) options(name string, selected map[string]string) []htmlutil.Option {
	switch name {
	case "ddl_block_year":
		return []htmlutil.Option{placeholder, {Value: "2015-2016", Label: "2015-2016"}, {Value: "2014-2015", Label: "2014-2015"}}
	case "ddl_qtr_returns":
		if selected["ddl_block_year"] == "" || selected["ddl_block_year"] == "0" {
			return []htmlutil.Option{placeholder}
		}
		return []htmlutil.Option{placeholder, {Value: "1", Label: "Apr-Jun"}, {Value: "2", Label: "Jul-Sep"}}
	case "DdnListState":
		return []htmlutil.Option{placeholder, {Value: "29", Label: "KARNATAKA"}}
	case "DdnListdist":
		if selected["DdnListState"] != "29" {
			return []htmlutil.Option{placeholder}
		}
		return []htmlutil.Option{placeholder, {Value: "572", Label: "BANGALORE"}}
	}
	return nil
}

func (s *postbackServer) render(w http.ResponseWriter, selected map[string]string, submitted bool) {
	s.viewstate++

	var out strings.Builder
	out.WriteString(`<html><body><form method="post" action="./fc_qtrfrm_report.aspx" id="form1">`)
	fmt.Fprintf(&out, `<input type="hidden" name="__VIEWSTATE" id="__VIEWSTATE" value="vs-%d" />`, s.viewstate)
	out.WriteString(`<input type="hidden" name="__EVENTTARGET" id="__EVENTTARGET" value="" />`)
	out.WriteString(`<input type="hidden" name="__EVENTARGUMENT" id="__EVENTARGUMENT" value="" />`)
	for _, name := range []string{"ddl_block_year", "ddl_qtr_returns", "DdnListState", "DdnListdist"} {
		fmt.Fprintf(&out, `<select name="%s" id="%s" onchange="__doPostBack('%s','')">`, name, name, name)
		for _, opt := range s.options(name, selected) {
			attr := ""
			if selected[name] == opt.Value {
				attr = ` selected="selected"`
			}
			fmt.Fprintf(&out, `<option%s value="%s">%s</option>`, attr, opt.Value, html.EscapeString(opt.Label))
		}
		out.WriteString(`</select>`)
	}
	out.WriteString(`<input type="submit" name="Button1" value="Submit" id="Button1" />`)
	if submitted && !s.noFilings {
		out.WriteString(`<table id="GridView1">`)
		out.WriteString(`<tr><th>S.No.</th><th>Association Name</th><th>Registration Number</th><th>Amount</th></tr>`)
		fmt.Fprintf(
			&out,
			`<tr><td>1</td><td>SAMPLE &amp; SONS
			TRUST</td><td>094421102</td><td>%s</td></tr>`,
			"12,500.00",
		)
		out.WriteString(`<tr><td>2</td><td>QUIET SOCIETY</td><td>094420001</td><td>0.00</td></tr>`)
		out.WriteString(`</table>`)
	}
	out.WriteString(`</form></body></html>`)

	w.Header().Set("content-type", "text/html; charset=utf-8")
	w.Write([]byte(out.String()))
}

func (s *postbackServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if r.Method == http.MethodGet {
		s.render(w, map[string]string{}, false)
		return
	}

	err := r.ParseForm()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("__VIEWSTATE") != fmt.Sprintf("vs-%d", s.viewstate) {
		http.Error(w, "invalid viewstate", http.StatusInternalServerError)
		return
	}
	s.posts++

	selected := map[string]string{}
	for _, name := range []string{"ddl_block_year", "ddl_qtr_returns", "DdnListState", "DdnListdist"} {
		selected[name] = r.PostForm.Get(name)
	}
	s.render(w, selected, r.PostForm.Get("Button1") == "Submit")
}

func newTestFormSession(t *testing.T) (*FormSession, *postbackServer) {
	t.Helper()
	handler := &postbackServer{}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultFormConfig()
	config.Url = server.URL + "/fc_qtrfrm_report.aspx"
	session, err := NewFormSession(config, telemetry.NewRecordingAPI())
	require.NoError(t, err)
	return session, handler
}

func TestFormSessionWalk(t *testing.T) {
	ctx := context.Background()
	session, server := newTestFormSession(t)

	require.NoError(t, session.Navigate(ctx))

	years, err := session.Options(ctx, FieldYear)
	require.NoError(t, err)
	require.Len(t, years, 3)
	require.Equal(t, "2015-2016", years[1].Value)

	quarters, err := session.Options(ctx, FieldQuarter)
	require.NoError(t, err)
	require.Equal(t, []htmlutil.Option{placeholder}, quarters)

	require.NoError(t, session.Select(ctx, FieldYear, "2015-2016"))
	quarters, err = session.Options(ctx, FieldQuarter)
	require.NoError(t, err)
	require.Equal(t, []htmlutil.Option{
		placeholder,
		{Value: "1", Label: "Apr-Jun"},
		{Value: "2", Label: "Jul-Sep"},
	}, quarters)

	require.NoError(t, session.Select(ctx, FieldQuarter, "1"))
	require.NoError(t, session.Select(ctx, FieldJurisdiction, "29"))
	districts, err := session.Options(ctx, FieldSubJurisdiction)
	require.NoError(t, err)
	require.Equal(t, "BANGALORE", districts[1].Label)
	require.NoError(t, session.Select(ctx, FieldSubJurisdiction, "572"))

	_, err = session.Table(ctx)
	require.Error(t, err)

	require.NoError(t, session.Submit(ctx))
	rows, err := session.Table(ctx)
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"1", "SAMPLE & SONS TRUST", "094421102", "12,500.00"},
		{"2", "QUIET SOCIETY", "094420001", "0.00"},
	}, rows)

	// 4 selects + 1 submit, each carrying the view state it was given
	require.Equal(t, 5, server.posts)
}

func TestFormSessionUnitWithoutFilings(t *testing.T) {
	ctx := context.Background()
	session, server := newTestFormSession(t)
	server.noFilings = true

	require.NoError(t, session.Navigate(ctx))
	require.NoError(t, session.Select(ctx, FieldYear, "2015-2016"))
	require.NoError(t, session.Select(ctx, FieldQuarter, "2"))
	require.NoError(t, session.Select(ctx, FieldJurisdiction, "29"))
	require.NoError(t, session.Select(ctx, FieldSubJurisdiction, "572"))

	_, err := session.Table(ctx)
	require.ErrorContains(t, err, "not submitted")

	require.NoError(t, session.Submit(ctx))
	rows, err := session.Table(ctx)
	require.NoError(t, err)
	require.NotNil(t, rows)
	require.Empty(t, rows)

	// any later postback replaces the submitted page
	require.NoError(t, session.Select(ctx, FieldQuarter, "1"))
	_, err = session.Table(ctx)
	require.Error(t, err)
}

func TestFormSessionRejectsUnknownOption(t *testing.T) {
	ctx := context.Background()
	session, server := newTestFormSession(t)

	require.NoError(t, session.Navigate(ctx))
	err := session.Select(ctx, FieldYear, "1999-2000")
	require.ErrorContains(t, err, "no option")
	require.Zero(t, server.posts)
}

func TestFormSessionRequiresNavigate(t *testing.T) {
	session, _ := newTestFormSession(t)
	_, err := session.Options(context.Background(), FieldYear)
	require.Error(t, err)
	require.Error(t, session.Submit(context.Background()))
}

func TestFormSessionBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	tel := telemetry.NewRecordingAPI()
	config := DefaultFormConfig()
	config.Url = server.URL
	session, err := NewFormSession(config, tel)
	require.NoError(t, err)

	err = session.Navigate(context.Background())
	require.ErrorContains(t, err, "503")
	require.NotEmpty(t, tel.Find(telemetry.LevelWarning, report_form_navigate))
}
