package fcra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"fcrawatch/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestDocumentClientFetch(t *testing.T) {
	var mutex sync.Mutex
	var queries []url.Values

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mutex.Lock()
		queries = append(queries, r.URL.Query())
		mutex.Unlock()

		switch r.URL.Query().Get("rcn") {
		case "094421102R":
			w.Header().Set("content-type", "application/pdf")
			w.Write([]byte("%PDF-1.4 ..."))
		case "000000000R":
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
	defer server.Close()

	config := DefaultDocumentsConfig()
	config.Url = server.URL + "/Fc_qtrFrm_PDF.aspx"
	config.RequestsPerSecond = 100
	client, err := NewDocumentClient(config, telemetry.NewRecordingAPI())
	require.NoError(t, err)

	ctx := context.Background()

	body, err := client.Fetch(ctx, "094421102", "2015-2016", "1")
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4 ...", string(body))

	_, err = client.Fetch(ctx, "000000000", "2015-2016", "1")
	require.ErrorContains(t, err, "empty body")

	_, err = client.Fetch(ctx, "111111111", "2015-2016", "1")
	require.ErrorContains(t, err, "404")

	require.Len(t, queries, 3)
	require.Equal(t, "094421102R", queries[0].Get("rcn"))
	require.Equal(t, "2015-2016", queries[0].Get("fin_year"))
	require.Equal(t, "1", queries[0].Get("quarter"))
}

func TestDocumentClientInvalidUrl(t *testing.T) {
	config := DefaultDocumentsConfig()
	config.Url = "not a url"
	_, err := NewDocumentClient(config, telemetry.NewRecordingAPI())
	require.Error(t, err)
}
