package fcra

import (
	"context"
	"fmt"
	"time"

	"fcrawatch/internal/components/assert"
	"fcrawatch/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const (
	report_documents_fetch = "documents.fetch"
)

// DocumentClient downloads the quarterly return of an organization.
// It is safe for concurrent use, every request waits on one shared limiter.
type DocumentClient struct {
	url  string
	http *resty.Client
	tel  telemetry.API
}

func NewDocumentClient(config DocumentsConfig, tel telemetry.API) (DocumentClient, error) {
	assert.NotNil(tel)
	assert.NotEmptyStr(config.Url, "documents url")

	tel = telemetry.NewScopedAPI("fcra", tel)

	httpClient, _, err := newHttpClient(config.Url, clientOptions{
		timeout:           seconds(config.TimeoutSeconds, 60*time.Second),
		requestsPerSecond: config.RequestsPerSecond,
		burst:             config.Burst,
	}, tel)
	if err != nil {
		return DocumentClient{}, fmt.Errorf("document client: %w", err)
	}

	return DocumentClient{
		url:  config.Url,
		http: httpClient,
		tel:  tel,
	}, nil
}

// Fetch returns the document body for a filing. A non-2xx status or an
// empty body is an error.
func (c DocumentClient) Fetch(ctx context.Context, registration, year, quarter string) ([]byte, error) {
	c.tel.ReportDebug(report_documents_fetch, registration, year, quarter)

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			// the endpoint expects the registration number with an R suffix
			"rcn":      registration + "R",
			"fin_year": year,
			"quarter":  quarter,
		}).
		Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s q%s: %w", registration, year, quarter, err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("fetch %s %s q%s: unexpected status %s", registration, year, quarter, res.Status())
	}
	body := res.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("fetch %s %s q%s: empty body", registration, year, quarter)
	}
	return body, nil
}
