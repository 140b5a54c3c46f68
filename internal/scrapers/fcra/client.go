package fcra

import (
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	"fcrawatch/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type clientOptions struct {
	timeout           time.Duration
	requestsPerSecond float64
	burst             int
}

func newHttpClient(baseUrl string, opts clientOptions, tel telemetry.API) (*resty.Client, *url.URL, error) {
	parsedBaseUrl, err := url.Parse(baseUrl)
	if err != nil {
		return nil, nil, err
	}
	if parsedBaseUrl.Scheme == "" || parsedBaseUrl.Host == "" {
		return nil, nil, fmt.Errorf("invalid url '%s'", baseUrl)
	}

	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, nil, err
	}
	httpClient.SetCookieJar(jar)
	httpClient.SetHeader("user-agent", userAgent)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsedBaseUrl.Hostname()))
	httpClient.SetTimeout(opts.timeout)

	if opts.requestsPerSecond > 0 {
		burst := opts.burst
		if burst < 1 {
			burst = 1
		}
		rateLimiter := rate.NewLimiter(rate.Limit(opts.requestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel)

	return httpClient, parsedBaseUrl, nil
}
