// client.go contains everything needed to make requests to eda.ru, it knows nothing
// about the markup of the pages it fetches.

package eda

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"recipe-scraper/internal/components/assert"
	"recipe-scraper/internal/components/telemetry"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/temoto/robotstxt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const (
	report_client_fetch         = "client.fetch"
	report_client_fetch_attempt = "client.fetch-attempt"
	report_client_robots        = "client.robots"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

var tracer = otel.Tracer("scrapers/eda")

// ErrDisallowed is returned when robots.txt disallows fetching a url.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// StatusError is returned when the last attempt of a request got a non-2xx response.
type StatusError struct {
	Url    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.Url, e.Status)
}

type ClientOptions struct {
	BaseUrl string
	// Timeout is the connect + read timeout of a single attempt, defaults to 10s.
	Timeout time.Duration
	// Retry defaults to DefaultRetryPolicy if MaxAttempts is 0.
	Retry RetryPolicy
	// RequestsPerSecond limits the request rate, 0 means unlimited.
	RequestsPerSecond float64
	RespectRobotsTxt  bool
	CloudflareBypass  bool
}

// Client fetches pages, retrying every failure according to its RetryPolicy.
// It is meant to be used by a single goroutine.
type Client struct {
	BaseUrl string
	Http    *resty.Client

	policy  RetryPolicy
	limiter *rate.Limiter
	robots  *robotstxt.Group
	tel     telemetry.API
}

func NewClient(ctx context.Context, opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.BaseUrl)

	tel = telemetry.NewScopedAPI("eda_scraper", tel)

	parsedBaseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	if parsedBaseUrl.Scheme == "" || parsedBaseUrl.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %s", opts.BaseUrl)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	policy := opts.Retry
	if policy.MaxAttempts == 0 {
		policy = DefaultRetryPolicy
	}

	httpClient := resty.New()
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetHeader("user-agent", userAgent)
	httpClient.SetTimeout(timeout)

	httpClient.SetRetryCount(policy.retries())
	httpClient.SetRetryWaitTime(policy.MinWait)
	httpClient.SetRetryMaxWaitTime(policy.MaxWait)
	httpClient.SetRetryAfter(func(_ *resty.Client, res *resty.Response) (time.Duration, error) {
		return policy.Wait(res.Request.Attempt), nil
	})
	httpClient.AddRetryCondition(func(res *resty.Response, err error) bool {
		// a cancelled caller is never retried
		if errors.Is(err, context.Canceled) {
			return false
		}
		if res != nil && res.Request.Context().Err() != nil {
			return false
		}
		return err != nil || res == nil || !res.IsSuccess()
	})
	httpClient.AddRetryHook(func(res *resty.Response, err error) {
		if res == nil {
			tel.ReportWarning(report_client_fetch_attempt, err)
			return
		}
		if err == nil {
			err = &StatusError{Url: res.Request.URL, Status: res.StatusCode()}
		}
		tel.ReportWarning(report_client_fetch_attempt, err, res.Request.Attempt, policy.MaxAttempts)
	})

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	telemetry.InstrumentResty(httpClient, tel)

	c := &Client{
		BaseUrl: strings.TrimRight(parsedBaseUrl.String(), "/"),
		Http:    httpClient,
		policy:  policy,
		limiter: limiter,
		tel:     tel,
	}

	if opts.RespectRobotsTxt {
		err = c.loadRobots(ctx)
		if err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Client) loadRobots(ctx context.Context) error {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(c.BaseUrl + "/robots.txt")
	if err != nil {
		c.tel.ReportBroken(report_client_robots, err)
		return fmt.Errorf("fetch robots.txt: %w", err)
	}

	data, err := robotstxt.FromStatusAndBytes(res.StatusCode(), res.Body())
	if err != nil {
		c.tel.ReportBroken(report_client_robots, err)
		return fmt.Errorf("parse robots.txt: %w", err)
	}
	c.robots = data.FindGroup(userAgent)
	return nil
}

func (c *Client) allowed(link string) bool {
	if c.robots == nil {
		return true
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return true
	}
	path := parsed.EscapedPath()
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}
	return c.robots.Test(path)
}

// Fetch makes a GET request to `link` and returns the body of the response.
func (c *Client) Fetch(ctx context.Context, link string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("url", link))

	if !c.allowed(link) {
		span.SetStatus(codes.Error, "disallowed by robots.txt")
		return nil, fmt.Errorf("GET %s: %w", link, ErrDisallowed)
	}

	// one token per fetch, retries are already spaced out by the retry policy
	if c.limiter != nil {
		err := c.limiter.Wait(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "rate limit wait failed")
			return nil, fmt.Errorf("GET %s: %w", link, err)
		}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("GET %s: %w", link, err)
	}
	span.SetAttributes(attribute.Int("status", res.StatusCode()))
	if !res.IsSuccess() {
		err := &StatusError{Url: link, Status: res.StatusCode()}
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status")
		return nil, err
	}

	return res.Body(), nil
}

// Document fetches `link` and parses it as html.
func (c *Client) Document(ctx context.Context, link string) (*goquery.Document, error) {
	body, err := c.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		c.tel.ReportBroken(report_client_fetch, fmt.Errorf("parse html: %w", err), link)
		return nil, fmt.Errorf("parse %s: %w", link, err)
	}
	return doc, nil
}
