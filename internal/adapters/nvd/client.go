package nvd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
	"github.com/lcalzada-xor/assetvuln/internal/core/ports"
	"github.com/lcalzada-xor/assetvuln/internal/telemetry"
)

// DefaultBaseURL is the public CVE API 2.0 endpoint.
const DefaultBaseURL = "https://services.nvd.nist.gov/rest/json/cves/2.0"

const defaultTimeout = 30 * time.Second

// Config of a Client. Zero values fall back to defaults.
type Config struct {
	BaseURL string
	APIKey  string
	Retry   RetryPolicy
	// Timeout bounds a single attempt, retry delays excluded.
	Timeout time.Duration
	// Limiter throttles every outbound request of the process. When nil a
	// limiter matching the public NVD rate limits is created.
	Limiter    *rate.Limiter
	HTTPClient *http.Client
}

// Client implements ports.VulnerabilitySource against the NVD CVE API.
type Client struct {
	baseURL    string
	apiKey     string
	retry      RetryPolicy
	timeout    time.Duration
	limiter    *rate.Limiter
	httpClient *http.Client
}

var _ ports.VulnerabilitySource = (*Client)(nil)

// statusError is a non-200 answer of the source.
type statusError struct {
	status int
}

func (e statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.status)
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Limiter == nil {
		cfg.Limiter = DefaultLimiter(cfg.APIKey != "")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{
			Transport: otelhttp.NewTransport(&http.Transport{
				MaxIdleConnsPerHost: 3,
			}),
		}
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		retry:      cfg.Retry,
		timeout:    cfg.Timeout,
		limiter:    cfg.Limiter,
		httpClient: cfg.HTTPClient,
	}
}

// DefaultLimiter allows 5 requests per 30 seconds, or 50 with an API key.
func DefaultLimiter(withAPIKey bool) *rate.Limiter {
	if withAPIKey {
		return rate.NewLimiter(rate.Every(600*time.Millisecond), 1)
	}
	return rate.NewLimiter(rate.Every(6*time.Second), 1)
}

// FetchByCriterion returns the records applicable to a CPE name. Only
// statuses accepted by the retry policy are retried; everything else and
// exhausted retries yield an error wrapping domain.ErrSourceUnavailable.
func (c *Client) FetchByCriterion(ctx context.Context, criterion string) ([]domain.VulnerabilityRecord, error) {
	ctx, span := otel.Tracer("nvd-client").Start(ctx, "FetchByCriterion")
	defer span.End()
	span.SetAttributes(attribute.String("cpe.name", criterion))

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid source url")
	}
	q := u.Query()
	q.Set("cpeName", criterion)
	u.RawQuery = q.Encode()

	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "rate limiter")
		}

		records, status, err := c.fetch(ctx, u.String())
		if err == nil {
			span.SetAttributes(attribute.Int("cve.count", len(records)), attribute.Int("attempts", attempt))
			return records, nil
		}

		if c.retry.shouldRetry(status, attempt) {
			telemetry.SourceRetries.Inc()
			slog.Warn("Vulnerability source unavailable, retrying",
				"criterion", criterion, "attempt", attempt, "status", status, "delay", c.retry.Delay)
			if err := sleep(ctx, c.retry.Delay); err != nil {
				return nil, err
			}
			continue
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.Wrapf(domain.ErrSourceUnavailable, "fetch %s after %d attempt(s): %v", criterion, attempt, err)
	}
}

// fetch performs a single attempt. status is 0 when no response was received.
func (c *Client) fetch(ctx context.Context, rawURL string) ([]domain.VulnerabilityRecord, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, errors.Wrap(err, "could not create request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apiKey", c.apiKey)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.SourceRequests.WithLabelValues("error").Inc()
		return nil, 0, err
	}
	defer res.Body.Close()

	telemetry.SourceRequests.WithLabelValues(strconv.Itoa(res.StatusCode)).Inc()
	if res.StatusCode != http.StatusOK {
		return nil, res.StatusCode, statusError{status: res.StatusCode}
	}

	var body response
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, res.StatusCode, errors.Wrap(err, "could not decode response")
	}
	return body.records(), res.StatusCode, nil
}
