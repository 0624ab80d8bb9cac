// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/netflexity/anypoint-mq-exporter/auth"
	"github.com/netflexity/anypoint-mq-exporter/config"
	amqerrors "github.com/netflexity/anypoint-mq-exporter/pkg/errors"
	"github.com/netflexity/anypoint-mq-exporter/pkg/logger"
)

const (
	retryBaseDelay = 1 * time.Second
	retryMaxDelay  = 30 * time.Second
)

// Client is the typed HTTP client for the admin and statistics APIs.
// It attaches bearer credentials from its own Cache, retries transient
// failures with exponential backoff, and trips a circuit breaker when
// the upstream host is persistently unhealthy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authConfig config.AuthConfig
	maxRetries int
	cache      *auth.Cache
	breaker    *gobreaker.CircuitBreaker[requestResult]
}

// New creates a Client configured from cfg. The returned Client owns
// its own credential cache; callers obtain credentials only indirectly
// through the typed operations below.
func New(cfg *config.Config) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		authConfig: cfg.Auth,
		maxRetries: cfg.HTTP.MaxRetries,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.HTTP.ReadTimeoutSeconds) * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: time.Duration(cfg.HTTP.ConnectTimeoutSeconds) * time.Second}).DialContext,
			},
		},
	}
	c.cache = auth.NewCache(c.Authenticate)
	c.breaker = gobreaker.NewCircuitBreaker[requestResult](gobreaker.Settings{
		Name:        "anypoint-mq-upstream",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state change")
		},
	})
	return c
}

// Authenticate performs the configured authentication exchange and
// returns a fresh credential. Exposed so it can be handed to auth.Cache
// as its AuthenticateFunc; callers needing a credential should go
// through the cache instead of calling this directly.
func (c *Client) Authenticate(ctx context.Context) (auth.Credential, error) {
	var body []byte
	var contentType string
	var path string

	switch {
	case c.authConfig.HasClientCredentials():
		path = "/accounts/api/v2/oauth2/token"
		form := url.Values{
			"client_id":     {c.authConfig.ClientID},
			"client_secret": {c.authConfig.ClientSecret},
			"grant_type":    {"client_credentials"},
		}
		body = []byte(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case c.authConfig.HasPasswordLogin():
		path = "/accounts/login"
		payload, err := json.Marshal(map[string]string{
			"username": c.authConfig.Username,
			"password": c.authConfig.Password,
		})
		if err != nil {
			return auth.Credential{}, fmt.Errorf("failed to encode login payload: %w", err)
		}
		body = payload
		contentType = "application/json"
	default:
		return auth.Credential{}, amqerrors.ErrNoCredentialConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return auth.Credential{}, fmt.Errorf("failed to build auth request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	respBody, status, err := c.sendWithRetry(req, "authenticate")
	if err != nil {
		return auth.Credential{}, err
	}
	if status >= 400 {
		return auth.Credential{}, amqerrors.NewAuthFailedError("authenticate", status, fmt.Errorf("unexpected status %d", status))
	}

	var tok wireTokenResponse
	if err := json.Unmarshal(respBody, &tok); err != nil {
		return auth.Credential{}, amqerrors.NewAuthFailedError("authenticate", status, fmt.Errorf("malformed token response: %w", err))
	}

	return auth.Credential{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		IssuedAt:    time.Now(),
		TTLSeconds:  tok.ExpiresIn,
	}, nil
}

// ListSelf returns the root tenant and visible member tenants.
func (c *Client) ListSelf(ctx context.Context) (TenantSnapshot, error) {
	body, err := c.authedGet(ctx, "listSelf", "/accounts/api/me", nil)
	if err != nil {
		return TenantSnapshot{}, err
	}

	var resp wireSelfResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return TenantSnapshot{}, amqerrors.NewTransientError("listSelf", 0, fmt.Errorf("malformed response: %w", err))
	}

	seen := map[string]bool{resp.User.Organization.ID: true}
	members := make([]TenantRef, 0, len(resp.User.MemberOfOrganizations))
	for _, m := range resp.User.MemberOfOrganizations {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		members = append(members, TenantRef{ID: m.ID, Name: m.Name})
	}

	return TenantSnapshot{
		RootTenant:    TenantRef{ID: resp.User.Organization.ID, Name: resp.User.Organization.Name},
		MemberTenants: members,
	}, nil
}

// ListEnvironments returns the environments visible within a tenant.
func (c *Client) ListEnvironments(ctx context.Context, tenant TenantRef) ([]EnvironmentRef, error) {
	path := fmt.Sprintf("/accounts/api/organizations/%s/environments", url.PathEscape(tenant.ID))
	body, err := c.authedGet(ctx, "listEnvironments", path, nil)
	if err != nil {
		return nil, err
	}

	var resp wireEnvironmentsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, amqerrors.NewTransientError("listEnvironments", 0, fmt.Errorf("malformed response: %w", err))
	}

	envs := make([]EnvironmentRef, 0, len(resp.Data))
	for _, e := range resp.Data {
		envs = append(envs, EnvironmentRef{
			ID:     e.ID,
			Name:   e.Name,
			Tenant: tenant,
			Type:   e.Type,
			IsProd: e.IsProduction,
		})
	}
	return envs, nil
}

// ListDestinations returns every queue and exchange in an environment/region.
func (c *Client) ListDestinations(ctx context.Context, tenantID, envID, region string) ([]Destination, error) {
	path := fmt.Sprintf("/mq/admin/api/v1/organizations/%s/environments/%s/regions/%s/destinations",
		url.PathEscape(tenantID), url.PathEscape(envID), url.PathEscape(region))
	body, err := c.authedGet(ctx, "listDestinations", path, nil)
	if err != nil {
		return nil, err
	}

	var wire []wireDestination
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, amqerrors.NewTransientError("listDestinations", 0, fmt.Errorf("malformed response: %w", err))
	}

	destinations := make([]Destination, 0, len(wire))
	for _, w := range wire {
		d := w.toDestination(envID, region)
		if d.Kind == KindExchange && w.ExchangeID == "" {
			continue
		}
		if d.Kind == KindQueue && w.QueueID == "" {
			continue
		}
		destinations = append(destinations, d)
	}
	return destinations, nil
}

// GetQueueStats returns a statistics sample for the given queue over
// the window ending now and spanning periodSeconds.
func (c *Client) GetQueueStats(ctx context.Context, tenantID, envID, region, queueID string, periodSeconds int) (QueueStats, error) {
	path := fmt.Sprintf("/mq/stats/api/v1/organizations/%s/environments/%s/regions/%s/queues/%s",
		url.PathEscape(tenantID), url.PathEscape(envID), url.PathEscape(region), url.PathEscape(queueID))
	body, err := c.authedGet(ctx, "getQueueStats", path, statsQuery(periodSeconds))
	if err != nil {
		return QueueStats{}, err
	}

	var wire wireQueueStats
	if err := json.Unmarshal(body, &wire); err != nil {
		return QueueStats{}, amqerrors.NewTransientError("getQueueStats", 0, fmt.Errorf("malformed response: %w", err))
	}
	return wire.toQueueStats(), nil
}

// GetExchangeStats returns a statistics sample for the given exchange.
func (c *Client) GetExchangeStats(ctx context.Context, tenantID, envID, region, exchangeID string, periodSeconds int) (ExchangeStats, error) {
	path := fmt.Sprintf("/mq/stats/api/v1/organizations/%s/environments/%s/regions/%s/exchanges/%s",
		url.PathEscape(tenantID), url.PathEscape(envID), url.PathEscape(region), url.PathEscape(exchangeID))
	body, err := c.authedGet(ctx, "getExchangeStats", path, statsQuery(periodSeconds))
	if err != nil {
		return ExchangeStats{}, err
	}

	var wire wireExchangeStats
	if err := json.Unmarshal(body, &wire); err != nil {
		return ExchangeStats{}, amqerrors.NewTransientError("getExchangeStats", 0, fmt.Errorf("malformed response: %w", err))
	}
	return wire.toExchangeStats(), nil
}

// statsQuery builds the startDate/endDate/period query parameters for
// a statistics request, formatted as millisecond-precision UTC
// ISO-8601 timestamps ending in a literal Z.
func statsQuery(periodSeconds int) url.Values {
	end := time.Now().UTC()
	start := end.Add(-time.Duration(periodSeconds) * time.Second)
	return url.Values{
		"startDate": {formatISO8601Millis(start)},
		"endDate":   {formatISO8601Millis(end)},
		"period":    {strconv.Itoa(periodSeconds)},
	}
}

func formatISO8601Millis(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000Z")
}

// authedGet performs a GET request with the cached bearer credential
// attached, retrying transient failures.
func (c *Client) authedGet(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	cred, err := c.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	full := c.baseURL + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", op, err)
	}
	req.Header.Set("Authorization", cred.TokenType+" "+cred.AccessToken)

	body, status, err := c.sendWithRetry(req, op)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusNotFound:
		return nil, amqerrors.NewNotFoundError(op, path, fmt.Errorf("status %d", status))
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		c.cache.Clear()
		return nil, amqerrors.NewAuthFailedError(op, status, fmt.Errorf("status %d", status))
	case status >= 400:
		return nil, amqerrors.NewTransientError(op, status, fmt.Errorf("status %d", status))
	}
	return body, nil
}

// sendWithRetry executes req behind the circuit breaker, retrying on
// 5xx/429/timeout/connection failures with exponential backoff. It
// never retries other 4xx responses.
func (c *Client) sendWithRetry(req *http.Request, op string) ([]byte, int, error) {
	var lastBody []byte
	var lastStatus int
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt)
			select {
			case <-req.Context().Done():
				return nil, 0, req.Context().Err()
			case <-time.After(delay):
			}
		}

		resp, err := c.breaker.Execute(func() (requestResult, error) {
			return c.doOnce(req)
		})
		if err != nil {
			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				return nil, 0, amqerrors.ErrCircuitBreakerOpen
			}
			lastErr = amqerrors.NewTransientError(op, 0, err)
			continue
		}

		lastBody, lastStatus, lastErr = resp.body, resp.status, nil

		if resp.status >= 500 || resp.status == http.StatusTooManyRequests {
			lastErr = amqerrors.NewTransientError(op, resp.status, fmt.Errorf("retryable status %d", resp.status))
			continue
		}
		return resp.body, resp.status, nil
	}

	if lastErr != nil {
		return nil, lastStatus, lastErr
	}
	return lastBody, lastStatus, nil
}

type requestResult struct {
	body   []byte
	status int
}

// doOnce performs a single HTTP round trip and reports a breaker-visible
// error for connection/timeout failures and 5xx/429 responses, so the
// breaker's failure ratio reflects upstream health rather than 4xx
// client errors.
func (c *Client) doOnce(req *http.Request) (requestResult, error) {
	attempt := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return requestResult{}, fmt.Errorf("failed to rewind request body: %w", err)
		}
		attempt.Body = body
	}

	resp, err := c.httpClient.Do(attempt)
	if err != nil {
		return requestResult{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return requestResult{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return requestResult{body: body, status: resp.StatusCode}, fmt.Errorf("retryable status %d", resp.StatusCode)
	}

	return requestResult{body: body, status: resp.StatusCode}, nil
}

func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay > retryMaxDelay {
			return retryMaxDelay
		}
	}
	return delay
}
