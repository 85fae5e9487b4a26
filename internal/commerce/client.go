// Package commerce talks to the storefront platform's GraphQL API: product
// search, cart lookup, cart mutations, and backend line validation.
//
// Nothing here retries. A failed round-trip surfaces as a domain
// "unavailable" error and the caller restarts its pass from scratch.
package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dukerupert/quickorder/internal/telemetry"
)

const defaultTimeout = 10 * time.Second

// Config configures a Client.
type Config struct {
	URL       string
	Token     string
	ChannelID string
	Timeout   time.Duration
	Breaker   BreakerSettings
}

// Client is a GraphQL client for the commerce platform. Reads go through a
// circuit breaker; cart mutations are sent exactly once and never through
// the breaker so an unhealthy search path cannot block a checkout.
type Client struct {
	http    *resty.Client
	url     string
	channel string
	reads   *Breaker
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
}

// NewClient builds a Client. metrics may be nil.
func NewClient(cfg Config, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetTransport(&telemetry.HTTPTransport{Transport: http.DefaultTransport}).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		httpClient.SetAuthToken(cfg.Token)
	}

	return &Client{
		http:    httpClient,
		url:     cfg.URL,
		channel: cfg.ChannelID,
		reads:   NewBreaker("commerce-reads", cfg.Breaker, metrics, logger),
		metrics: metrics,
		logger:  logger,
	}
}

// BreakerState reports the read breaker's state for health output.
func (c *Client) BreakerState() string {
	return c.reads.State()
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

func messages(errs []graphQLError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Message)
	}
	return out
}

// execute sends one GraphQL request and decodes data into out. GraphQL
// errors are returned alongside a nil error; only transport, status, and
// decoding failures produce an error.
func (c *Client) execute(ctx context.Context, operation, query string, vars map[string]interface{}, out interface{}) ([]graphQLError, error) {
	start := time.Now()

	var envelope graphQLResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(graphQLRequest{Query: query, Variables: vars}).
		SetResult(&envelope).
		ForceContentType("application/json").
		Post(c.url)

	if err == nil && resp.IsError() {
		err = &statusError{code: resp.StatusCode()}
	}
	c.metrics.ObserveCommerceCall(operation, err, time.Since(start))
	if err != nil {
		c.logger.Warn("commerce call failed", "operation", operation, "error", err)
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	if out != nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return nil, fmt.Errorf("%s: decode data: %w", operation, err)
		}
	}

	return envelope.Errors, nil
}

// read runs execute behind the read breaker.
func (c *Client) read(ctx context.Context, operation, query string, vars map[string]interface{}, out interface{}) ([]graphQLError, error) {
	result, err := c.reads.Execute(func() (interface{}, error) {
		return c.execute(ctx, operation, query, vars, out)
	})
	if err != nil {
		if IsRejection(err) {
			return nil, fmt.Errorf("%s: %w", operation, err)
		}
		return nil, err
	}
	errs, _ := result.([]graphQLError)
	return errs, nil
}

// withChannel adds the channel variable when one is configured.
func (c *Client) withChannel(vars map[string]interface{}) map[string]interface{} {
	if c.channel != "" {
		vars["channelId"] = c.channel
	}
	return vars
}
