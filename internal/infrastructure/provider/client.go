// Package provider talks to the remote recipe platform: the meal-plan
// generator, recipe lookup and shopping-list normalization. Every request goes
// through the fetch transport so it is scheduled and retried per service.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/application/fetch"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Remote service names, also used as scheduler keys
const (
	ServicePlanner  = "planner"
	ServiceRecipes  = "recipes"
	ServiceShopping = "shopping"
)

const maxErrorBody = 4 << 10

// Client is the HTTP client for the recipe platform
type Client struct {
	baseURL     string
	appID       string
	appKey      string
	accountUser string
	http        *http.Client
	transport   *fetch.Transport
	logger      *zap.Logger
}

// NewClient creates a provider client
func NewClient(cfg config.ProviderConfig, transport *fetch.Transport, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if transport == nil {
		transport = fetch.NewTransport(fetch.DefaultConfig(), logger)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		appID:       cfg.AppID,
		appKey:      cfg.AppKey,
		accountUser: cfg.AccountUser,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		transport: transport,
		logger:    logger.Named("provider"),
	}
}

// Ping checks that the platform answers at all
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return &fetch.StatusError{Service: "provider", StatusCode: resp.StatusCode}
	}
	return nil
}

// call sends one JSON request through the transport. The request is rebuilt
// for every attempt.
func (c *Client) call(ctx context.Context, service, method, path string, query url.Values, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	endpoint := c.endpoint(path, query)

	return c.transport.Do(ctx, service, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.accountUser != "" {
			req.Header.Set("Account-User", c.accountUser)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return &fetch.StatusError{Service: service, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", service, err)
		}
		return nil
	})
}

func (c *Client) endpoint(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	if c.appID != "" {
		query.Set("app_id", c.appID)
	}
	if c.appKey != "" {
		query.Set("app_key", c.appKey)
	}
	return c.baseURL + path + "?" + query.Encode()
}
