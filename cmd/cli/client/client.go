// Package client talks to the birthday service HTTP API.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/crucial707/birthday-service/internal/birthday"
	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 15 * time.Second

// LegacyTriggerPath is the unauthenticated trigger kept for existing callers.
const LegacyTriggerPath = "/api/run-birthday-service"

type Client struct {
	http *resty.Client
}

func New(baseURL, token string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "bdayctl")
	if token != "" {
		c.SetAuthToken(token)
	}
	return &Client{http: c}
}

type apiError struct {
	Error string `json:"error"`
}

func check(resp *resty.Response, apiErr *apiError) error {
	if !resp.IsError() {
		return nil
	}
	if apiErr.Error != "" {
		return fmt.Errorf("API error (%d): %s", resp.StatusCode(), apiErr.Error)
	}
	return fmt.Errorf("API error (%d): %s", resp.StatusCode(), resp.String())
}

// TriggerRun asks the service to attempt a run. The service answers before the run
// finishes, and a run on an already served day is skipped server-side.
func (c *Client) TriggerRun(ctx context.Context, legacy bool) error {
	path := "/v1/runs"
	if legacy {
		path = LegacyTriggerPath
	}
	var out struct {
		Status bool `json:"status"`
	}
	var apiErr apiError
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).SetError(&apiErr).Post(path)
	if err != nil {
		return fmt.Errorf("failed to call API: %w", err)
	}
	if err := check(resp, &apiErr); err != nil {
		return err
	}
	if !out.Status {
		return fmt.Errorf("service did not accept the trigger")
	}
	return nil
}

func (c *Client) Status(ctx context.Context) (*birthday.Status, error) {
	var st birthday.Status
	var apiErr apiError
	resp, err := c.http.R().SetContext(ctx).SetResult(&st).SetError(&apiErr).Get("/v1/status")
	if err != nil {
		return nil, fmt.Errorf("failed to call API: %w", err)
	}
	if err := check(resp, &apiErr); err != nil {
		return nil, err
	}
	return &st, nil
}
