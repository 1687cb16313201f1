// Package publish pushes trained model artifacts to the risk scoring service.
package publish

import (
	"context"
	"fmt"
	"strings"
	"time"

	"risk-model/internal/ml"

	"github.com/go-resty/resty/v2"
)

const artifactsPath = "/api/v1/risk-models"

type Client struct {
	base string
	rest *resty.Client
}

func NewClient(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	r.SetHeader("Content-Type", "application/json")
	return &Client{base: strings.TrimRight(base, "/"), rest: r}
}

type publishResp struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// PublishArtifact posts a to the scoring service. Any non-2xx status, or a
// non-zero code in the response body, is an error.
func (c *Client) PublishArtifact(ctx context.Context, a ml.ModelArtifact) error {
	resp := &publishResp{}
	r, err := c.rest.R().
		SetContext(ctx).
		SetHeader("X-Run-Id", a.RunID).
		SetBody(a).
		SetResult(resp).
		Post(c.base + artifactsPath)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if r.IsError() {
		return fmt.Errorf("publish: %s: %s", r.Status(), strings.TrimSpace(r.String()))
	}
	if resp.Code != 0 {
		return fmt.Errorf("publish: %d %s", resp.Code, resp.Msg)
	}
	return nil
}
