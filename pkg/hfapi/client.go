// Package hfapi is the HTTP transport for hosted object detection models.
// Each model is reached by POSTing the raw image bytes to its URL with a
// bearer token; the answer is a JSON array of detections.
package hfapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/menta2k/room-advisor/pkg/client"
	"github.com/menta2k/room-advisor/pkg/types"
)

// Client implements client.Transport over HTTP
type Client struct {
	token string
	http  *resty.Client
}

// NewClient creates a transport authenticating with token. The overall
// timeout is a safety net only; callers bound each request with ctx.
func NewClient(token string, logger logrus.FieldLogger) *Client {
	r := resty.New().
		SetTimeout(5 * time.Minute).
		SetHeader("Accept", "application/json")
	if l, ok := logger.(resty.Logger); ok {
		r.SetLogger(l)
	}

	return &Client{
		token: token,
		http:  r,
	}
}

// RequiresCredential reports that hosted models need a bearer token
func (c *Client) RequiresCredential() bool {
	return true
}

// Detect posts the image to endpoint and decodes the detection list
func (c *Client) Detect(ctx context.Context, endpoint client.Endpoint, image []byte, contentType string) ([]types.Detection, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(image)
	if c.token != "" {
		req.SetAuthToken(c.token)
	}

	resp, err := req.Post(endpoint.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", endpoint, err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &client.StatusError{
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Body:       strings.TrimSpace(string(resp.Body())),
		}
	}

	return parseDetections(resp.Body())
}

// parseDetections accepts only a JSON array. Hosted models answer with an
// object such as {"error": "...", "estimated_time": 20} while loading.
func parseDetections(body []byte) ([]types.Detection, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", client.ErrInvalidFormat)
	}

	var detections []types.Detection
	if err := json.Unmarshal(body, &detections); err != nil {
		return nil, fmt.Errorf("%w: %v", client.ErrInvalidFormat, err)
	}
	if detections == nil {
		detections = []types.Detection{}
	}
	return detections, nil
}
