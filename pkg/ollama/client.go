// Package ollama is a detection transport backed by a local vision model.
// It needs no API token, which makes it the offline alternative to the
// hosted detection models.
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/room-advisor/pkg/client"
	"github.com/menta2k/room-advisor/pkg/detection"
	"github.com/menta2k/room-advisor/pkg/types"
)

// DefaultModel is used when an endpoint carries no model name
const DefaultModel = "minicpm-v"

// Client implements client.Transport by chatting with an Ollama server
type Client struct {
	httpClient *http.Client

	mu      sync.Mutex
	clients map[string]*api.Client
}

// NewClient creates the transport. Endpoints name the model and the server
// URL; one API client is kept per server.
func NewClient() *Client {
	return &Client{
		httpClient: http.DefaultClient,
		clients:    make(map[string]*api.Client),
	}
}

// RequiresCredential reports that a local server needs no token
func (c *Client) RequiresCredential() bool {
	return false
}

func (c *Client) apiClient(serverURL string) (*api.Client, error) {
	// Parse the provided URL
	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: scheme and host required", serverURL)
	}

	// Create base URL from the provided URL (removing path like /api/chat)
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}
	key := baseURL.String()

	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.clients[key]; ok {
		return cl, nil
	}
	cl := api.NewClient(baseURL, c.httpClient)
	c.clients[key] = cl
	return cl, nil
}

// Detect asks the model to list the furniture it sees in the image
func (c *Client) Detect(ctx context.Context, endpoint client.Endpoint, image []byte, contentType string) ([]types.Detection, error) {
	cl, err := c.apiClient(endpoint.URL)
	if err != nil {
		return nil, err
	}

	model := endpoint.Name
	if model == "" {
		model = DefaultModel
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: Prompt(),
				Images:  []api.ImageData{api.ImageData(image)},
			},
		},
		Stream:  &streamFalse,
		Options: modelOptions(model),
	}

	var responseContent string
	err = cl.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent += resp.Message.Content
		return nil
	})
	if err != nil {
		var se api.StatusError
		if errors.As(err, &se) {
			return nil, &client.StatusError{
				StatusCode: se.StatusCode,
				Status:     se.Status,
				Body:       se.ErrorMessage,
			}
		}
		return nil, fmt.Errorf("ollama chat error: %w", err)
	}

	return parseDetections(responseContent)
}

// Prompt is the instruction sent with every image
func Prompt() string {
	return "List the furniture visible in this room photo. Respond with a JSON array only, " +
		"one element per object: " +
		`[{"label": "<name>", "score": <confidence 0..1>, "box": {"xmin": 0, "ymin": 0, "xmax": 0, "ymax": 0}}]. ` +
		"Use these labels where they apply: " + strings.Join(detection.Furniture, ", ") + ". " +
		"Box coordinates are pixels. Respond with [] if there is no furniture."
}

// modelOptions tunes sampling for small vision models
func modelOptions(model string) map[string]any {
	options := map[string]any{
		"temperature": 0.1,
	}

	modelLower := strings.ToLower(model)
	if strings.Contains(modelLower, "minicpm-v4") ||
		strings.Contains(modelLower, "minicpm-v-4") ||
		strings.Contains(modelLower, "minicpmv4") {
		options["top_p"] = 0.8
		options["num_ctx"] = 4096
	}
	return options
}

// parseDetections decodes the model answer. Anything that is not a list of
// detections is an invalid format so the caller can retry.
func parseDetections(raw string) ([]types.Detection, error) {
	raw = sanitizeModelJSON(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty response from ollama", client.ErrInvalidFormat)
	}

	var detections []types.Detection
	switch raw[0] {
	case '[':
		if err := json.Unmarshal([]byte(raw), &detections); err != nil {
			return nil, fmt.Errorf("%w: %v", client.ErrInvalidFormat, err)
		}
	case '{':
		// Some models wrap the list: {"objects": [...]}
		var wrapped struct {
			Objects []types.Detection `json:"objects"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err != nil || wrapped.Objects == nil {
			return nil, fmt.Errorf("%w: expected a JSON array", client.ErrInvalidFormat)
		}
		detections = wrapped.Objects
	default:
		return nil, fmt.Errorf("%w: model returned non-JSON response", client.ErrInvalidFormat)
	}

	if detections == nil {
		detections = []types.Detection{}
	}
	return detections, nil
}

var (
	reBlock    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLine     = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailing = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeModelJSON removes code fences, comments, and trailing commas, then
// keeps the outermost array (or object when there is no array)
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlock.ReplaceAllString(raw, "")
	raw = reLine.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Whichever bracket opens first decides between a bare list and a
	// wrapping object
	openCh, closeCh := "[", "]"
	arr, obj := strings.Index(raw, "["), strings.Index(raw, "{")
	if obj >= 0 && (arr < 0 || obj < arr) {
		openCh, closeCh = "{", "}"
	}
	if start := strings.Index(raw, openCh); start >= 0 {
		if end := strings.LastIndex(raw, closeCh); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
