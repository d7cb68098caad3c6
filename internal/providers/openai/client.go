package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrMissingAPIKey indicates that a call was made without credentials.
var ErrMissingAPIKey = errors.New("openai: api key is required")

// APIError carries the upstream HTTP status and the API's own error code so
// callers can classify the failure.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("openai: status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("openai: status %d: %s", e.Status, e.Message)
}

// Options configures the Images API client.
type Options struct {
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the OpenAI Images API.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// ImageRequest captures the required inputs for one generation call.
type ImageRequest struct {
	Prompt    string
	Size      string
	RequestID string
}

// ImageAsset is the normalized result from the Images API. Either Data or
// URL is populated depending on what the API returned.
type ImageAsset struct {
	Data   []byte
	URL    string
	Format string
}

type generationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size,omitempty"`
}

type generationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient constructs a client with sane defaults.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gpt-image-1"
	}
	return &Client{baseURL: baseURL, model: model, httpClient: httpClient}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// GenerateImage invokes the Images API once and returns a single asset.
func (c *Client) GenerateImage(ctx context.Context, apiKey string, req ImageRequest) (*ImageAsset, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("openai: prompt is required")
	}

	payload := generationRequest{
		Model:  c.model,
		Prompt: prompt,
		N:      1,
		Size:   strings.TrimSpace(req.Size),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openai: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai: read response: %w", err)
	}

	var decoded generationResponse
	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Error != nil {
			apiErr.Code = decoded.Error.Code
			apiErr.Message = decoded.Error.Message
		}
		return nil, apiErr
	}

	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(decoded.Data) == 0 {
		return nil, errors.New("openai: empty image data")
	}
	first := decoded.Data[0]
	asset := &ImageAsset{URL: strings.TrimSpace(first.URL), Format: "image/png"}
	if first.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(first.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("openai: decode image bytes: %w", err)
		}
		asset.Data = data
	}
	if len(asset.Data) == 0 && asset.URL == "" {
		return nil, errors.New("openai: response carried neither bytes nor url")
	}
	return asset, nil
}
