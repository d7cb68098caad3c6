package upload

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"assetforge/internal/domain"
	"assetforge/internal/infra/credentials"
)

// maxDiagnosticBody caps the response excerpt carried on upload failures.
const maxDiagnosticBody = 256

// Options configures the signed upload client.
type Options struct {
	UploadURL      string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

// Client commits generated bytes to the durable asset store using the
// signed upload protocol. Credentials are resolved per call.
type Client struct {
	uploadURL  string
	httpClient *http.Client
	creds      credentials.Source
	now        func() time.Time
}

// Request describes one upload. Exactly one of Data or URL must be set.
// PublicID collisions are intentional: the store is asked to overwrite so
// retried uploads for the same logical asset converge.
type Request struct {
	Data     []byte
	URL      string
	PublicID string
	Folder   string
	Format   string
}

type uploadResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Format    string `json:"format"`
	Bytes     int64  `json:"bytes"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// NewClient constructs an upload client.
func NewClient(opts Options, creds credentials.Source) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		uploadURL:  strings.TrimSpace(opts.UploadURL),
		httpClient: httpClient,
		creds:      creds,
		now:        time.Now,
	}
}

// Upload signs and sends the canonical parameter set together with the
// asset payload. The shared secret is used only to compute the signature
// and never transmitted.
func (c *Client) Upload(ctx context.Context, req Request) (*domain.UploadResult, error) {
	apiKey, err := c.creds.Secret(ctx, credentials.KeyUploadAPIKey)
	if err != nil {
		return nil, domain.WrapError(domain.ErrMissingCredentials, "upload", err)
	}
	secret, serr := c.creds.Secret(ctx, credentials.KeyUploadSecret)
	if serr != nil {
		return nil, domain.WrapError(domain.ErrMissingCredentials, "upload", serr)
	}
	if apiKey == "" || secret == "" {
		return nil, domain.NewError(domain.ErrMissingCredentials, "upload", "upload api key or secret is not configured")
	}

	file := strings.TrimSpace(req.URL)
	if len(req.Data) > 0 {
		mime := "image/" + strings.TrimSpace(req.Format)
		if req.Format == "" {
			mime = "image/png"
		}
		file = "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(req.Data)
	}
	if file == "" {
		return nil, domain.NewError(domain.ErrInvalidRequest, "upload", "no asset bytes or url to upload")
	}

	params := map[string]string{
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
		"public_id": strings.TrimSpace(req.PublicID),
		"folder":    strings.TrimSpace(req.Folder),
		"format":    strings.TrimSpace(req.Format),
		"overwrite": "true",
	}
	signature := Signature(params, secret)

	form := url.Values{}
	for k, v := range params {
		if v != "" {
			form.Set(k, v)
		}
	}
	form.Set("file", file)
	form.Set("api_key", apiKey)
	form.Set("signature", signature)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, domain.WrapError(domain.ErrUploadFailed, "upload", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUploadFailed, "upload", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUploadFailed, "upload", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, domain.NewError(domain.ErrMissingCredentials, "upload", "store rejected credentials: %s", truncate(raw))
	}
	if resp.StatusCode >= 300 {
		return nil, domain.NewError(domain.ErrUploadFailed, "upload", "status %d: %s", resp.StatusCode, truncate(raw))
	}

	var decoded uploadResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, domain.WrapError(domain.ErrUploadFailed, "upload", fmt.Errorf("decode response: %w", err))
	}
	if decoded.SecureURL == "" {
		return nil, domain.NewError(domain.ErrUploadFailed, "upload", "store response missing secure_url")
	}
	return &domain.UploadResult{
		AssetID:   decoded.PublicID,
		SecureURL: decoded.SecureURL,
		ByteSize:  decoded.Bytes,
		Width:     decoded.Width,
		Height:    decoded.Height,
		Format:    decoded.Format,
	}, nil
}

func truncate(raw []byte) string {
	body := strings.TrimSpace(string(raw))
	if len(body) > maxDiagnosticBody {
		body = body[:maxDiagnosticBody] + "..."
	}
	return body
}
