// Package gtranslate calls the public Google Translate "gtx" endpoint.
package gtranslate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the public single-translation endpoint.
const DefaultBaseURL = "https://translate.googleapis.com/translate_a/single"

const maxResponseBytes = 1 << 20

// Client translates text through the gtx endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a Client. A nil httpClient uses a client with a 30s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// Name identifies the backend in logs.
func (c *Client) Name() string { return "google" }

// Translate returns text rendered in target. An empty source lets the service
// detect it.
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(target) == "" {
		return "", errors.New("gtranslate: target language required")
	}
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if source == "" {
		source = "auto"
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", source)
	params.Set("tl", target)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("gtranslate: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gtranslate: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("gtranslate: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gtranslate: unexpected status %s", resp.Status)
	}
	return parseResponse(body)
}

// parseResponse joins the translated chunks of a gtx response, shaped like
// [[["translated","original",...],...],null,"en",...].
func parseResponse(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", errors.New("gtranslate: invalid JSON response")
	}
	chunks := gjson.GetBytes(body, "0.#.0")
	if !chunks.IsArray() {
		return "", errors.New("gtranslate: response has no translation chunks")
	}
	var b strings.Builder
	for _, chunk := range chunks.Array() {
		b.WriteString(chunk.String())
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", errors.New("gtranslate: empty translation")
	}
	return out, nil
}
