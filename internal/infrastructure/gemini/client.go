// Package gemini is a minimal client for the Gemini generateContent REST API.
// The backend only ever needs "generate text for a prompt, optionally shaped
// by a response schema", so the surface is one call.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// ErrUpstream reports any non-success answer from the Gemini API. The caller
// surfaces it as a bad-gateway condition and never retries.
var ErrUpstream = errors.New("gemini: upstream request failed")

// Client calls the generateContent endpoint with a per-user API key. The key
// lives only inside this value; it is never logged or echoed back.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// Option tweaks a Client; used by tests to point at a fake server.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(apiKey, model string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		http:    http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Part is one piece of request content: text, or inline image data.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Blob carries base64 payload bytes plus their mime type.
type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Schema mirrors the subset of the OpenAPI schema object the response-shaping
// config accepts.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *Schema `json:"responseSchema,omitempty"`
}

type content struct {
	Parts []Part `json:"parts"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateContent sends the parts and returns the model's text. When schema
// is non-nil the request asks for application/json shaped by it.
func (c *Client) GenerateContent(ctx context.Context, parts []Part, schema *Schema) (string, error) {
	reqBody := generateRequest{Contents: []content{{Parts: parts}}}
	if schema != nil {
		reqBody.GenerationConfig = &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		// Body intentionally dropped: it can echo request details.
		return "", fmt.Errorf("%w: status %d", ErrUpstream, res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrUpstream)
	}
	return strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text), nil
}
