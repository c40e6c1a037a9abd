package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/tally/internal/credential"
	"google.golang.org/genai"
)

// Errors for responses that arrive but carry nothing usable.
var (
	ErrEmptyResponse  = errors.New("empty response from model")
	ErrContentBlocked = errors.New("content blocked by safety filters")
)

// GeminiBackend calls the Gemini generate-content API through
// google.golang.org/genai. A fresh client is built per call from the given
// credential; no per-key state is kept.
type GeminiBackend struct {
	httpClient *http.Client
	baseURL    string
}

// GeminiOption configures a GeminiBackend.
type GeminiOption func(*GeminiBackend)

// WithBaseURL points the backend at a different API endpoint.
func WithBaseURL(url string) GeminiOption {
	return func(b *GeminiBackend) {
		b.baseURL = url
	}
}

// WithHTTPClient replaces the HTTP client used for every attempt.
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(b *GeminiBackend) {
		b.httpClient = c
	}
}

// NewGeminiBackend creates a backend whose individual attempts are bounded by
// timeout. A zero timeout means 60 seconds.
func NewGeminiBackend(timeout time.Duration, opts ...GeminiOption) *GeminiBackend {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	b := &GeminiBackend{
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GenerateContent implements Backend.
func (b *GeminiBackend) GenerateContent(ctx context.Context, cred credential.Credential, req Request) (string, error) {
	cfg := &genai.ClientConfig{
		APIKey:     cred.Token(),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: b.httpClient,
	}
	if b.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: b.baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: toGenaiParts(req.Parts),
	}}

	resp, err := client.Models.GenerateContent(ctx, req.Model, contents, generateConfig(req))
	if err != nil {
		return "", err
	}

	return responseText(resp)
}

func toGenaiParts(parts []Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.IsBlob() {
			out = append(out, genai.NewPartFromBytes(p.Data, p.MIMEType))
			continue
		}
		out = append(out, genai.NewPartFromText(p.Text))
	}
	return out
}

func generateConfig(req Request) *genai.GenerateContentConfig {
	if req.ResponseSchema == nil {
		return nil
	}
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   toGenaiSchema(req.ResponseSchema),
	}
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        genai.Type(s.Type),
		Description: s.Description,
		Format:      s.Format,
		Enum:        s.Enum,
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	return out
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", ErrContentBlocked
	}
	if candidate.Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
