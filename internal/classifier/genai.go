package classifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/genai"
)

// GenAIGenerator calls the same endpoint through the Google GenAI SDK.
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

// NewGenAIGenerator builds an SDK backend. endpoint is split into base URL
// and API version, so "https://host/v1" talks to the v1 API.
func NewGenAIGenerator(ctx context.Context, endpoint, model, apiKey string, httpClient *http.Client) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genai backend requires an API key")
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if model == "" {
		model = DefaultModel
	}

	base, version, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    base,
			APIVersion: version,
		},
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIGenerator{client: client, model: model}, nil
}

func (g *GenAIGenerator) Name() string { return "genai" }

func (g *GenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", fromGenAIError(apiErr)
		}
		var apiErrPtr *genai.APIError
		if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
			return "", fromGenAIError(*apiErrPtr)
		}
		return "", err
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", &ResponseError{Reason: "no candidates"}
	}
	c := resp.Candidates[0].Content
	if c == nil || len(c.Parts) == 0 || c.Parts[0] == nil || c.Parts[0].Text == "" {
		return "", &ResponseError{Reason: "missing candidates[0].content.parts[0].text"}
	}
	return c.Parts[0].Text, nil
}

// splitEndpoint turns "https://host/v1" into ("https://host/", "v1").
func splitEndpoint(endpoint string) (string, string, error) {
	u, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return "", "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", "", fmt.Errorf("invalid endpoint %q: missing scheme or host", endpoint)
	}

	path := strings.Trim(u.Path, "/")
	version := "v1"
	if path != "" {
		segs := strings.Split(path, "/")
		version = segs[len(segs)-1]
		path = strings.Join(segs[:len(segs)-1], "/")
	}

	base := u.Scheme + "://" + u.Host + "/"
	if path != "" {
		base += path + "/"
	}
	return base, version, nil
}

func fromGenAIError(e genai.APIError) *APIError {
	return &APIError{
		StatusCode: e.Code,
		Code:       e.Code,
		Status:     e.Status,
		Message:    e.Message,
	}
}
