package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Defaults for the remote classification endpoint.
const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1"
	DefaultModel    = "gemini-pro"
	DefaultTimeout  = 8 * time.Second

	maxResponseBytes = 1 << 20
)

// Generator sends one prompt to a language model and returns its reply text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// -- generateContent wire format --

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type generateResponse struct {
	Candidates []candidate    `json:"candidates"`
	Error      *errorResponse `json:"error,omitempty"`
}

type candidate struct {
	Content      *content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// firstText returns candidates[0].content.parts[0].text when it is non-empty.
func (r *generateResponse) firstText() (string, bool) {
	if len(r.Candidates) == 0 {
		return "", false
	}
	c := r.Candidates[0].Content
	if c == nil || len(c.Parts) == 0 || c.Parts[0].Text == "" {
		return "", false
	}
	return c.Parts[0].Text, true
}

// RESTGenerator calls the generateContent endpoint over plain HTTP.
type RESTGenerator struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewRESTGenerator builds a REST backend. A nil httpClient gets a client
// without its own timeout; the gateway bounds every call through the context.
func NewRESTGenerator(endpoint, model, apiKey string, httpClient *http.Client) *RESTGenerator {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if model == "" {
		model = DefaultModel
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &RESTGenerator{
		endpoint:   strings.TrimRight(endpoint, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (g *RESTGenerator) Name() string { return "rest" }

func (g *RESTGenerator) url() string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		g.endpoint, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
}

// Generate posts the prompt and extracts the first candidate's text. The text
// wins over an error payload when both are present.
func (g *RESTGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode >= http.StatusMultipleChoices {
			return "", &APIError{StatusCode: resp.StatusCode, Message: snippet(raw)}
		}
		return "", &ResponseError{Reason: "decode body", Err: err}
	}

	if text, ok := out.firstText(); ok {
		return text, nil
	}
	if out.Error != nil {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Code:       out.Error.Code,
			Status:     out.Error.Status,
			Message:    out.Error.Message,
		}
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return "", &ResponseError{Reason: "missing candidates[0].content.parts[0].text"}
}

func snippet(b []byte) string {
	const max = 200
	s := string(b)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
