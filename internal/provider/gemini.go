package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// geminiInvoker calls the Gemini API. Clients are cached per key and
// endpoint so repeated calls reuse connections.
type geminiInvoker struct {
	httpClient *http.Client
	creds      credentials

	mu      sync.Mutex
	clients map[string]*genai.Client
}

func newGemini(httpClient *http.Client, creds credentials) *geminiInvoker {
	return &geminiInvoker{
		httpClient: httpClient,
		creds:      creds,
		clients:    make(map[string]*genai.Client),
	}
}

func (g *geminiInvoker) client(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cacheKey := baseURL + "|" + apiKey
	if c, ok := g.clients[cacheKey]; ok {
		return c, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.httpClient,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	g.clients[cacheKey] = c
	return c, nil
}

// Invoke sends p to the Gemini model named by h.Model.
func (g *geminiInvoker) Invoke(ctx context.Context, h Handle, p Prompt) (string, error) {
	apiKey, err := g.creds.resolve(h)
	if err != nil {
		return "", err
	}

	c, err := g.client(ctx, apiKey, h.BaseURL)
	if err != nil {
		return "", fmt.Errorf("%s: %w", h.Name, err)
	}

	cfg := &genai.GenerateContentConfig{}
	if h.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*h.Temperature))
	}
	if p.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}

	resp, err := c.Models.GenerateContent(ctx, geminiModel(h.Model), genai.Text(p.User), cfg)
	if err != nil {
		return "", fmt.Errorf("%s: generate content: %w", h.Name, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%s: %w", h.Name, ErrEmptyResponse)
	}
	return text, nil
}

// geminiModel accepts both "gemini-2.0-flash" and the routed form
// "gemini/gemini-2.0-flash".
func geminiModel(model string) string {
	return strings.TrimPrefix(model, "gemini/")
}
