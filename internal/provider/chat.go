package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// chatCompletionsPath is appended to the handle's base URL.
const chatCompletionsPath = "/chat/completions"

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 << 10

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

// chatInvoker speaks the OpenAI-compatible chat completions protocol used
// by OpenRouter and Perplexity.
type chatInvoker struct {
	httpClient *http.Client
	creds      credentials
}

func newChat(httpClient *http.Client, creds credentials) *chatInvoker {
	return &chatInvoker{httpClient: httpClient, creds: creds}
}

// Invoke posts a single-turn conversation and returns the first choice.
func (c *chatInvoker) Invoke(ctx context.Context, h Handle, p Prompt) (string, error) {
	apiKey, err := c.creds.resolve(h)
	if err != nil {
		return "", err
	}
	if h.BaseURL == "" {
		return "", fmt.Errorf("%s: base url is required", h.Name)
	}

	req := chatRequest{
		Model:       h.Model,
		Temperature: h.Temperature,
	}
	if p.System != "" {
		req.Messages = append(req.Messages, chatMessage{Role: "system", Content: p.System})
	}
	req.Messages = append(req.Messages, chatMessage{Role: "user", Content: p.User})

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%s: encoding request: %w", h.Name, err)
	}

	url := strings.TrimRight(h.BaseURL, "/") + chatCompletionsPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: building request: %w", h.Name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s: request failed: %w", h.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", statusFromBody(h.Name, resp.StatusCode, respBody)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: reading response: %w", h.Name, err)
	}

	// OpenRouter reports upstream failures inside a 200 body.
	if e := gjson.GetBytes(respBody, "error"); e.Exists() {
		status := int(e.Get("code").Int())
		if status == 0 {
			status = http.StatusBadGateway
		}
		return "", statusFromBody(h.Name, status, respBody)
	}

	text := strings.TrimSpace(gjson.GetBytes(respBody, "choices.0.message.content").String())
	if text == "" {
		return "", fmt.Errorf("%s: %w", h.Name, ErrEmptyResponse)
	}
	return text, nil
}

// statusFromBody builds a StatusError, preferring the provider's own
// error message over the generic status text.
func statusFromBody(name string, status int, body []byte) error {
	msg := gjson.GetBytes(body, "error.message").String()
	if msg == "" {
		msg = gjson.GetBytes(body, "detail").String()
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &StatusError{Provider: name, Status: status, Message: msg}
}
