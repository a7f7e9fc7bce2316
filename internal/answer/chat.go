// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/pdiddy/literature-assistant/internal/httputil"
	"github.com/pdiddy/literature-assistant/pkg/types"
)

// openAIChatURL is the chat completions endpoint.
// Declared as a var so tests can substitute an httptest server.
var openAIChatURL = "https://api.openai.com/v1/chat/completions"

// ChatBackend produces structured JSON completions. A nil backend means
// synthesis is unavailable and callers fall back to extractive output.
type ChatBackend interface {
	Model() string

	// CompleteJSON sends the prompts and decodes the model's JSON reply
	// into out.
	CompleteJSON(ctx context.Context, p Prompt, out any) error
}

// Prompt is one structured-completion request.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// OpenAIChat calls the OpenAI chat completions API in JSON mode.
type OpenAIChat struct {
	Client *http.Client
	Config types.ChatConfig
}

// NewOpenAIChat returns a backend, or nil when no API key is configured so
// callers can branch on availability.
func NewOpenAIChat(client *http.Client, cfg types.ChatConfig) *OpenAIChat {
	if cfg.APIKey == "" {
		return nil
	}
	return &OpenAIChat{Client: client, Config: cfg}
}

func (c *OpenAIChat) Model() string { return c.Config.Model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// CompleteJSON asks for a json_object response. Some models reject the
// response_format parameter, so a failed first attempt is retried once
// without it before giving up.
func (c *OpenAIChat) CompleteJSON(ctx context.Context, p Prompt, out any) error {
	body := chatRequest{
		Model: c.Config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		ResponseFormat: &struct {
			Type string `json:"type"`
		}{Type: "json_object"},
	}

	content, status, err := c.post(ctx, body)
	if err != nil && status >= http.StatusBadRequest {
		body.ResponseFormat = nil
		content, _, err = c.post(ctx, body)
	}
	if err != nil {
		return err
	}
	return decodeModelJSON(content, out)
}

func (c *OpenAIChat) post(ctx context.Context, body chatRequest) (string, int, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return "", 0, fmt.Errorf("encoding chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIChatURL, bytes.NewReader(raw))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Config.APIKey)

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, 0)
	if err != nil {
		return "", 0, fmt.Errorf("chat completion request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("reading chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := string(data)
		if len(snippet) > 500 {
			snippet = snippet[:500]
		}
		return "", resp.StatusCode, fmt.Errorf("chat completion failed (%d): %s", resp.StatusCode, snippet)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", resp.StatusCode, fmt.Errorf("decoding chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", resp.StatusCode, fmt.Errorf("chat completion returned no choices")
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", resp.StatusCode, fmt.Errorf("chat completion returned empty content")
	}
	return content, resp.StatusCode, nil
}

var jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)

// decodeModelJSON parses content as JSON, falling back to the outermost
// brace-delimited object when the model wrapped its reply in prose.
func decodeModelJSON(content string, out any) error {
	if err := json.Unmarshal([]byte(content), out); err == nil {
		return nil
	}
	raw := jsonObjectRe.FindString(content)
	if raw == "" {
		return fmt.Errorf("chat completion did not return valid JSON")
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decoding embedded JSON object: %w", err)
	}
	return nil
}
