// Package llm provides a chat completion client for OpenAI compatible APIs
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	perr "lifesync/internal/platform/errors"
	"lifesync/internal/platform/logger"
	"lifesync/internal/platform/net/client"
)

const (
	baseURLDefault = "https://api.openai.com/v1"
	modelDefault   = "gpt-4o-mini"
	defaultTimeout = 120 * time.Second
	maxBodyBytes   = 8 << 20
)

// Options configures the Client
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration

	MaxRetries       int
	RetryBase        time.Duration
	RateLimitRetries int
}

// Client talks to /chat/completions and /models
type Client struct {
	http *client.Client
	opts Options
	log  logger.Logger
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Model == "" {
		o.Model = modelDefault
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return &Client{
		http: client.New(client.Options{
			Name:             "llm",
			UserAgent:        "lifesync-summarize",
			Timeout:          o.Timeout,
			MaxRetries:       o.MaxRetries,
			RetryBase:        o.RetryBase,
			RateLimitRetries: o.RateLimitRetries,
		}),
		opts: o,
		log:  *logger.Named("llm"),
	}
}

// Model is the configured model name
func (c *Client) Model() string { return c.opts.Model }

// HasKey reports whether an API key is configured
func (c *Client) HasKey() bool { return c.opts.APIKey != "" }

// CancelAll aborts every in-flight request and pending retry
func (c *Client) CancelAll() int { return c.http.CancelAll() }

// Message is one chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Chat sends the system prompt and the document and returns the reply text
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.opts.Model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	})
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeJSON, "llm encode request failed")
	}

	resp, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		c.authorize(req)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", err
	}

	var cr chatResponse
	if err := c.http.DecodeJSON(resp, maxBodyBytes, &cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", perr.Newf(perr.ErrorCodeUpstream, "llm returned no choices")
	}
	out := strings.TrimSpace(cr.Choices[0].Message.Content)
	c.log.Debug().Str("model", c.opts.Model).Int("chars", len(out)).Msg("chat completion")
	return out, nil
}

// ListModels returns every model id visible to the key
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+"/models", nil)
		if err != nil {
			return nil, err
		}
		c.authorize(req)
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var mr modelsResponse
	if err := c.http.DecodeJSON(resp, maxBodyBytes, &mr); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(mr.Data))
	for _, m := range mr.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
}

var (
	chatPrefixes = []string{"gpt-", "o1", "o3", "o4", "chatgpt-"}
	excludedBits = []string{"instruct", "vision", "audio", "realtime", "image", "tts", "transcribe", "embedding", "search", "moderation"}
)

// FilterChatModels keeps chat text models and drops multimodal and instruct variants
func FilterChatModels(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := map[string]struct{}{}
	for _, id := range ids {
		lc := strings.ToLower(id)
		if !hasAnyPrefix(lc, chatPrefixes) || containsAny(lc, excludedBits) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func hasAnyPrefix(s string, ps []string) bool {
	for _, p := range ps {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, parts []string) bool {
	for _, p := range parts {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
