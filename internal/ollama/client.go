// Package ollama generates issuedb commands from natural language via a
// local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	defaultHost  = "localhost"
	defaultPort  = "11434"
	defaultModel = "llama3"

	healthTimeout   = 5 * time.Second
	generateTimeout = 60 * time.Second
)

// Client talks to one Ollama server.
type Client struct {
	baseURL string
	model   string
	httpc   *http.Client
}

// NewClient builds a client from explicit values, falling back to the
// OLLAMA_HOST / OLLAMA_PORT / OLLAMA_MODEL environment variables, then
// to localhost:11434 with the llama3 model.
func NewClient(host, port, model string) *Client {
	if host == "" {
		host = envOr("OLLAMA_HOST", defaultHost)
	}
	if port == "" {
		port = envOr("OLLAMA_PORT", defaultPort)
	}
	if model == "" {
		model = envOr("OLLAMA_MODEL", defaultModel)
	}
	return &Client{
		baseURL: fmt.Sprintf("http://%s:%s", host, port),
		model:   model,
		httpc:   &http.Client{},
	}
}

// newClientURL is for tests against an httptest server.
func newClientURL(baseURL, model string) *Client {
	return &Client{baseURL: baseURL, model: model, httpc: &http.Client{}}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// CheckServer verifies the Ollama server is reachable. An unreachable
// server is reported as an error the caller prints, not a crash.
func (c *Client) CheckServer(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("cannot connect to Ollama server at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ollama server returned status %d", resp.StatusCode)
	}
	return nil
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// GenerateCommand asks the model to translate a natural-language request
// into an issuedb command line.
func (c *Client) GenerateCommand(ctx context.Context, userRequest, systemPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	prompt := fmt.Sprintf("%s\n\nUser request: %s\n\nGenerate the issuedb command:", systemPrompt, userRequest)
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]interface{}{
			// Low temperature for consistent command output.
			"temperature": 0.1,
			"top_p":       0.9,
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return "", fmt.Errorf("Ollama API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("invalid JSON response from Ollama: %w", err)
	}

	text := strings.TrimSpace(parsed.Response)
	if text == "" {
		return "", fmt.Errorf("Ollama returned empty response")
	}

	command := ExtractCommand(text)
	if command == "" {
		snippet := text
		if len(snippet) > 100 {
			snippet = snippet[:100]
		}
		return "", fmt.Errorf("could not extract valid command from response: %s", snippet)
	}
	return command, nil
}

var (
	codeFencePattern = regexp.MustCompile("```(?:bash|shell|sh)?\n?|```")
	shellPrompt      = regexp.MustCompile(`^[$#]\s*`)
	inlineCommand    = regexp.MustCompile(`issuedb\s+\S+.*`)
)

// ExtractCommand pulls the issuedb command line out of model output,
// tolerating markdown fences, shell prompts and surrounding prose.
func ExtractCommand(text string) string {
	text = codeFencePattern.ReplaceAllString(text, "")

	for _, line := range strings.Split(text, "\n") {
		line = shellPrompt.ReplaceAllString(strings.TrimSpace(line), "")
		if strings.HasPrefix(line, "issuedb ") && len(line) > len("issuedb ") {
			return strings.TrimSpace(line)
		}
	}

	// Fall back to the first inline occurrence anywhere in the text.
	if match := inlineCommand.FindString(text); match != "" {
		return strings.TrimSpace(match)
	}
	return ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
