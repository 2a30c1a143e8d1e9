package ollama

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCommand(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain", "issuedb list --status open", "issuedb list --status open"},
		{"code fence", "```bash\nissuedb create \"Fix bug\"\n```", `issuedb create "Fix bug"`},
		{"shell prompt", "$ issuedb next", "issuedb next"},
		{"surrounding prose", "Here you go:\nissuedb summary\nThat lists everything.", "issuedb summary"},
		{"inline fallback", "Run issuedb delete 4 to remove it", "issuedb delete 4 to remove it"},
		{"bare name", "issuedb", ""},
		{"nothing", "I cannot help with that", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCommand(tt.text))
		})
	}
}

func TestCheckServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newClientURL(srv.URL, "llama3")
	assert.NoError(t, client.CheckServer(context.Background()))
}

func TestCheckServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := newClientURL(srv.URL, "llama3")
	assert.Error(t, client.CheckServer(context.Background()))
}

func TestGenerateCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.False(t, req.Stream)
		assert.Contains(t, req.Prompt, "show me open bugs")

		_ = json.NewEncoder(w).Encode(generateResponse{
			Response: "```bash\nissuedb list --status open\n```",
		})
	}))
	defer srv.Close()

	client := newClientURL(srv.URL, "llama3")
	command, err := client.GenerateCommand(context.Background(), "show me open bugs", "You translate requests.")
	require.NoError(t, err)
	assert.Equal(t, "issuedb list --status open", command)
}

func TestGenerateCommandEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "   "})
	}))
	defer srv.Close()

	client := newClientURL(srv.URL, "llama3")
	_, err := client.GenerateCommand(context.Background(), "anything", "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestGenerateCommandServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := newClientURL(srv.URL, "llama3")
	_, err := client.GenerateCommand(context.Background(), "anything", "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
