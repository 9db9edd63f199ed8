package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// fakeLLM records every prompt it receives.
type fakeLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) Name() string  { return "fake" }
func (f *fakeLLM) Model() string { return "fake-model" }

func (f *fakeLLM) GenerateContent(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func TestPickLLM(t *testing.T) {
	tests := []struct {
		name         string
		cfg          *Config
		expectedName string
		expectedErr  string
	}{
		{"gemini cli", &Config{Provider: "gemini_cli", Model: "gemini-2.5-flash"}, "gemini_cli", ""},
		{"ollama", &Config{Provider: "ollama", Model: "llama3.2", OllamaHost: defaultOllamaHost}, "ollama", ""},
		{"gemini needs a key", &Config{Provider: "gemini", Model: "gemini-2.5-flash"}, "", "needs an api key"},
		{"unknown provider", &Config{Provider: "claude"}, "", "unknown llm provider 'claude'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := pickLLM(context.Background(), tt.cfg)
			if tt.expectedErr != "" {
				assert.ErrorContains(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedName, provider.Name())
			assert.Equal(t, tt.cfg.Model, provider.Model())
		})
	}

	t.Run("missing key is a CredentialError", func(t *testing.T) {
		_, err := pickLLM(context.Background(), &Config{Provider: "gemini"})
		var credErr *CredentialError
		assert.True(t, errors.As(err, &credErr))
	})
}

func TestOllamaGenerateContent(t *testing.T) {
	t.Run("returns the response field", func(t *testing.T) {
		var got ollamaGenerateRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/generate", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "# PRD\nhello"})
		}))
		defer server.Close()

		o := NewOllama(server.URL+"/", "llama3.2")
		text, err := o.GenerateContent(context.Background(), "write a prd")
		require.NoError(t, err)
		assert.Equal(t, "# PRD\nhello", text)
		assert.Equal(t, "llama3.2", got.Model)
		assert.Equal(t, "write a prd", got.Prompt)
		assert.False(t, got.Stream)
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer server.Close()

		_, err := NewOllama(server.URL, "missing").GenerateContent(context.Background(), "hi")
		assert.ErrorContains(t, err, "ollama error 404")
	})
}

// geminiRequest is the part of a generateContent body the provider fills in.
type geminiRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
}

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g, err := newGemini(context.Background(), "gemini-2.5-flash", &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: server.URL + "/"},
	})
	require.NoError(t, err)
	return g
}

func TestGeminiGenerateContent(t *testing.T) {
	t.Run("sends model and prompt, returns the text", func(t *testing.T) {
		var (
			path string
			got  geminiRequest
		)
		g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"# PRD\nhello"}]}}]}`)
		})

		text, err := g.GenerateContent(context.Background(), "write a prd")
		require.NoError(t, err)
		assert.Equal(t, "# PRD\nhello", text)
		assert.True(t, strings.HasSuffix(path, "/models/gemini-2.5-flash:generateContent"), path)
		require.Len(t, got.Contents, 1)
		require.Len(t, got.Contents[0].Parts, 1)
		assert.Equal(t, "write a prd", got.Contents[0].Parts[0].Text)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error":{"code":500,"message":"backend unavailable","status":"INTERNAL"}}`)
		})

		_, err := g.GenerateContent(context.Background(), "write a prd")
		assert.ErrorContains(t, err, "gemini generate content")
		assert.ErrorContains(t, err, "backend unavailable")
	})
}
