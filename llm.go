package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"

	"google.golang.org/genai"
)

func pickLLM(ctx context.Context, cfg *Config) (LLMProvider, error) {
	switch cfg.Provider {
	case "gemini_cli":
		return &GeminiCli{model: cfg.Model}, nil
	case "gemini":
		if cfg.APIKey == "" {
			return nil, &CredentialError{Provider: cfg.Provider, EnvVars: []string{"BMAD_API_KEY", "GEMINI_API_KEY"}}
		}
		return NewGemini(ctx, cfg.APIKey, cfg.Model)
	case "ollama":
		return NewOllama(cfg.OllamaHost, cfg.Model), nil
	default:
		return nil, fmt.Errorf("bmad: unknown llm provider '%s' found in config", cfg.Provider)
	}
}

// LLMProvider turns one prompt into one block of generated text. No streaming, no retries.
type LLMProvider interface {
	Name() string
	Model() string
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

type GeminiCli struct {
	model string
}

func (g *GeminiCli) Name() string  { return "gemini_cli" }
func (g *GeminiCli) Model() string { return g.model }

func (g *GeminiCli) GenerateContent(ctx context.Context, prompt string) (string, error) {
	args := []string{"-m", g.model} // see gemini --help
	cmd := exec.CommandContext(ctx, "gemini", args...)

	// passing the full prompt to stdin
	cmd.Stdin = strings.NewReader(prompt)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("gemini cli failed with args %v: %v, stderr: %v", args, err, stderr.String())
	}
	return out.String(), nil
}

type Gemini struct {
	model  string
	client *genai.Client
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	return newGemini(ctx, model, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

func newGemini(ctx context.Context, model string, clientConfig *genai.ClientConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("bmad: could not create gemini client: %w", err)
	}
	return &Gemini{model: model, client: client}, nil
}

func (g *Gemini) Name() string  { return "gemini" }
func (g *Gemini) Model() string { return g.model }

func (g *Gemini) GenerateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return resp.Text(), nil
}

type Ollama struct {
	serverAddress string
	model         string
	client        *http.Client
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// NewOllama talks to a local Ollama server. No timeout is set, the call runs until the
// server answers or ctx is done.
func NewOllama(serverAddress, model string) *Ollama {
	return &Ollama{
		serverAddress: strings.TrimRight(serverAddress, "/"),
		model:         model,
		client:        &http.Client{},
	}
}

func (o *Ollama) Name() string  { return "ollama" }
func (o *Ollama) Model() string { return o.model }

func (o *Ollama) GenerateContent(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(ollamaGenerateRequest{Model: o.model, Prompt: prompt})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.serverAddress+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama error %d: %s", resp.StatusCode, string(b))
	}

	var result ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("ollama decode response: %w", err)
	}
	return result.Response, nil
}
