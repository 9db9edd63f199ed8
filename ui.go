package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

const appTitle = "🧙 BMAD Master Agent"

// renderMarkdown styles generated text for the terminal. width <= 0 disables wrapping.
func renderMarkdown(content string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}

	out, err := renderer.Render(content)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}

func appHeading(provider LLMProvider) string {
	return fmt.Sprintf("%s (%s · %s)", appTitle, provider.Name(), provider.Model())
}
