package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrEmptyBrief   = errors.New("project brief is empty")
	ErrEmptyRequest = errors.New("chat request is empty")
)

// ContentGenerator builds prompts around the role rules document and hands them to an
// LLMProvider. Provider errors are returned untouched.
type ContentGenerator struct {
	llm       LLMProvider
	rulesPath string
}

func NewContentGenerator(llm LLMProvider, rulesPath string) *ContentGenerator {
	return &ContentGenerator{llm: llm, rulesPath: rulesPath}
}

func (g *ContentGenerator) Provider() LLMProvider {
	return g.llm
}

func (g *ContentGenerator) GenerateTask(ctx context.Context, project Project, task Task) (string, error) {
	if strings.TrimSpace(project.Brief) == "" {
		return "", ErrEmptyBrief
	}

	rules, err := os.ReadFile(g.rulesPath)
	if err != nil {
		return "", fmt.Errorf("read role rules: %w", err)
	}

	prompt := buildTaskPrompt(string(rules), task.Instruction, project)
	return g.llm.GenerateContent(ctx, prompt)
}

func (g *ContentGenerator) GenerateChat(ctx context.Context, project Project, request string) (string, error) {
	if strings.TrimSpace(request) == "" {
		return "", ErrEmptyRequest
	}
	return g.llm.GenerateContent(ctx, buildChatPrompt(project, request))
}
