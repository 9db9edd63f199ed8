package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "core", "agents", "bmad-master.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGenerateTask(t *testing.T) {
	t.Run("builds the role/task/project prompt", func(t *testing.T) {
		llm := &fakeLLM{reply: "# Sentinel PRD"}
		gen := NewContentGenerator(llm, writeRules(t, "You are the BMAD master."))

		text, err := gen.GenerateTask(context.Background(), Project{Name: "BMAD Sentinel", Brief: "Watch the docs."}, TaskPRD)
		require.NoError(t, err)
		assert.Equal(t, "# Sentinel PRD", text)
		require.Len(t, llm.prompts, 1)
		assert.Equal(t,
			"Role: You are the BMAD master.\n\nTask: Write a full PRD.\n\nProject: BMAD Sentinel\nBrief: Watch the docs.",
			llm.prompts[0])
	})

	t.Run("empty brief never reaches the provider", func(t *testing.T) {
		for _, brief := range []string{"", "   ", "\n\t"} {
			llm := &fakeLLM{reply: "unused"}
			gen := NewContentGenerator(llm, writeRules(t, "rules"))

			_, err := gen.GenerateTask(context.Background(), Project{Name: "X", Brief: brief}, TaskPRD)
			assert.ErrorIs(t, err, ErrEmptyBrief)
			assert.Equal(t, 0, llm.calls())
		}
	})

	t.Run("missing rules document propagates", func(t *testing.T) {
		llm := &fakeLLM{}
		gen := NewContentGenerator(llm, filepath.Join(t.TempDir(), "missing.md"))

		_, err := gen.GenerateTask(context.Background(), Project{Name: "X", Brief: "b"}, TaskPRD)
		assert.True(t, errors.Is(err, fs.ErrNotExist))
		assert.Equal(t, 0, llm.calls())
	})

	t.Run("provider errors propagate", func(t *testing.T) {
		llm := &fakeLLM{err: errors.New("quota exceeded")}
		gen := NewContentGenerator(llm, writeRules(t, "rules"))

		_, err := gen.GenerateTask(context.Background(), Project{Name: "X", Brief: "b"}, TaskUserStories)
		assert.EqualError(t, err, "quota exceeded")
		assert.Equal(t, 1, llm.calls())
	})
}

func TestGenerateChat(t *testing.T) {
	t.Run("chat prompt skips the role rules", func(t *testing.T) {
		llm := &fakeLLM{reply: "sure"}
		gen := NewContentGenerator(llm, "unused.md")

		text, err := gen.GenerateChat(context.Background(), Project{Name: "Atlas", Brief: "maps"}, "summarize risks")
		require.NoError(t, err)
		assert.Equal(t, "sure", text)
		assert.Equal(t, []string{"Project: Atlas\nBrief: maps\n\nRequest: summarize risks"}, llm.prompts)
	})

	t.Run("empty request never reaches the provider", func(t *testing.T) {
		llm := &fakeLLM{}
		gen := NewContentGenerator(llm, "unused.md")

		_, err := gen.GenerateChat(context.Background(), Project{Name: "Atlas", Brief: "maps"}, "  ")
		assert.ErrorIs(t, err, ErrEmptyRequest)
		assert.Equal(t, 0, llm.calls())
	})
}

func TestParseChatRequest(t *testing.T) {
	tests := []struct {
		input       string
		expectedReq string
		expectedOK  bool
	}{
		{"/CH what's next?", "what's next?", true},
		{"/CH", "", true},
		{"/CH   commit the PRD  ", "commit the PRD", true},
		{"hello there", "", false},
		{"/ch lowercase does not trigger", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			req, ok := parseChatRequest(tt.input)
			assert.Equal(t, tt.expectedOK, ok)
			assert.Equal(t, tt.expectedReq, req)
		})
	}
}

func TestHasCommitIntent(t *testing.T) {
	assert.True(t, hasCommitIntent("/CH please COMMIT this"))
	assert.True(t, hasCommitIntent("/CH committing now"))
	assert.False(t, hasCommitIntent("/CH ship it"))
}

func TestLookupTask(t *testing.T) {
	tests := []struct {
		name      string
		expected  Task
		expectErr bool
	}{
		{"PRD", TaskPRD, false},
		{"prd", TaskPRD, false},
		{"stories", TaskUserStories, false},
		{"User_Stories", TaskUserStories, false},
		{"tests", TaskTestCases, false},
		{"Test_Cases", TaskTestCases, false},
		{"roadmap", Task{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := lookupTask(tt.name)
			if tt.expectErr {
				assert.ErrorContains(t, err, "expected one of PRD, User_Stories, Test_Cases")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, task)
		})
	}
}
