package main

import (
	"fmt"
	"strings"
)

const (
	taskPromptTemplate = "Role: %s\n\nTask: %s\n\nProject: %s\nBrief: %s"
	chatPromptTemplate = "Project: %s\nBrief: %s\n\nRequest: %s"
)

// Project is what the user typed into the form.
type Project struct {
	Name  string
	Brief string
}

// Task is one workflow action. Label tags the output file, Instruction goes into the prompt.
type Task struct {
	Label       string
	Title       string
	Instruction string
}

var (
	TaskPRD         = Task{Label: "PRD", Title: "Generate PRD", Instruction: "Write a full PRD."}
	TaskUserStories = Task{Label: "User_Stories", Title: "Generate User Stories", Instruction: "Create User Stories."}
	TaskTestCases   = Task{Label: "Test_Cases", Title: "Generate Test Cases", Instruction: "Produce Test Cases."}
)

var builtinTasks = []Task{TaskPRD, TaskUserStories, TaskTestCases}

// lookupTask accepts a label case-insensitively, plus a few short aliases used on the cli.
func lookupTask(name string) (Task, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "prd":
		return TaskPRD, nil
	case "user_stories", "stories":
		return TaskUserStories, nil
	case "test_cases", "tests":
		return TaskTestCases, nil
	}
	labels := make([]string, 0, len(builtinTasks))
	for _, task := range builtinTasks {
		labels = append(labels, task.Label)
	}
	return Task{}, fmt.Errorf("unknown task '%s', expected one of %s", name, strings.Join(labels, ", "))
}

func buildTaskPrompt(rules, instruction string, project Project) string {
	return fmt.Sprintf(taskPromptTemplate, rules, instruction, project.Name, project.Brief)
}

func buildChatPrompt(project Project, request string) string {
	return fmt.Sprintf(chatPromptTemplate, project.Name, project.Brief, request)
}

// parseChatRequest strips the /CH trigger. ok is false for plain chat lines.
func parseChatRequest(input string) (request string, ok bool) {
	if !strings.HasPrefix(input, chatTrigger) {
		return "", false
	}
	return strings.TrimSpace(strings.Replace(input, chatTrigger, "", 1)), true
}

func hasCommitIntent(input string) bool {
	return strings.Contains(strings.ToLower(input), commitIntentKeyword)
}
