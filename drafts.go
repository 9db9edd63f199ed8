package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// draftFileName derives "{Project_Name}_{Label}.md". Only spaces are replaced.
func draftFileName(project, label string) string {
	return fmt.Sprintf("%s_%s.md", strings.ReplaceAll(project, " ", "_"), label)
}

func draftPath(dir, project, label string) string {
	return filepath.Join(dir, draftFileName(project, label))
}

// writeDraft creates dir if needed and replaces the file's contents.
func writeDraft(dir, name, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write draft: %w", err)
	}
	return path, nil
}

// listDrafts returns the file names under dir. A missing dir just means no drafts yet.
func listDrafts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
