package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var (
	ErrNoRepository    = errors.New("no git repository found")
	ErrStageFailed     = errors.New("git add failed")
	ErrNothingToCommit = errors.New("nothing to commit")
	ErrCommitRejected  = errors.New("git commit failed")
)

var execCommand = exec.CommandContext

// Repo is a working tree located by discoverRepo.
type Repo struct {
	Root string
}

// discoverRepo walks from start up to the filesystem root looking for a .git entry.
// A .git file (worktrees, submodules) counts as well as a directory.
func discoverRepo(start string) (*Repo, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", start, err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return &Repo{Root: dir}, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, fmt.Errorf("%w: searched from %s", ErrNoRepository, start)
		}
		dir = parent
	}
}

// Commit stages exactly path and commits it with message. Author identity comes from the
// repository's own git config.
func (r *Repo) Commit(ctx context.Context, path, message string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStageFailed, err)
	}
	rel, err := filepath.Rel(r.Root, abs)
	if err != nil {
		return fmt.Errorf("%w: %s is outside %s", ErrStageFailed, path, r.Root)
	}

	if _, err := runCommand(ctx, r.Root, "git", "add", "--", rel); err != nil {
		return fmt.Errorf("%w: %v", ErrStageFailed, err)
	}

	staged, err := r.hasStagedChanges(ctx, rel)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCommitRejected, err)
	}
	if !staged {
		return fmt.Errorf("%w: %s is unchanged", ErrNothingToCommit, rel)
	}

	if _, err := runCommand(ctx, r.Root, "git", "commit", "-m", message, "--", rel); err != nil {
		return fmt.Errorf("%w: %v", ErrCommitRejected, err)
	}
	return nil
}

// git diff --cached --quiet exits 1 when the index differs from HEAD for rel.
func (r *Repo) hasStagedChanges(ctx context.Context, rel string) (bool, error) {
	cmd := execCommand(ctx, "git", "diff", "--cached", "--quiet", "--", rel)
	cmd.Dir = r.Root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return false, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, fmt.Errorf("command 'git diff --cached --quiet -- %s' failed: %s, stderr: %s", rel, err, strings.TrimSpace(stderr.String()))
}

// commitFile discovers the repository that holds path and commits it.
func commitFile(ctx context.Context, path, message string) error {
	repo, err := discoverRepo(filepath.Dir(path))
	if err != nil {
		return err
	}
	return repo.Commit(ctx, path, message)
}
