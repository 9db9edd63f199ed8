package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

// generic command runner
func runCommand(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := execCommand(ctx, name, args...)
	cmd.Dir = dir
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return "", fmt.Errorf("command '%s %s' failed: %s, stderr: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return out.String(), nil
}

// looks for an 'upstream' remote first, falling back to 'origin', in order to target the appropriate main for a fork based workflow
func findPrimaryRemoteRepoURL(ctx context.Context, gitRoot string) (string, error) {
	upstreamURL, err := runCommand(ctx, gitRoot, "git", "remote", "get-url", "upstream")
	if err == nil {
		return strings.TrimSpace(upstreamURL), nil
	}

	originURL, err := runCommand(ctx, gitRoot, "git", "remote", "get-url", "origin")
	if err != nil {
		return "", fmt.Errorf("failed to retrieve URL for 'upstream' or 'origin' remotes: %v", err)
	}
	return strings.TrimSpace(originURL), nil
}

func findOriginRemoteURL(ctx context.Context, gitRoot string) string {
	originURL, err := runCommand(ctx, gitRoot, "git", "remote", "get-url", "origin")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(originURL)
}

// checks if the current git branch is tracking a remote branch.
func hasRemoteTrackingBranch(ctx context.Context, gitRoot string) bool {
	// fails if there is no upstream branch configured
	_, err := runCommand(ctx, gitRoot, "git", "rev-parse", "--abbrev-ref", "@{u}")
	return err == nil
}

func currentBranch(ctx context.Context, gitRoot string) (string, error) {
	branch, err := runCommand(ctx, gitRoot, "git", "branch", "--show-current")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(branch), nil
}

// returns a struct that implements the GitProvider interface, for the supported remote git providers (github, gitlab)
func getGitProvider(ctx context.Context, gitRoot string, cfg *Config) (GitProvider, error) {
	remote, err := findPrimaryRemoteRepoURL(ctx, gitRoot)
	if err != nil {
		return nil, fmt.Errorf("bmad: error retrieving git remote provider: %v", err)
	}
	origin := findOriginRemoteURL(ctx, gitRoot)

	host, _, _, err := parseGitURL(remote)
	if err != nil {
		return nil, err
	}

	switch {
	case strings.Contains(host, "github"):
		if cfg.GithubToken == "" {
			return nil, fmt.Errorf("remote status on github requires GITHUB_TOKEN to be set")
		}
		return NewGitHubProvider(cfg.GithubToken, origin, remote), nil
	case strings.Contains(host, "gitlab"):
		if cfg.GitlabToken == "" {
			return nil, fmt.Errorf("remote status on gitlab requires GITLAB_TOKEN to be set")
		}
		return NewGitlabProvider(cfg.GitlabToken, "https://"+host, origin, remote)
	}
	return nil, fmt.Errorf("bmad: unsupported git provider '%s'", host)
}
