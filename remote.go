package main

import (
	"context"
	"fmt"
	"io"
)

// RemoteInspector answers "where does this branch stand against the hosted default branch".
// The provider is created on first use since it needs a token and a parsable remote.
type RemoteInspector struct {
	gitRoot     string
	cfg         *Config
	gitProvider GitProvider
	progress    io.Writer
}

func NewRemoteInspector(gitRoot string, cfg *Config, progress io.Writer) *RemoteInspector {
	if progress == nil {
		progress = io.Discard
	}
	return &RemoteInspector{gitRoot: gitRoot, cfg: cfg, progress: progress}
}

func (ri *RemoteInspector) initProvider(ctx context.Context) error {
	if ri.gitProvider == nil {
		provider, err := getGitProvider(ctx, ri.gitRoot, ri.cfg)
		if err != nil {
			return err
		}
		ri.gitProvider = provider
	}
	return nil
}

func (ri *RemoteInspector) BranchStatus(ctx context.Context) (string, error) {
	// checking that the local branch has remote tracking first
	if !hasRemoteTrackingBranch(ctx, ri.gitRoot) {
		return MsgNotPushed, nil
	}

	if err := ri.initProvider(ctx); err != nil {
		return "", err
	}

	_, owner, repo, err := parseGitURL(ri.gitProvider.GetUpstreamURL())
	if err != nil {
		return "", err
	}
	forkOwner := owner
	if origin := ri.gitProvider.GetRemoteURL(); origin != "" {
		if _, originOwner, _, err := parseGitURL(origin); err == nil {
			forkOwner = originOwner
		}
	}

	localBranch, err := currentBranch(ctx, ri.gitRoot)
	if err != nil {
		return "", err
	}

	providerName := ri.gitProvider.GetProviderName()
	fmt.Fprintln(ri.progress, buildRemoteInfoMsg(providerName, "branch_exists"))
	exists, err := ri.gitProvider.BranchExistsOnRemoteOrigin(ctx, forkOwner, repo, localBranch)
	if err != nil {
		return "", err
	}
	if !exists {
		return MsgNotPushed, nil
	}

	fmt.Fprintln(ri.progress, buildRemoteInfoMsg(providerName, "branch_status"))
	comparison, err := ri.gitProvider.CompareBranchWithDefault(ctx, owner, repo, forkOwner, localBranch)
	if err != nil {
		return "", err
	}
	return comparison.Format(), nil
}
