package main

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/google/go-github/v74/github"
	gitlab "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/oauth2"
)

var gitURLRegex = regexp.MustCompile(`^(?:ssh://)?(?:git@|https?://)([\w.-]+)(?::\d+)?(?::|/)([\w.-]+)/([\w.-]+?)(?:\.git)?$`)

func parseGitURL(url string) (host string, owner string, repoName string, err error) {
	matches := gitURLRegex.FindStringSubmatch(url)

	if len(matches) < 4 {
		return "", "", "", fmt.Errorf("could not parse owner and repo from url: %s", url)
	}

	return matches[1], matches[2], matches[3], nil
}

// GitProvider is the read-only view of a hosted remote. Nothing here pushes or changes
// branches.
type GitProvider interface {
	GetProviderName() string
	GetRemoteURL() string
	GetUpstreamURL() string
	BranchExistsOnRemoteOrigin(ctx context.Context, owner, repo, branchName string) (bool, error)
	CompareBranchWithDefault(ctx context.Context, owner, repo, forkOwner, localBranch string) (BranchComparison, error)
}

type GithubProvider struct {
	client            *github.Client
	remoteOriginURL   string
	remoteUpstreamURL string
}

func (g *GithubProvider) GetProviderName() string {
	return "github"
}

func (g *GithubProvider) GetRemoteURL() string {
	return g.remoteOriginURL
}

func (g *GithubProvider) GetUpstreamURL() string {
	return g.remoteUpstreamURL
}

func (g *GithubProvider) BranchExistsOnRemoteOrigin(ctx context.Context, owner, repo, branchName string) (bool, error) {
	_, resp, err := g.client.Repositories.GetBranch(ctx, owner, repo, branchName, 1)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (g *GithubProvider) CompareBranchWithDefault(ctx context.Context, owner, repo, forkOwner, localBranch string) (BranchComparison, error) {
	repoInfo, _, err := g.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return BranchComparison{}, fmt.Errorf("bmad: could not get repo info for default branch: %v", err)
	}
	defaultBranch := repoInfo.GetDefaultBranch()

	if localBranch == defaultBranch && owner == forkOwner {
		return BranchComparison{Branch: localBranch, DefaultBranch: defaultBranch, Status: "identical"}, nil
	}

	// github compares across forks with "owner:branch"
	headRef := fmt.Sprintf("%s:%s", forkOwner, localBranch)
	comparison, _, err := g.client.Repositories.CompareCommits(ctx, owner, repo, defaultBranch, headRef, nil)
	if err != nil {
		return BranchComparison{}, fmt.Errorf("bmad: could not compare branches: %v", err)
	}

	return BranchComparison{
		Branch:        localBranch,
		DefaultBranch: defaultBranch,
		AheadBy:       comparison.GetAheadBy(),
		BehindBy:      comparison.GetBehindBy(),
		Status:        comparison.GetStatus(),
	}, nil
}

type GitlabProvider struct {
	client            *gitlab.Client
	remoteOriginURL   string
	remoteUpstreamURL string
}

func (g *GitlabProvider) GetProviderName() string {
	return "gitlab"
}

func (g *GitlabProvider) GetRemoteURL() string {
	return g.remoteOriginURL
}

func (g *GitlabProvider) GetUpstreamURL() string {
	return g.remoteUpstreamURL
}

func (g *GitlabProvider) BranchExistsOnRemoteOrigin(ctx context.Context, owner, repo, branchName string) (bool, error) {
	projectID := fmt.Sprintf("%s/%s", owner, repo)
	_, resp, err := g.client.Branches.GetBranch(projectID, branchName, gitlab.WithContext(ctx))
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// helper that simplifies fetching commits from paged gitlab content
func (g *GitlabProvider) getAllCommits(ctx context.Context, projectID, branchName string) ([]*gitlab.Commit, error) {
	opts := &gitlab.ListCommitsOptions{
		RefName: &branchName,
		ListOptions: gitlab.ListOptions{
			PerPage: 100, // max value allowed per page
			Page:    1,
		},
	}

	var allCommits []*gitlab.Commit
	for {
		commits, resp, err := g.client.Commits.ListCommits(projectID, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		allCommits = append(allCommits, commits...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return allCommits, nil
}

func (g *GitlabProvider) CompareBranchWithDefault(ctx context.Context, owner, repo, forkOwner, localBranch string) (BranchComparison, error) {
	upstreamProjectID := fmt.Sprintf("%s/%s", owner, repo)
	forkProjectID := fmt.Sprintf("%s/%s", forkOwner, repo)

	project, _, err := g.client.Projects.GetProject(upstreamProjectID, nil, gitlab.WithContext(ctx))
	if err != nil {
		return BranchComparison{}, fmt.Errorf("bmad: could not get Gitlab repo info: %v", err)
	}
	defaultBranch := project.DefaultBranch

	if localBranch == defaultBranch && owner == forkOwner {
		return BranchComparison{Branch: localBranch, DefaultBranch: defaultBranch, Status: "identical"}, nil
	}

	upstreamCommits, err := g.getAllCommits(ctx, upstreamProjectID, defaultBranch)
	if err != nil {
		return BranchComparison{}, fmt.Errorf("bmad: could not list commits for upstream default branch: %w", err)
	}
	forkCommits, err := g.getAllCommits(ctx, forkProjectID, localBranch)
	if err != nil {
		return BranchComparison{}, fmt.Errorf("bmad: could not list commits for remote origin branch: '%s': %w", localBranch, err)
	}

	comparison, err := compareCommitHistories(upstreamCommits, forkCommits)
	if err != nil {
		return BranchComparison{}, err
	}
	comparison.Branch = localBranch
	comparison.DefaultBranch = defaultBranch
	return comparison, nil
}

// compareCommitHistories walks both newest-first histories to the merge base. gitlab has no
// cross-fork compare endpoint, so ahead/behind is counted by hand.
func compareCommitHistories(upstream, fork []*gitlab.Commit) (BranchComparison, error) {
	upstreamSeen := make(map[string]bool, len(upstream))
	for _, commit := range upstream {
		upstreamSeen[commit.ID] = true
	}

	var mergeBase string
	aheadBy := 0
	for _, commit := range fork {
		if upstreamSeen[commit.ID] {
			mergeBase = commit.ID
			break
		}
		aheadBy++
	}
	if mergeBase == "" {
		return BranchComparison{}, fmt.Errorf("could not find a common ancestor for the compared branches")
	}

	behindBy := 0
	for _, commit := range upstream {
		if commit.ID == mergeBase {
			break
		}
		behindBy++
	}

	status := "diverged"
	switch {
	case aheadBy > 0 && behindBy == 0:
		status = "ahead"
	case aheadBy == 0 && behindBy > 0:
		status = "behind"
	case aheadBy == 0 && behindBy == 0:
		status = "identical"
	}

	return BranchComparison{AheadBy: aheadBy, BehindBy: behindBy, Status: status}, nil
}

func NewGitHubProvider(token string, remoteOriginURL string, remoteUpstreamURL string) *GithubProvider {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tokenClient := oauth2.NewClient(context.Background(), tokenSource)

	return &GithubProvider{
		client:            github.NewClient(tokenClient),
		remoteOriginURL:   remoteOriginURL,
		remoteUpstreamURL: remoteUpstreamURL,
	}
}

func NewGitlabProvider(token string, hostURL string, remoteOriginURL string, remoteUpstreamURL string) (*GitlabProvider, error) {
	client, err := gitlab.NewClient(token, gitlab.WithBaseURL(hostURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create gitlab client: %w", err)
	}

	return &GitlabProvider{client: client, remoteOriginURL: remoteOriginURL, remoteUpstreamURL: remoteUpstreamURL}, nil
}

type BranchComparison struct {
	Branch        string
	DefaultBranch string
	AheadBy       int
	BehindBy      int
	Status        string
}

func (b *BranchComparison) Format() string {
	return fmt.Sprintf("Branch '%s' vs '%s':\n  Status: %s\n  AheadBy: %d\n  BehindBy: %d\n",
		b.Branch, b.DefaultBranch, b.Status, b.AheadBy, b.BehindBy)
}
