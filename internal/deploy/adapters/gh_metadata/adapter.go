// Package ghmetadata collects the repository context sent with a bundle.
package ghmetadata

import (
	"context"
	"fmt"

	"github.com/google/go-github/v68/github"

	"github.com/nathantilsley/plt-deploy-action/internal/deploy/domain"
)

// Adapter implements ports.MetadataPort by querying the GitHub API.
type Adapter struct {
	client *github.Client
}

// New creates a new metadata adapter.
func New(client *github.Client) *Adapter {
	return &Adapter{client: client}
}

// GetMetadata builds the repository, branch, commit and (for pull requests)
// PR metadata of the triggering event.
func (a *Adapter) GetMetadata(ctx context.Context, event *domain.Event) (domain.GitHubMetadata, error) {
	meta := domain.GitHubMetadata{
		Repository: domain.RepositoryMetadata{
			Name:         event.Repo,
			URL:          event.RepoURL,
			GithubRepoID: event.RepoID,
		},
		Branch: domain.BranchMetadata{Name: event.Branch},
	}

	commit, _, err := a.client.Repositories.GetCommit(ctx, event.Owner, event.Repo, event.HeadSHA, nil)
	if err != nil {
		return domain.GitHubMetadata{}, fmt.Errorf("fetching commit %s: %w", event.HeadSHA, err)
	}
	meta.Commit = domain.CommitMetadata{
		SHA:       commit.GetSHA(),
		Username:  commit.GetAuthor().GetLogin(),
		Additions: commit.GetStats().GetAdditions(),
		Deletions: commit.GetStats().GetDeletions(),
	}

	if !event.IsPullRequest() {
		return meta, nil
	}

	pr, _, err := a.client.PullRequests.Get(ctx, event.Owner, event.Repo, event.PRNumber)
	if err != nil {
		return domain.GitHubMetadata{}, fmt.Errorf("fetching PR #%d: %w", event.PRNumber, err)
	}
	meta.PullRequest = &domain.PullRequestMetadata{
		Title:  pr.GetTitle(),
		Number: pr.GetNumber(),
	}
	return meta, nil
}
