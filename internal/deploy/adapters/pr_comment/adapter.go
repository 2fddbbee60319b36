// Package prcomment maintains the action's comments on a pull request.
package prcomment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v68/github"

	"github.com/nathantilsley/plt-deploy-action/internal/deploy/domain"
)

// Differ renders the change between two comment bodies for debug logs.
type Differ interface {
	ComputeDiff(baseName, headName string, base, head []byte) string
}

// Adapter implements ports.CommentPort using the GitHub Issues API.
type Adapter struct {
	client *github.Client
	author string
	differ Differ
	logger *slog.Logger
}

// New creates a new PR comment adapter. Only comments written by author are
// ever edited; an empty author means domain.DefaultCommentAuthor.
func New(client *github.Client, author string, differ Differ, logger *slog.Logger) *Adapter {
	if author == "" {
		author = domain.DefaultCommentAuthor
	}
	return &Adapter{
		client: client,
		author: author,
		differ: differ,
		logger: logger,
	}
}

// UpsertStatusComment edits the most recently updated status comment on the
// pull request, or creates one when none exists.
func (a *Adapter) UpsertStatusComment(ctx context.Context, pr domain.PRContext, body string) error {
	existing, err := a.findStatusComment(ctx, pr)
	if err != nil {
		return err
	}

	if existing == nil {
		if err := a.PostComment(ctx, pr, body); err != nil {
			return err
		}
		a.logger.Info("Created deployment status comment", "pr", pr.PRNumber)
		return nil
	}

	if a.differ != nil {
		a.logger.Debug("updating status comment",
			"commentID", existing.GetID(),
			"diff", a.differ.ComputeDiff("comment (previous)", "comment (next)", []byte(existing.GetBody()), []byte(body)),
		)
	}

	_, _, err = a.client.Issues.EditComment(ctx, pr.Owner, pr.Repo, existing.GetID(), &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("updating comment %d: %w", existing.GetID(), err)
	}

	a.logger.Info("Updated deployment status comment", "pr", pr.PRNumber, "commentID", existing.GetID())
	return nil
}

// PostComment adds a new comment to the pull request.
func (a *Adapter) PostComment(ctx context.Context, pr domain.PRContext, body string) error {
	_, _, err := a.client.Issues.CreateComment(ctx, pr.Owner, pr.Repo, pr.PRNumber, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("creating comment on PR #%d: %w", pr.PRNumber, err)
	}
	return nil
}

// findStatusComment walks every page of the PR conversation and returns the
// most recently updated status comment written by the configured author.
func (a *Adapter) findStatusComment(ctx context.Context, pr domain.PRContext) (*github.IssueComment, error) {
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var latest *github.IssueComment
	for {
		comments, resp, err := a.client.Issues.ListComments(ctx, pr.Owner, pr.Repo, pr.PRNumber, opts)
		if err != nil {
			return nil, fmt.Errorf("listing comments on PR #%d: %w", pr.PRNumber, err)
		}

		for _, c := range comments {
			if c.GetUser().GetLogin() != a.author || !domain.IsStatusCommentBody(c.GetBody()) {
				continue
			}
			// later entries win ties
			if latest == nil || !c.GetUpdatedAt().Before(latest.GetUpdatedAt().Time) {
				latest = c
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return latest, nil
}
