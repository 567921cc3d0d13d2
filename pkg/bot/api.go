// Package bot turns parsed mention commands into GitHub API calls and
// reports every outcome back as an issue comment.
package bot

import (
	"context"

	gh "github.com/ombot-run/ombot/pkg/github"
)

// API is the GitHub surface the bot depends on. *github.Client satisfies
// it; tests substitute a recording fake.
type API interface {
	GetBranch(ctx context.Context, owner, repo, branch string) (*gh.Branch, error)
	CreatePullRequest(ctx context.Context, owner, repo string, newPR *gh.NewPullRequest) (*gh.PullRequest, error)
	CreateIssueComment(ctx context.Context, owner, repo string, issueNumber int, body string) (int64, error)
}
