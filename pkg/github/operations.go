package github

import (
	"context"

	"github.com/google/go-github/v68/github"
)

// Branch describes a repository branch
type Branch struct {
	Name string `json:"name"`
	SHA  string `json:"sha,omitempty"`
}

// NewPullRequest holds the inputs for creating a pull request
type NewPullRequest struct {
	Title string `json:"title"`
	Head  string `json:"head"`
	Base  string `json:"base"`
	Body  string `json:"body,omitempty"`
}

// PullRequest describes a created pull request
type PullRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	State  string `json:"state,omitempty"`
}

// GetBranch looks up a branch in a repository. A missing branch surfaces as
// an *APIError with status 404.
func (c *Client) GetBranch(ctx context.Context, owner, repo, branch string) (*Branch, error) {
	b, resp, err := c.gh.Repositories.GetBranch(ctx, owner, repo, branch, 0)
	if err != nil {
		return nil, wrapAPIError(resp, err)
	}

	result := &Branch{Name: b.GetName()}
	if commit := b.GetCommit(); commit != nil {
		result.SHA = commit.GetSHA()
	}
	return result, nil
}

// CreatePullRequest opens a pull request merging head into base
func (c *Client) CreatePullRequest(ctx context.Context, owner, repo string, newPR *NewPullRequest) (*PullRequest, error) {
	pr, resp, err := c.gh.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: &newPR.Title,
		Head:  &newPR.Head,
		Base:  &newPR.Base,
		Body:  &newPR.Body,
	})
	if err != nil {
		return nil, wrapAPIError(resp, err)
	}

	return &PullRequest{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		URL:    pr.GetHTMLURL(),
		State:  pr.GetState(),
	}, nil
}

// CreateIssueComment posts a comment on an issue or pull request and
// returns the new comment's ID
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, issueNumber int, body string) (int64, error) {
	comment, resp, err := c.gh.Issues.CreateComment(ctx, owner, repo, issueNumber, &github.IssueComment{Body: &body})
	if err != nil {
		return 0, wrapAPIError(resp, err)
	}
	return comment.GetID(), nil
}
