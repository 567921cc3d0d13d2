package bot

import (
	"context"
	"fmt"

	"github.com/ombot-run/ombot/pkg/command"
	gh "github.com/ombot-run/ombot/pkg/github"
)

// Coordinate identifies the issue a command came from and the repository
// the pull request is created in.
type Coordinate struct {
	Owner       string
	Repo        string
	IssueNumber int
}

// Classification buckets an execution failure by its API status code.
type Classification int

const (
	// ClassUnknown covers every failure without a more specific bucket
	ClassUnknown Classification = iota
	// ClassNotFound is a 404 from the API (missing branch or repository)
	ClassNotFound
	// ClassUnprocessable is a 422 from the API (invalid PR request)
	ClassUnprocessable
)

// hint returns the guidance appended to failure comments for this class
func (c Classification) hint() string {
	switch c {
	case ClassNotFound:
		return "One or more branches were not found."
	case ClassUnprocessable:
		return "This could be due to non-existent branches, no differences between branches, or insufficient permissions."
	default:
		return ""
	}
}

// Failure describes a failed execution: the comment text that was posted
// and the classification of the underlying API error.
type Failure struct {
	Message        string
	Classification Classification
}

// Result is the outcome of executing a create-pr command. Exactly one of
// URL (success) or Failure is set.
type Result struct {
	URL     string
	Failure *Failure
}

const (
	successPrefix = "Successfully created pull request: "
	failurePrefix = "Failed to create pull request. Error: "
)

// UsageMessage returns the usage comment posted for malformed commands
func UsageMessage(mentionName string) string {
	return fmt.Sprintf("Invalid command format. Please use: @%s create-pr <source-branch> <target-branch> \"<PR title>\"", mentionName)
}

// Executor drives the branch-check, PR-creation, and comment-posting
// sequence for a parsed command.
type Executor struct {
	api API
}

// NewExecutor creates an executor backed by the given API
func NewExecutor(api API) *Executor {
	return &Executor{api: api}
}

// Execute runs the command against the repository identified by coord and
// posts exactly one status comment on the originating issue. The sequence
// is strict: source branch lookup, then PR creation, then the comment. A
// failed lookup short-circuits to the failure comment without attempting
// PR creation. API failures are recovered into a Failure result; only a
// failure to post the status comment itself is returned as an error.
func (e *Executor) Execute(ctx context.Context, cmd command.CreatePR, coord Coordinate, actor string) (Result, error) {
	if _, err := e.api.GetBranch(ctx, coord.Owner, coord.Repo, cmd.SourceBranch); err != nil {
		return e.reportFailure(ctx, coord, err)
	}

	pr, err := e.api.CreatePullRequest(ctx, coord.Owner, coord.Repo, &gh.NewPullRequest{
		Title: cmd.Title,
		Head:  cmd.SourceBranch,
		Base:  cmd.TargetBranch,
		Body:  requestBody(actor),
	})
	if err != nil {
		return e.reportFailure(ctx, coord, err)
	}

	message := successPrefix + pr.URL
	if _, err := e.api.CreateIssueComment(ctx, coord.Owner, coord.Repo, coord.IssueNumber, message); err != nil {
		return Result{}, fmt.Errorf("failed to post success comment: %w", err)
	}
	return Result{URL: pr.URL}, nil
}

// reportFailure classifies cause, posts the failure comment, and returns
// the corresponding Result
func (e *Executor) reportFailure(ctx context.Context, coord Coordinate, cause error) (Result, error) {
	class := classify(cause)

	message := failurePrefix + gh.ErrorMessage(cause) + "."
	if hint := class.hint(); hint != "" {
		message += " " + hint
	}

	if _, err := e.api.CreateIssueComment(ctx, coord.Owner, coord.Repo, coord.IssueNumber, message); err != nil {
		return Result{}, fmt.Errorf("failed to post failure comment: %w", err)
	}

	return Result{Failure: &Failure{Message: message, Classification: class}}, nil
}

func classify(err error) Classification {
	switch {
	case gh.IsNotFoundError(err):
		return ClassNotFound
	case gh.IsUnprocessableError(err):
		return ClassUnprocessable
	default:
		return ClassUnknown
	}
}

// requestBody generates the PR body crediting the requesting actor
func requestBody(actor string) string {
	return fmt.Sprintf("Requested by @%s via comment command.", actor)
}
