package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/ombot-run/ombot/pkg/command"
	gh "github.com/ombot-run/ombot/pkg/github"
)

// fakeAPI is a scriptable recording double for the GitHub API surface
type fakeAPI struct {
	branchErr  error
	createErr  error
	commentErr error
	prURL      string

	branchCalls  []string
	createdPRs   []*gh.NewPullRequest
	comments     []string
	commentIssue []int
}

func (f *fakeAPI) GetBranch(_ context.Context, _, _, branch string) (*gh.Branch, error) {
	f.branchCalls = append(f.branchCalls, branch)
	if f.branchErr != nil {
		return nil, f.branchErr
	}
	return &gh.Branch{Name: branch}, nil
}

func (f *fakeAPI) CreatePullRequest(_ context.Context, _, _ string, newPR *gh.NewPullRequest) (*gh.PullRequest, error) {
	f.createdPRs = append(f.createdPRs, newPR)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &gh.PullRequest{Number: 1, Title: newPR.Title, URL: f.prURL}, nil
}

func (f *fakeAPI) CreateIssueComment(_ context.Context, _, _ string, issueNumber int, body string) (int64, error) {
	if f.commentErr != nil {
		return 0, f.commentErr
	}
	f.comments = append(f.comments, body)
	f.commentIssue = append(f.commentIssue, issueNumber)
	return int64(len(f.comments)), nil
}

var testCoord = Coordinate{Owner: "test-owner", Repo: "test-repo", IssueNumber: 7}

var testCmd = command.CreatePR{
	SourceBranch: "feature/new-branch",
	TargetBranch: "main",
	Title:        "Add awesome feature",
}

func TestExecute_Success(t *testing.T) {
	api := &fakeAPI{prURL: "https://github.com/test-owner/test-repo/pull/1"}
	executor := NewExecutor(api)

	result, err := executor.Execute(context.Background(), testCmd, testCoord, "alice")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.URL != "https://github.com/test-owner/test-repo/pull/1" {
		t.Errorf("result URL = %q", result.URL)
	}
	if result.Failure != nil {
		t.Errorf("unexpected failure: %+v", result.Failure)
	}

	if len(api.createdPRs) != 1 {
		t.Fatalf("expected 1 PR creation, got %d", len(api.createdPRs))
	}
	pr := api.createdPRs[0]
	if pr.Head != "feature/new-branch" || pr.Base != "main" || pr.Title != "Add awesome feature" {
		t.Errorf("PR request = %+v", pr)
	}
	if pr.Body != "Requested by @alice via comment command." {
		t.Errorf("PR body = %q", pr.Body)
	}

	if len(api.comments) != 1 {
		t.Fatalf("expected exactly 1 comment, got %d", len(api.comments))
	}
	want := "Successfully created pull request: https://github.com/test-owner/test-repo/pull/1"
	if api.comments[0] != want {
		t.Errorf("comment = %q, want %q", api.comments[0], want)
	}
	if api.commentIssue[0] != 7 {
		t.Errorf("comment posted on issue %d, want 7", api.commentIssue[0])
	}
}

func TestExecute_BranchNotFound(t *testing.T) {
	api := &fakeAPI{branchErr: &gh.APIError{StatusCode: 404, Message: "Branch not found"}}
	executor := NewExecutor(api)

	result, err := executor.Execute(context.Background(), testCmd, testCoord, "alice")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(api.createdPRs) != 0 {
		t.Errorf("PR creation attempted after failed branch lookup")
	}

	if len(api.comments) != 1 {
		t.Fatalf("expected exactly 1 comment, got %d", len(api.comments))
	}
	want := "Failed to create pull request. Error: Branch not found. One or more branches were not found."
	if api.comments[0] != want {
		t.Errorf("comment = %q, want %q", api.comments[0], want)
	}

	if result.Failure == nil {
		t.Fatal("expected a failure result")
	}
	if result.Failure.Classification != ClassNotFound {
		t.Errorf("classification = %v, want ClassNotFound", result.Failure.Classification)
	}
}

func TestExecute_CreateUnprocessable(t *testing.T) {
	api := &fakeAPI{
		prURL:     "unused",
		createErr: &gh.APIError{StatusCode: 422, Message: "API Error"},
	}
	executor := NewExecutor(api)

	result, err := executor.Execute(context.Background(), testCmd, testCoord, "alice")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(api.comments) != 1 {
		t.Fatalf("expected exactly 1 comment, got %d", len(api.comments))
	}
	want := "Failed to create pull request. Error: API Error. This could be due to non-existent branches, no differences between branches, or insufficient permissions."
	if api.comments[0] != want {
		t.Errorf("comment = %q, want %q", api.comments[0], want)
	}

	if result.Failure == nil || result.Failure.Classification != ClassUnprocessable {
		t.Errorf("expected ClassUnprocessable failure, got %+v", result.Failure)
	}
}

func TestExecute_UnknownFailureHasNoHint(t *testing.T) {
	api := &fakeAPI{branchErr: &gh.APIError{StatusCode: 500, Message: "boom"}}
	executor := NewExecutor(api)

	result, err := executor.Execute(context.Background(), testCmd, testCoord, "alice")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(api.comments) != 1 {
		t.Fatalf("expected exactly 1 comment, got %d", len(api.comments))
	}
	want := "Failed to create pull request. Error: boom."
	if api.comments[0] != want {
		t.Errorf("comment = %q, want %q", api.comments[0], want)
	}
	if result.Failure == nil || result.Failure.Classification != ClassUnknown {
		t.Errorf("expected ClassUnknown failure, got %+v", result.Failure)
	}
}

func TestExecute_NonAPIErrorUsesErrorText(t *testing.T) {
	api := &fakeAPI{branchErr: errors.New("connection refused")}
	executor := NewExecutor(api)

	_, err := executor.Execute(context.Background(), testCmd, testCoord, "alice")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := "Failed to create pull request. Error: connection refused."
	if len(api.comments) != 1 || api.comments[0] != want {
		t.Errorf("comments = %q, want [%q]", api.comments, want)
	}
}

func TestExecute_CommentPostFailureIsReturned(t *testing.T) {
	api := &fakeAPI{
		prURL:      "https://github.com/test-owner/test-repo/pull/1",
		commentErr: errors.New("comment rejected"),
	}
	executor := NewExecutor(api)

	_, err := executor.Execute(context.Background(), testCmd, testCoord, "alice")
	if err == nil {
		t.Fatal("expected error when the status comment cannot be posted")
	}
}

func TestUsageMessage(t *testing.T) {
	want := `Invalid command format. Please use: @om-bot create-pr <source-branch> <target-branch> "<PR title>"`
	if got := UsageMessage("om-bot"); got != want {
		t.Errorf("UsageMessage() = %q, want %q", got, want)
	}
}
