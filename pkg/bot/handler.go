package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ombot-run/ombot/pkg/command"
	"github.com/ombot-run/ombot/pkg/log"
	"github.com/ombot-run/ombot/pkg/serve"
)

// Handler reacts to issue comment events by parsing the comment for a
// mention command and executing it. It implements serve.EventHandler.
type Handler struct {
	api         API
	executor    *Executor
	mentionName string
}

// NewHandler creates a handler that answers to the given mention name
func NewHandler(api API, mentionName string) *Handler {
	return &Handler{
		api:         api,
		executor:    NewExecutor(api),
		mentionName: mentionName,
	}
}

// HandleEvent processes one normalized webhook event. Events that are not
// newly created comments, comments by the bot itself, and comments without
// a mention are skipped. Malformed commands are answered with a usage
// comment; complete commands are handed to the executor.
func (h *Handler) HandleEvent(ctx context.Context, env serve.EventEnvelope) error {
	if env.Type != "github.issue_comment.created" {
		return serve.SkipEventf("ignoring event type %s", env.Type)
	}
	if env.Comment == nil {
		return fmt.Errorf("event %s is missing comment data", env.ID)
	}
	if h.isSelf(env.Comment.Author) {
		return serve.SkipEventf("ignoring own comment by %s", env.Comment.Author)
	}

	coord, err := coordinateFromEnvelope(env)
	if err != nil {
		return err
	}

	cmd, outcome := command.Parse(env.Comment.Body, h.mentionName)
	switch outcome {
	case command.OutcomeNotMentioned:
		return serve.SkipEventf("no @%s command in comment", h.mentionName)
	case command.OutcomeMalformed:
		log.Info("malformed command",
			"repo", env.Scope.Repo,
			"issue", coord.IssueNumber,
			"author", env.Comment.Author,
		)
		if _, err := h.api.CreateIssueComment(ctx, coord.Owner, coord.Repo, coord.IssueNumber, UsageMessage(h.mentionName)); err != nil {
			return fmt.Errorf("failed to post usage comment: %w", err)
		}
		return nil
	}

	log.Info("executing create-pr command",
		"repo", env.Scope.Repo,
		"issue", coord.IssueNumber,
		"source", cmd.SourceBranch,
		"target", cmd.TargetBranch,
		"author", env.Comment.Author,
	)

	result, err := h.executor.Execute(ctx, cmd, coord, env.Comment.Author)
	if err != nil {
		return err
	}
	if result.Failure != nil {
		log.Warn("create-pr command failed",
			"repo", env.Scope.Repo,
			"issue", coord.IssueNumber,
			"message", result.Failure.Message,
		)
		return nil
	}

	log.Info("created pull request", "url", result.URL)
	return nil
}

// isSelf reports whether the comment author is the bot's own account,
// with or without the "[bot]" suffix GitHub Apps carry
func (h *Handler) isSelf(author string) bool {
	return author != "" && strings.TrimSuffix(author, "[bot]") == h.mentionName
}

func coordinateFromEnvelope(env serve.EventEnvelope) (Coordinate, error) {
	owner, repo, ok := strings.Cut(env.Scope.Repo, "/")
	if !ok || owner == "" || repo == "" {
		return Coordinate{}, fmt.Errorf("event %s has invalid repo scope %q", env.ID, env.Scope.Repo)
	}
	issueNumber, err := strconv.Atoi(env.Subject.ID)
	if err != nil || issueNumber <= 0 {
		return Coordinate{}, fmt.Errorf("event %s has invalid issue number %q", env.ID, env.Subject.ID)
	}
	return Coordinate{Owner: owner, Repo: repo, IssueNumber: issueNumber}, nil
}
