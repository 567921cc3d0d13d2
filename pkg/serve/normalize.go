package serve

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// ErrUnsupportedEvent marks webhook deliveries the bot has no use for.
// They are logged and skipped, not failed.
var ErrUnsupportedEvent = errors.New("unsupported event")

var idCounter uint64

// newID returns a process-unique identifier with a type prefix
func newID(prefix string, t time.Time) string {
	seq := atomic.AddUint64(&idCounter, 1)
	return fmt.Sprintf("%s_%d_%d", prefix, t.UnixNano(), seq)
}

// normalizeGitHubEvent turns a raw webhook payload (with the delivery
// headers folded in as x_github_event / x_github_delivery) into an
// EventEnvelope. Only issue_comment events are supported.
func normalizeGitHubEvent(raw []byte, now func() time.Time) (EventEnvelope, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return EventEnvelope{}, fmt.Errorf("invalid json: %w", err)
	}

	eventName, _ := getString(payload, "x_github_event")
	if eventName == "" {
		eventName, _ = getString(payload, "event")
	}
	if eventName == "" {
		return EventEnvelope{}, errors.New("missing event or x_github_event")
	}
	if eventName != "issue_comment" {
		return EventEnvelope{}, fmt.Errorf("%w: %s", ErrUnsupportedEvent, eventName)
	}

	action, _ := getString(payload, "action")
	normalizedAction := strings.ToLower(action)
	switch normalizedAction {
	case "created", "edited", "deleted":
	default:
		return EventEnvelope{}, fmt.Errorf("%w: issue_comment action %q", ErrUnsupportedEvent, action)
	}

	repo, _ := nestedString(payload, "repository", "full_name")
	issueNumber, _ := nestedInt(payload, "issue", "number")

	env := EventEnvelope{
		ID:     newID("evt", now().UTC()),
		Source: "github",
		Type:   "github.issue_comment." + normalizedAction,
		At:     now().UTC(),
		Scope:  EventScope{Repo: repo},
		Subject: EventSubject{
			Kind: "issue",
			ID:   strconv.Itoa(issueNumber),
		},
		Payload: json.RawMessage(raw),
	}

	comment := CommentInfo{}
	if body, ok := nestedString(payload, "comment", "body"); ok {
		comment.Body = body
	}
	if id, ok := nestedInt(payload, "comment", "id"); ok {
		comment.ID = int64(id)
	}
	if user, ok := nestedMap(payload, "comment", "user"); ok {
		if login, ok := getString(user, "login"); ok {
			comment.Author = login
		}
	}
	env.Comment = &comment

	if delivery, _ := getString(payload, "x_github_delivery"); delivery != "" {
		env.DedupeKey = "github:delivery:" + delivery
	} else {
		env.DedupeKey = buildDedupeKey(env)
	}

	return env, nil
}

// buildDedupeKey derives a fallback dedupe key when the delivery ID is
// absent. The comment ID keeps distinct comments on one issue apart.
func buildDedupeKey(env EventEnvelope) string {
	commentID := ""
	if env.Comment != nil && env.Comment.ID != 0 {
		commentID = strconv.FormatInt(env.Comment.ID, 10)
	}
	parts := []string{env.Source, env.Scope.Repo, env.Subject.ID, commentID, env.Type}
	return strings.Trim(strings.Join(parts, ":"), ":")
}

func getString(m map[string]interface{}, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func getInt(m map[string]interface{}, key string) (int, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

func nestedMap(m map[string]interface{}, keys ...string) (map[string]interface{}, bool) {
	current := m
	for _, key := range keys {
		v, ok := current[key]
		if !ok {
			return nil, false
		}
		current, ok = v.(map[string]interface{})
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func nestedString(m map[string]interface{}, keys ...string) (string, bool) {
	parent, ok := nestedMap(m, keys[:len(keys)-1]...)
	if !ok {
		return "", false
	}
	return getString(parent, keys[len(keys)-1])
}

func nestedInt(m map[string]interface{}, keys ...string) (int, bool) {
	parent, ok := nestedMap(m, keys[:len(keys)-1]...)
	if !ok {
		return 0, false
	}
	return getInt(parent, keys[len(keys)-1])
}
