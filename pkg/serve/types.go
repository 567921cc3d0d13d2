package serve

import (
	"encoding/json"
	"time"
)

// EventEnvelope is the normalized internal form of an inbound webhook
// delivery.
type EventEnvelope struct {
	ID        string          `json:"id"`
	Source    string          `json:"source"`
	Type      string          `json:"type"`
	At        time.Time       `json:"at"`
	Scope     EventScope      `json:"scope"`
	Subject   EventSubject    `json:"subject"`
	Comment   *CommentInfo    `json:"comment,omitempty"`
	DedupeKey string          `json:"dedupe_key,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type EventScope struct {
	Repo string `json:"repo,omitempty"`
}

type EventSubject struct {
	Kind string `json:"kind,omitempty"`
	ID   string `json:"id,omitempty"`
}

// CommentInfo carries the comment fields the bot consumes from an
// issue_comment event.
type CommentInfo struct {
	ID     int64  `json:"id"`
	Body   string `json:"body"`
	Author string `json:"author,omitempty"`
}

// DecisionRecord captures whether an event was forwarded to the handler.
type DecisionRecord struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	Skipped   bool      `json:"skipped,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ActionResult records the handler outcome for one event.
type ActionResult struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}
