package notification

import "fmt"

// Kind is the closed set of notification types the mobile client produces.
// Unknown values are delivered with a generic message rather than rejected.
type Kind string

const (
	KindLike    Kind = "like"
	KindFollow  Kind = "follow"
	KindComment Kind = "comment"
)

// Event mirrors one inserted row of the notifications table. PostID and
// CommentID stay empty for kinds that do not carry them.
type Event struct {
	RecipientID string `json:"recipient_id"`
	ActorID     string `json:"actor_id"`
	Kind        Kind   `json:"type"`
	PostID      string `json:"post_id,omitempty"`
	CommentID   string `json:"comment_id,omitempty"`
}

// Message is the composed human-readable alert text.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// DeliveryOutcome records one push attempt against one device endpoint.
type DeliveryOutcome struct {
	Token     string
	Succeeded bool
	Err       string
}

// BatchSummary aggregates the outcomes of a single fan-out batch.
type BatchSummary struct {
	Total    int
	Sent     int
	Errors   []string
	Outcomes []DeliveryOutcome
}

func (s BatchSummary) Message() string {
	return fmt.Sprintf("Sent %d/%d push notifications", s.Sent, s.Total)
}
