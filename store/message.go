package store

// MessageRole identifies who authored a history entry.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "USER"
	MessageRoleAssistant MessageRole = "ASSISTANT"
)

// Message is one append-only conversation history entry. Rows are never
// mutated or deleted by the core; ordering is by created_ts with id as the
// insertion-order tie breaker.
type Message struct {
	ID        int32
	UID       string
	LearnerID int32
	Role      MessageRole
	Content   string
	// SessionTag records which proactive session kind produced an assistant
	// entry ("morning", "evening", ...). Empty for interactive turns.
	SessionTag string
	CreatedTs  int64
}

type FindMessage struct {
	ID        *int32
	UID       *string
	LearnerID *int32
	Role      *MessageRole

	// Limit caps the result to the N most recent entries.
	// Results are always returned newest first.
	Limit *int
}
