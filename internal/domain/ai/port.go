package ai

import "context"

// ChatTurn is one message of a companion conversation.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Companion answers free-form safety questions.
type Companion interface {
	Reply(ctx context.Context, history []ChatTurn, message string) (string, error)
}
