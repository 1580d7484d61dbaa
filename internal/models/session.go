package models

// Session summarizes a past conversation thread as listed by the backend
type Session struct {
	SessionID     string `json:"session_id"`
	FirstQuestion string `json:"first_question,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// ChatState is a point-in-time snapshot of the chat session manager,
// handed to renderers. Slices are copies; mutating them has no effect
// on the manager.
type ChatState struct {
	Messages           []Message `json:"messages"`
	IsThinking         bool      `json:"is_thinking"`
	IsLoadingHistory   bool      `json:"is_loading_history"`
	SessionID          string    `json:"session_id"` // empty = no session started yet
	SuggestedQuestions []string  `json:"suggested_questions"`
}
