package alfred

import (
	"alfred-field/internal/models"
)

type AuthTokens struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type ConversationRequest struct {
	Query          string  `json:"query"`
	SessionID      *string `json:"session_id"` // nil starts a new conversation
	ProjectID      string  `json:"project_id"` // empty string = organization-wide search
	IncludeSources bool    `json:"include_sources"`
	Limit          int     `json:"limit"`
}

type ConversationResponse struct {
	Success            bool            `json:"success"`
	SessionID          string          `json:"session_id"`
	Query              string          `json:"query"`
	Answer             string          `json:"answer"`
	Sources            []models.Source `json:"sources"`
	TotalSources       int             `json:"total_sources"`
	ProcessingTime     float64         `json:"processing_time"`
	SuggestedQuestions []string        `json:"suggested_questions"`
}

type sessionsResponse struct {
	Success  bool             `json:"success"`
	Sessions []models.Session `json:"sessions"`
}

// HistoryRecord is one entry of a session's message history. The
// backend is inconsistent about which text field it populates
// ('content' vs 'query'/'answer'), so all three are accepted.
type HistoryRecord struct {
	Role    string          `json:"role"`
	Content string          `json:"content"`
	Query   string          `json:"query"`
	Answer  string          `json:"answer"`
	Sources []models.Source `json:"sources"`
}

// Text coalesces whichever text field the backend populated
func (r HistoryRecord) Text() string {
	if r.Content != "" {
		return r.Content
	}
	if r.Query != "" {
		return r.Query
	}
	return r.Answer
}

type errorResponse struct {
	Detail string `json:"detail"`
}
