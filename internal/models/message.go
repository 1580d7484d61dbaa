package models

import (
	"fmt"

	"alfred-field/internal/constants"
)

type Message struct {
	Role    constants.MessageRole `json:"role"` // 'user' or 'assistant'
	Content string                `json:"content"`
	Sources []Source              `json:"sources,omitempty"` // only set on assistant messages that cite material
}

// Source is a piece of retrieved material cited by an assistant answer
type Source struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Score    float64        `json:"score"` // higher = more relevant, currently unused for ordering
	Metadata SourceMetadata `json:"metadata"`
}

type SourceMetadata struct {
	FileName string `json:"file_name"`
}

// DisplayLabel prefers the human-readable file name over the raw snippet
func (s Source) DisplayLabel() string {
	if s.Metadata.FileName != "" {
		return s.Metadata.FileName
	}
	return s.Text
}

func NewUserMessage(content string) Message {
	return Message{
		Role:    constants.MessageRoleUser,
		Content: content,
	}
}

func NewAssistantMessage(content string, sources []Source) Message {
	return Message{
		Role:    constants.MessageRoleAssistant,
		Content: content,
		Sources: sources,
	}
}

// NewErrorMessage wraps a send failure as an in-conversation assistant reply
func NewErrorMessage(detail string) Message {
	if detail == "" {
		detail = constants.SendErrorFallback
	}
	return Message{
		Role:    constants.MessageRoleAssistant,
		Content: fmt.Sprintf(constants.SendErrorFormat, detail),
	}
}
