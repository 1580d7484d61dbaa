package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"alfred-field/internal/constants"
	"alfred-field/internal/models"
	"alfred-field/pkg/alfred"
	"alfred-field/pkg/securestore"
)

// ChatService owns the in-memory conversation state for the active
// session: the message list, the thinking and history-loading flags,
// the suggested follow-ups and the active session id. The active id is
// mirrored into the secure store so it survives restarts.
//
// Every asynchronous operation captures the epoch counter when it
// starts; StartNewChat, LoadSession and the sign-out reset bump it, so
// a completion that arrives after its session identity was superseded
// is discarded instead of corrupting the newer state.
type ChatService interface {
	// SendMessage runs one send to completion. Blank text and calls
	// made while a send is already in flight are silently dropped;
	// failures surface as an assistant-role error bubble, never as a
	// returned error.
	SendMessage(ctx context.Context, text string)
	// StartNewChat synchronously resets to a fresh, unsaved session
	StartNewChat()
	// LoadSession replaces the conversation with a stored session's
	// history. A missing session (404) resets to the fresh state; other
	// failures leave the conversation empty.
	LoadSession(ctx context.Context, sessionID string)
	// RestoreLastSession reloads the persisted last-active session, if
	// any. Failures are logged and fall through to the idle greeting.
	RestoreLastSession(ctx context.Context)
	ListSessions(ctx context.Context) ([]models.Session, error)
	State() models.ChatState
	// HandleAuthChange is invoked by the auth service on every sign-in
	// and sign-out
	HandleAuthChange(user *models.User, token string)
}

type chatService struct {
	mu                 sync.Mutex
	messages           []models.Message
	isThinking         bool
	isLoadingHistory   bool
	sessionID          string // empty = no session started yet
	suggestedQuestions []string
	epoch              uint64
	user               *models.User
	token              string

	api            *alfred.Client
	store          *securestore.Store
	includeSources bool
	sourceLimit    int
}

func NewChatService(api *alfred.Client, store *securestore.Store, includeSources bool, sourceLimit int) ChatService {
	if api == nil || store == nil {
		log.Fatal("Chat service dependencies cannot be nil")
	}
	return &chatService{
		api:            api,
		store:          store,
		includeSources: includeSources,
		sourceLimit:    sourceLimit,
	}
}

func (s *chatService) SendMessage(ctx context.Context, text string) {
	s.mu.Lock()
	if isBlank(text) || s.isThinking {
		s.mu.Unlock()
		return
	}

	// Optimistic append: the user's message stays visible even if the
	// call fails
	s.messages = append(s.messages, models.NewUserMessage(text))
	s.isThinking = true
	epoch := s.epoch
	token := s.token
	sessionID := s.sessionID
	s.mu.Unlock()

	resp, err := s.api.SendMessage(ctx, token, text, sessionID, s.includeSources, s.sourceLimit)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.isThinking = false
	if s.epoch != epoch {
		// The session identity moved on while this send was in flight
		log.Printf("[chat] Discarding stale send result (session changed)")
		return
	}

	if err != nil {
		log.Printf("[chat] Send failed: %v", err)
		s.messages = append(s.messages, models.NewErrorMessage(err.Error()))
		return
	}

	s.messages = append(s.messages, models.NewAssistantMessage(resp.Answer, resp.Sources))
	s.sessionID = resp.SessionID
	s.persistSessionID(resp.SessionID)
	s.suggestedQuestions = resp.SuggestedQuestions
}

func (s *chatService) StartNewChat() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.sessionID = ""
	s.clearPersistedSessionID()
	s.suggestedQuestions = nil
	s.isLoadingHistory = false
	s.messages = []models.Message{
		models.NewAssistantMessage(fmt.Sprintf(constants.FreshChatGreetingFormat, s.firstNameLocked()), nil),
	}
}

func (s *chatService) LoadSession(ctx context.Context, sessionID string) {
	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.isLoadingHistory = true
	s.messages = nil // clear immediately to avoid flashing stale content
	s.sessionID = sessionID
	s.persistSessionID(sessionID)
	token := s.token
	s.mu.Unlock()

	records, err := s.api.SessionMessages(ctx, token, sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		// A newer operation owns the state now; it clears the loading
		// flag itself
		log.Printf("[chat] Discarding stale history for session %s", sessionID)
		return
	}

	if err != nil {
		log.Printf("[chat] Error loading session %s: %v", sessionID, err)
		if alfred.IsNotFound(err) {
			// The persisted id points at a session the backend no
			// longer knows; stop retrying it on every startup
			s.clearPersistedSessionID()
			s.sessionID = ""
			s.messages = nil
		}
		s.isLoadingHistory = false
		s.ensureGreetingLocked()
		return
	}

	mapped := make([]models.Message, 0, len(records))
	for _, record := range records {
		mapped = append(mapped, models.Message{
			Role:    roleFrom(record.Role),
			Content: record.Text(),
			Sources: record.Sources,
		})
	}
	s.messages = mapped
	s.suggestedQuestions = nil
	s.isLoadingHistory = false
	s.ensureGreetingLocked()
}

func (s *chatService) RestoreLastSession(ctx context.Context) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return
	}

	savedID, ok, err := s.store.Get(constants.StorageKeyLastSessionID)
	if err != nil {
		log.Printf("[chat] Restore session failed: %v", err)
	} else if ok && savedID != "" {
		s.LoadSession(ctx, savedID)
		return
	}

	s.mu.Lock()
	s.ensureGreetingLocked()
	s.mu.Unlock()
}

func (s *chatService) ListSessions(ctx context.Context) ([]models.Session, error) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	return s.api.ListSessions(ctx, token)
}

func (s *chatService) State() models.ChatState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := models.ChatState{
		Messages:           make([]models.Message, len(s.messages)),
		IsThinking:         s.isThinking,
		IsLoadingHistory:   s.isLoadingHistory,
		SessionID:          s.sessionID,
		SuggestedQuestions: make([]string, len(s.suggestedQuestions)),
	}
	copy(state.Messages, s.messages)
	copy(state.SuggestedQuestions, s.suggestedQuestions)
	return state
}

func (s *chatService) HandleAuthChange(user *models.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		// Logout cleanup: full reset plus persisted-id removal
		s.epoch++
		s.user = nil
		s.token = ""
		s.messages = nil
		s.sessionID = ""
		s.suggestedQuestions = nil
		s.isLoadingHistory = false
		s.clearPersistedSessionID()
		return
	}

	s.user = user
	s.token = token
	s.ensureGreetingLocked()
}

// ensureGreetingLocked maintains the idle-state invariant: an empty
// conversation for a signed-in user with no active or loading session
// always shows a single welcome message. Callers hold s.mu.
func (s *chatService) ensureGreetingLocked() {
	if len(s.messages) != 0 || s.user == nil || s.isLoadingHistory || s.sessionID != "" {
		return
	}
	s.messages = []models.Message{
		models.NewAssistantMessage(fmt.Sprintf(constants.WelcomeGreetingFormat, s.firstNameLocked()), nil),
	}
}

func (s *chatService) firstNameLocked() string {
	if s.user != nil {
		if name := s.user.FirstName(); name != "" {
			return name
		}
	}
	return constants.FallbackFirstName
}

// persistSessionID mirrors the active session id into the secure
// store; failures are logged and swallowed
func (s *chatService) persistSessionID(sessionID string) {
	if err := s.store.Set(constants.StorageKeyLastSessionID, sessionID); err != nil {
		log.Printf("Warning: Failed to persist session id: %v", err)
	}
}

func (s *chatService) clearPersistedSessionID() {
	if err := s.store.Delete(constants.StorageKeyLastSessionID); err != nil {
		log.Printf("Warning: Failed to delete persisted session id: %v", err)
	}
}

func roleFrom(role string) constants.MessageRole {
	if role == string(constants.MessageRoleUser) {
		return constants.MessageRoleUser
	}
	return constants.MessageRoleAssistant
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
