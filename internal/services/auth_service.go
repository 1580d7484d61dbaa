package services

import (
	"context"
	"log"
	"sync"

	"alfred-field/internal/constants"
	"alfred-field/internal/models"
	"alfred-field/internal/utils"
	"alfred-field/pkg/alfred"
	"alfred-field/pkg/securestore"
)

// AuthError is a sign-in or profile-fetch failure with a message fit
// for direct display
type AuthError struct {
	Detail string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return "authentication failed"
}

func (e *AuthError) Unwrap() error { return e.Err }

// AuthService owns the current user identity and bearer token. No chat
// operation is meaningful without it; the chat service registers here
// and is told about every sign-in and sign-out.
type AuthService interface {
	// Restore attempts to revive a persisted session once, at startup.
	// All failures are absorbed: the manager simply stays signed out.
	Restore(ctx context.Context)
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context)
	User() *models.User
	Token() string
	// IsLoading is true only while the one-shot startup restoration runs
	IsLoading() bool
	SetChatService(chatService ChatService)
}

type authService struct {
	mu          sync.Mutex
	user        *models.User
	token       string
	isLoading   bool
	restored    bool
	api         *alfred.Client
	store       *securestore.Store
	chatService ChatService
}

func NewAuthService(api *alfred.Client, store *securestore.Store) AuthService {
	if api == nil || store == nil {
		log.Fatal("Auth service dependencies cannot be nil")
	}
	return &authService{
		api:       api,
		store:     store,
		isLoading: true,
	}
}

func (s *authService) SetChatService(chatService ChatService) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatService = chatService
}

func (s *authService) Restore(ctx context.Context) {
	s.mu.Lock()
	if s.restored {
		s.mu.Unlock()
		return
	}
	s.restored = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isLoading = false
		s.mu.Unlock()
	}()

	savedToken, ok, err := s.store.Get(constants.StorageKeyAccessToken)
	if err != nil {
		log.Printf("[auth] Failed to read stored token: %v", err)
		s.clearStoredToken()
		return
	}
	if !ok || savedToken == "" {
		return
	}

	// Skip the profile fetch when the token is visibly expired
	if utils.TokenExpired(savedToken) {
		log.Println("[auth] Stored token has expired, clearing it")
		s.clearStoredToken()
		return
	}

	me, err := s.api.Me(ctx, savedToken)
	if err != nil {
		// Token invalid or backend unreachable — silently clear it
		log.Printf("[auth] Session restore failed: %v", err)
		s.clearStoredToken()
		return
	}

	s.publish(me, savedToken)
	log.Printf("[auth] Restored session for %s", me.Email)
}

func (s *authService) SignIn(ctx context.Context, email, password string) error {
	tokens, err := s.api.Login(ctx, email, password)
	if err != nil {
		return &AuthError{Detail: err.Error(), Err: err}
	}

	me, err := s.api.Me(ctx, tokens.AccessToken)
	if err != nil {
		return &AuthError{Detail: err.Error(), Err: err}
	}

	if err := s.store.Set(constants.StorageKeyAccessToken, tokens.AccessToken); err != nil {
		log.Printf("Warning: Failed to persist token: %v", err)
	}

	s.publish(me, tokens.AccessToken)
	log.Printf("[auth] Signed in as %s", me.Email)
	return nil
}

func (s *authService) SignOut(ctx context.Context) {
	s.clearStoredToken()

	s.mu.Lock()
	s.user = nil
	s.token = ""
	chatService := s.chatService
	s.mu.Unlock()

	if chatService != nil {
		chatService.HandleAuthChange(nil, "")
	}
	log.Println("[auth] Signed out")
}

func (s *authService) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *authService) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *authService) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLoading
}

func (s *authService) publish(user *models.User, token string) {
	s.mu.Lock()
	s.user = user
	s.token = token
	chatService := s.chatService
	s.mu.Unlock()

	if chatService != nil {
		chatService.HandleAuthChange(user, token)
	}
}

func (s *authService) clearStoredToken() {
	if err := s.store.Delete(constants.StorageKeyAccessToken); err != nil {
		log.Printf("Warning: Failed to delete stored token: %v", err)
	}
}
