// Package alfredtest runs a scriptable in-process stand-in for the
// Alfred backend, implementing the auth and conversational-search
// contract the client consumes.
package alfredtest

import (
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"

	"alfred-field/internal/models"
	"alfred-field/pkg/alfred"
)

type Backend struct {
	mu sync.Mutex

	// Accepted credentials and the token they mint
	Email    string
	Password string
	Token    string
	User     models.User

	// Conversation behavior
	MintSessionID      string
	Answer             string
	Sources            []models.Source
	SuggestedQuestions []string
	FailSendStatus     int // non-zero makes conversation calls fail
	FailSendDetail     string

	// Session history behavior
	Sessions    []models.Session
	Histories   map[string][]alfred.HistoryRecord
	WrapHistory bool // respond with {"messages": [...]} instead of a bare list

	// When set, conversation calls signal SendEntered after recording
	// the request and then block until HoldSend yields
	SendEntered chan struct{}
	HoldSend    chan struct{}

	// Same, for history fetches, keyed per call
	HistoryEntered chan string
	HoldHistory    chan struct{}

	// Counters for assertions
	SendCalls   int
	LastQuery   string
	LastSession *string
	MeCalls     int

	srv *httptest.Server
}

func New() *Backend {
	gin.SetMode(gin.TestMode)

	b := &Backend{
		Email:         "supervisor@site.example",
		Password:      "hardhat",
		Token:         "test-bearer-token",
		User:          models.User{ID: "u1", Name: "Maruthi Rao", Email: "supervisor@site.example", Role: "supervisor"},
		MintSessionID: "session-1",
		Answer:        "All quiet on site.",
		Histories:     map[string][]alfred.HistoryRecord{},
	}

	router := gin.New()
	router.POST("/auth/login", b.handleLogin)
	router.GET("/auth/me", b.handleMe)
	router.POST("/search/chat/conversation", b.handleConversation)
	router.GET("/search/chat/sessions", b.handleSessions)
	router.GET("/search/chat/sessions/:id/messages", b.handleMessages)

	b.srv = httptest.NewServer(router)
	return b
}

func (b *Backend) URL() string { return b.srv.URL }

func (b *Backend) Close() { b.srv.Close() }

func (b *Backend) handleLogin(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c.PostForm("grant_type") != "password" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "unsupported grant type"})
		return
	}
	if c.PostForm("username") != b.Email || c.PostForm("password") != b.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect email or password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": b.Token, "token_type": "bearer"})
}

func (b *Backend) handleMe(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.MeCalls++
	if !b.authorized(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}
	c.JSON(http.StatusOK, b.User)
}

func (b *Backend) handleConversation(c *gin.Context) {
	b.mu.Lock()

	if !b.authorized(c) {
		b.mu.Unlock()
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}

	var req alfred.ConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		b.mu.Unlock()
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	b.SendCalls++
	b.LastQuery = req.Query
	b.LastSession = req.SessionID

	entered := b.SendEntered
	hold := b.HoldSend
	failStatus := b.FailSendStatus
	failDetail := b.FailSendDetail
	resp := alfred.ConversationResponse{
		Success:            true,
		SessionID:          b.MintSessionID,
		Query:              req.Query,
		Answer:             b.Answer,
		Sources:            b.Sources,
		TotalSources:       len(b.Sources),
		SuggestedQuestions: b.SuggestedQuestions,
	}
	b.mu.Unlock()

	if req.SessionID != nil && *req.SessionID != "" {
		resp.SessionID = *req.SessionID
	}

	if entered != nil {
		entered <- struct{}{}
	}
	if hold != nil {
		<-hold
	}

	if failStatus != 0 {
		c.JSON(failStatus, gin.H{"detail": failDetail})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (b *Backend) handleSessions(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.authorized(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sessions": b.Sessions})
}

func (b *Backend) handleMessages(c *gin.Context) {
	b.mu.Lock()

	if !b.authorized(c) {
		b.mu.Unlock()
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}

	sessionID := c.Param("id")
	records, ok := b.Histories[sessionID]
	wrap := b.WrapHistory
	entered := b.HistoryEntered
	hold := b.HoldHistory
	b.mu.Unlock()

	if entered != nil {
		entered <- sessionID
	}
	if hold != nil {
		<-hold
	}

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Session not found"})
		return
	}

	if wrap {
		c.JSON(http.StatusOK, gin.H{"messages": records})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (b *Backend) authorized(c *gin.Context) bool {
	return c.GetHeader("Authorization") == "Bearer "+b.Token
}
