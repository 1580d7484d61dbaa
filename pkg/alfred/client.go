// Package alfred is a stateless HTTP client for the Alfred backend:
// authentication, conversational search and session history. It holds
// no local state beyond its HTTP clients; callers own tokens and
// session ids.
package alfred

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"alfred-field/internal/models"
)

type Client struct {
	baseURL string

	// Conversation calls get a longer deadline than the rest; answers
	// routinely take over ten seconds.
	httpClient *http.Client
	chatClient *http.Client
}

func NewClient(baseURL string, requestTimeout, chatTimeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		chatClient: &http.Client{Timeout: chatTimeout},
	}
}

// Login exchanges credentials for a bearer token using the OAuth2
// password flow with a form-encoded body.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthTokens, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", email)
	form.Set("password", password)
	form.Set("scope", "")
	form.Set("client_id", "")
	form.Set("client_secret", "")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Request-ID", uuid.NewString())

	status, data, err := c.do(c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("network request failed: %w", err)
	}
	if status < 200 || status >= 300 {
		return nil, apiError(status, data, fmt.Sprintf("Login failed (%d)", status))
	}

	var tokens AuthTokens
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse login response: %w", err)
	}
	return &tokens, nil
}

// Me fetches the current user's profile using the bearer token
func (c *Client) Me(ctx context.Context, token string) (*models.User, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/auth/me", nil, token)
	if err != nil {
		return nil, err
	}

	status, data, err := c.do(c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("network request failed: %w", err)
	}
	if status < 200 || status >= 300 {
		return nil, apiError(status, data, fmt.Sprintf("Failed to fetch user (%d)", status))
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user profile: %w", err)
	}
	return &user, nil
}

// SendMessage submits a query to the assistant. An empty sessionID
// starts a new conversation; the response always carries the session
// id (possibly newly minted) that subsequent calls must adopt.
func (c *Client) SendMessage(ctx context.Context, token, query, sessionID string, includeSources bool, limit int) (*ConversationResponse, error) {
	reqBody := ConversationRequest{
		Query:          query,
		ProjectID:      "",
		IncludeSources: includeSources,
		Limit:          limit,
	}
	if sessionID != "" {
		reqBody.SessionID = &sessionID
	}

	req, err := c.newJSONRequest(ctx, http.MethodPost, "/search/chat/conversation", reqBody, token)
	if err != nil {
		return nil, err
	}

	status, data, err := c.do(c.chatClient, req)
	if err != nil {
		return nil, fmt.Errorf("chat network request failed: %w", err)
	}
	if status < 200 || status >= 300 {
		return nil, apiError(status, data, fmt.Sprintf("Chat error (%d)", status))
	}

	var resp ConversationResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse chat response: %w", err)
	}
	return &resp, nil
}

// ListSessions fetches the list of past chat sessions
func (c *Client) ListSessions(ctx context.Context, token string) ([]models.Session, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/search/chat/sessions", nil, token)
	if err != nil {
		return nil, err
	}

	status, data, err := c.do(c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("network request failed: %w", err)
	}
	if status < 200 || status >= 300 {
		return nil, apiError(status, data, fmt.Sprintf("Failed to fetch sessions (%d)", status))
	}

	var resp sessionsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse sessions response: %w", err)
	}
	return resp.Sessions, nil
}

// SessionMessages fetches the full message history for a session. The
// backend returns either a bare list or a {"messages": [...]} wrapper;
// both shapes are handled.
func (c *Client) SessionMessages(ctx context.Context, token, sessionID string) ([]HistoryRecord, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/search/chat/sessions/"+url.PathEscape(sessionID)+"/messages", nil, token)
	if err != nil {
		return nil, err
	}

	status, data, err := c.do(c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("network request failed: %w", err)
	}
	if status < 200 || status >= 300 {
		return nil, apiError(status, data, fmt.Sprintf("Failed to fetch messages (%d)", status))
	}

	var wrapped struct {
		Messages []HistoryRecord `json:"messages"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Messages != nil {
		return wrapped.Messages, nil
	}

	var records []HistoryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse messages response: %w", err)
	}
	return records, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, body interface{}, token string) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

func (c *Client) do(httpClient *http.Client, req *http.Request) (int, []byte, error) {
	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

// apiError builds an APIError from a non-2xx response, preferring the
// backend's 'detail' field over the generic fallback text
func apiError(status int, body []byte, fallback string) *APIError {
	detail := fallback
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Detail != "" {
		detail = parsed.Detail
	}
	return &APIError{StatusCode: status, Detail: detail}
}
