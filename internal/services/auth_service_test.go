package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfred-field/internal/alfredtest"
	"alfred-field/internal/constants"
	"alfred-field/pkg/alfred"
	"alfred-field/pkg/securestore"
)

type authFixture struct {
	backend *alfredtest.Backend
	store   *securestore.Store
	auth    AuthService
	chat    ChatService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	backend := alfredtest.New()
	t.Cleanup(backend.Close)

	store, err := securestore.NewStore(filepath.Join(t.TempDir(), "store.db"), "test-passphrase")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	api := alfred.NewClient(backend.URL(), 2*time.Second, 2*time.Second)
	auth := NewAuthService(api, store)
	chat := NewChatService(api, store, true, 5)
	auth.SetChatService(chat)

	return &authFixture{backend: backend, store: store, auth: auth, chat: chat}
}

func (f *authFixture) storedToken(t *testing.T) (string, bool) {
	t.Helper()
	value, ok, err := f.store.Get(constants.StorageKeyAccessToken)
	require.NoError(t, err)
	return value, ok
}

func TestSignInSuccess(t *testing.T) {
	f := newAuthFixture(t)

	err := f.auth.SignIn(context.Background(), f.backend.Email, f.backend.Password)
	require.NoError(t, err)

	assert.Equal(t, f.backend.Token, f.auth.Token())
	require.NotNil(t, f.auth.User())
	assert.Equal(t, "Maruthi Rao", f.auth.User().Name)

	stored, ok := f.storedToken(t)
	assert.True(t, ok)
	assert.Equal(t, f.backend.Token, stored)

	// The chat service learned about the sign-in and greets the user
	state := f.chat.State()
	require.Len(t, state.Messages, 1)
	assert.Contains(t, state.Messages[0].Content, "Maruthi")
}

func TestSignInWrongPasswordSurfacesDetail(t *testing.T) {
	f := newAuthFixture(t)

	err := f.auth.SignIn(context.Background(), f.backend.Email, "wrong")
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Incorrect email or password", authErr.Detail)

	// State untouched on failure
	assert.Empty(t, f.auth.Token())
	assert.Nil(t, f.auth.User())
	_, ok := f.storedToken(t)
	assert.False(t, ok)
}

func TestRestoreWithValidStoredToken(t *testing.T) {
	f := newAuthFixture(t)
	require.NoError(t, f.store.Set(constants.StorageKeyAccessToken, f.backend.Token))

	assert.True(t, f.auth.IsLoading())
	f.auth.Restore(context.Background())

	assert.False(t, f.auth.IsLoading())
	assert.Equal(t, f.backend.Token, f.auth.Token())
	require.NotNil(t, f.auth.User())
	assert.Equal(t, "supervisor@site.example", f.auth.User().Email)
}

func TestRestoreWithInvalidTokenClearsIt(t *testing.T) {
	f := newAuthFixture(t)
	require.NoError(t, f.store.Set(constants.StorageKeyAccessToken, "stale-token"))

	f.auth.Restore(context.Background())

	assert.False(t, f.auth.IsLoading())
	assert.Empty(t, f.auth.Token())
	assert.Nil(t, f.auth.User())

	_, ok := f.storedToken(t)
	assert.False(t, ok)
}

func TestRestoreWithNoTokenStaysSignedOut(t *testing.T) {
	f := newAuthFixture(t)

	f.auth.Restore(context.Background())

	assert.False(t, f.auth.IsLoading())
	assert.Empty(t, f.auth.Token())
	assert.Equal(t, 0, f.backend.MeCalls)
}

func TestRestoreSkipsBackendForExpiredJWT(t *testing.T) {
	f := newAuthFixture(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := expired.SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	require.NoError(t, f.store.Set(constants.StorageKeyAccessToken, signed))

	f.auth.Restore(context.Background())

	assert.Equal(t, 0, f.backend.MeCalls)
	assert.Empty(t, f.auth.Token())
	_, ok := f.storedToken(t)
	assert.False(t, ok)
}

func TestRestoreRunsOnlyOnce(t *testing.T) {
	f := newAuthFixture(t)
	require.NoError(t, f.store.Set(constants.StorageKeyAccessToken, f.backend.Token))

	f.auth.Restore(context.Background())
	f.auth.Restore(context.Background())

	assert.Equal(t, 1, f.backend.MeCalls)
}

func TestSignOutClearsEverything(t *testing.T) {
	f := newAuthFixture(t)
	require.NoError(t, f.auth.SignIn(context.Background(), f.backend.Email, f.backend.Password))
	f.chat.SendMessage(context.Background(), "hello")
	require.NotEmpty(t, f.chat.State().SessionID)

	f.auth.SignOut(context.Background())

	assert.Empty(t, f.auth.Token())
	assert.Nil(t, f.auth.User())
	_, ok := f.storedToken(t)
	assert.False(t, ok)

	// Logout cleanup reached the chat service as a reaction
	state := f.chat.State()
	assert.Empty(t, state.Messages)
	assert.Empty(t, state.SessionID)
	assert.Empty(t, state.SuggestedQuestions)

	_, ok, err := f.store.Get(constants.StorageKeyLastSessionID)
	require.NoError(t, err)
	assert.False(t, ok)
}
