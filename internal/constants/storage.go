package constants

// Keys under which the secure store persists state across restarts
const (
	StorageKeyAccessToken   = "auth_access_token"
	StorageKeyLastSessionID = "last_chat_session_id"
)
