package constants

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

const (
	// GlobalProjectID triggers an organization-wide search on the backend
	GlobalProjectID = ""

	// FallbackFirstName is used for greetings when no profile is loaded yet
	FallbackFirstName = "Maruthi"
)

const (
	WelcomeGreetingFormat   = "Good Morning, %s! 👋\n\nI'm ready to help you with your site today. You can ask me anything about documents, projects, or status updates."
	FreshChatGreetingFormat = "Good Morning, %s! 👋\n\nI've started a fresh session for you. How can I help?"
	SendErrorFormat         = "Sorry, I encountered an error: %s"
	SendErrorFallback       = "Please try again later."
)
