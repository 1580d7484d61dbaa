package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"alfred-field/config"
	"alfred-field/internal/constants"
	"alfred-field/internal/di"
	"alfred-field/internal/models"
	"alfred-field/internal/services"
)

func main() {
	// Load environment variables
	err := config.LoadEnv()
	if err != nil {
		log.Fatalf("Failed to load environment variables: %v", err)
	}

	// Initialize dependencies
	di.Initialize()

	authService, err := di.GetAuthService()
	if err != nil {
		log.Fatalf("Failed to get auth service: %v", err)
	}
	chatService, err := di.GetChatService()
	if err != nil {
		log.Fatalf("Failed to get chat service: %v", err)
	}
	store, err := di.GetStore()
	if err != nil {
		log.Fatalf("Failed to get secure store: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("✨ Welcome to Alfred! Running in", config.Env.Environment, "Mode against", config.Env.APIBaseURL)

	reader := bufio.NewScanner(os.Stdin)

	// Try to revive the previous session before asking for credentials
	authService.Restore(ctx)
	for authService.Token() == "" {
		if !promptSignIn(ctx, reader, authService) {
			fmt.Println("👋 Goodbye")
			return
		}
	}

	chatService.RestoreLastSession(ctx)

	printed := render(chatService.State(), 0)

	fmt.Println("Type a question, or /new, /sessions, /open <id>, /logout, /quit")
	for {
		fmt.Print("> ")
		if !reader.Scan() {
			break
		}
		line := strings.TrimSpace(reader.Text())

		switch {
		case line == "/quit":
			fmt.Println("👋 Goodbye")
			return
		case line == "/new":
			chatService.StartNewChat()
			printed = render(chatService.State(), 0)
		case line == "/sessions":
			listSessions(ctx, chatService)
		case strings.HasPrefix(line, "/open "):
			chatService.LoadSession(ctx, strings.TrimSpace(strings.TrimPrefix(line, "/open ")))
			printed = render(chatService.State(), 0)
		case line == "/logout":
			authService.SignOut(ctx)
			for authService.Token() == "" {
				if !promptSignIn(ctx, reader, authService) {
					fmt.Println("👋 Goodbye")
					return
				}
			}
			chatService.RestoreLastSession(ctx)
			printed = render(chatService.State(), 0)
		default:
			chatService.SendMessage(ctx, line)
			printed = render(chatService.State(), printed)
		}
	}
}

// promptSignIn reads credentials and attempts a sign-in; returns false
// when stdin is closed
func promptSignIn(ctx context.Context, reader *bufio.Scanner, authService services.AuthService) bool {
	fmt.Print("Email: ")
	if !reader.Scan() {
		return false
	}
	email := strings.TrimSpace(reader.Text())

	fmt.Print("Password: ")
	if !reader.Scan() {
		return false
	}
	password := reader.Text()

	if err := authService.SignIn(ctx, email, password); err != nil {
		fmt.Printf("⚠️  %v\n", err)
	}
	return true
}

// render prints messages after index from, returning the new count
func render(state models.ChatState, from int) int {
	for _, msg := range state.Messages[from:] {
		if msg.Role == constants.MessageRoleUser {
			fmt.Printf("\nYou: %s\n", msg.Content)
			continue
		}
		fmt.Printf("\nAlfred: %s\n", msg.Content)
		for _, source := range msg.Sources {
			fmt.Printf("   📄 %s\n", source.DisplayLabel())
		}
	}
	if len(state.SuggestedQuestions) > 0 {
		fmt.Printf("\nSuggested: %s\n", strings.Join(state.SuggestedQuestions, " | "))
	}
	return len(state.Messages)
}

func listSessions(ctx context.Context, chatService services.ChatService) {
	sessions, err := chatService.ListSessions(ctx)
	if err != nil {
		fmt.Printf("⚠️  %v\n", err)
		return
	}
	if len(sessions) == 0 {
		fmt.Println("No past sessions")
		return
	}
	for _, session := range sessions {
		label := session.FirstQuestion
		if label == "" {
			label = "(no question)"
		}
		fmt.Printf("  %s  %s\n", session.SessionID, label)
	}
}
