package di

import (
	"log"
	"time"

	"go.uber.org/dig"

	"alfred-field/config"
	"alfred-field/internal/services"
	"alfred-field/pkg/alfred"
	"alfred-field/pkg/securestore"
)

var DiContainer *dig.Container

func Initialize() {
	DiContainer = dig.New()

	// Initialize the secure store
	store, err := securestore.NewStore(config.Env.StorePath, config.Env.StorePassphrase)
	if err != nil {
		log.Fatalf("Failed to initialize secure store: %v", err)
	}

	// Initialize the API client
	apiClient := alfred.NewClient(
		config.Env.APIBaseURL,
		time.Millisecond*time.Duration(config.Env.RequestTimeoutMS),
		time.Millisecond*time.Duration(config.Env.ChatTimeoutMS),
	)

	if err := DiContainer.Provide(func() *securestore.Store { return store }); err != nil {
		log.Fatalf("Failed to provide secure store: %v", err)
	}

	if err := DiContainer.Provide(func() *alfred.Client { return apiClient }); err != nil {
		log.Fatalf("Failed to provide API client: %v", err)
	}

	if err := DiContainer.Provide(func(api *alfred.Client, store *securestore.Store) services.AuthService {
		return services.NewAuthService(api, store)
	}); err != nil {
		log.Fatalf("Failed to provide auth service: %v", err)
	}

	if err := DiContainer.Provide(func(api *alfred.Client, store *securestore.Store) services.ChatService {
		chatService := services.NewChatService(api, store, config.Env.IncludeSources, config.Env.ChatSourceLimit)

		// Register the chat service with the auth service so sign-in
		// and sign-out reach it as reactions
		err := DiContainer.Invoke(func(authService services.AuthService) {
			authService.SetChatService(chatService)
		})
		if err != nil {
			log.Fatalf("Failed to set chat service in auth service: %v", err)
		}
		return chatService
	}); err != nil {
		log.Fatalf("Failed to provide chat service: %v", err)
	}
}

// GetAuthService retrieves the AuthService from the DI container
func GetAuthService() (services.AuthService, error) {
	var authService services.AuthService
	err := DiContainer.Invoke(func(s services.AuthService) {
		authService = s
	})
	if err != nil {
		return nil, err
	}
	return authService, nil
}

// GetChatService retrieves the ChatService from the DI container
func GetChatService() (services.ChatService, error) {
	var chatService services.ChatService
	err := DiContainer.Invoke(func(s services.ChatService) {
		chatService = s
	})
	if err != nil {
		return nil, err
	}
	return chatService, nil
}

// GetStore retrieves the secure store from the DI container
func GetStore() (*securestore.Store, error) {
	var store *securestore.Store
	err := DiContainer.Invoke(func(s *securestore.Store) {
		store = s
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}
