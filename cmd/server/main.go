package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ideacentral/backend/internal/auth"
	"ideacentral/backend/internal/cache"
	"ideacentral/backend/internal/config"
	"ideacentral/backend/internal/database"
	"ideacentral/backend/internal/handlers"
	"ideacentral/backend/internal/middleware"
	"ideacentral/backend/internal/repository"
	"ideacentral/backend/internal/router"
	"ideacentral/backend/internal/services"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"google.golang.org/api/option"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Printf("Error closing store: %v", err)
		}
	}()

	userRepo := repository.NewUserRepository(store)
	ideaRepo := repository.NewIdeaRepository(store)

	// Optional leaderboard cache
	var leaderboardCache services.LeaderboardCache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisLeaderboard(ctx, cfg.RedisURL, cfg.LeaderboardTTL)
		if err != nil {
			log.Fatalf("Failed to initialize leaderboard cache: %v", err)
		}
		defer redisCache.Close()
		leaderboardCache = redisCache
	}

	assigner := services.NewAssignmentService(
		services.WithUserRepository(userRepo),
		services.WithIdeaRepository(ideaRepo),
		services.WithBeansPerIdea(cfg.BeansPerIdea),
		services.WithLeaderboardCache(leaderboardCache),
	)
	leaderboard := services.NewLeaderboardService(userRepo, leaderboardCache, cfg.TopSubmitters)

	reconciler := services.NewReconciler(assigner, cfg.ReconcileInterval)
	reconciler.Start()
	defer reconciler.Stop()

	// Initialize Firebase Admin SDK from Environment Variable
	var authMiddleware gin.HandlerFunc
	if cfg.FirebaseKey != "" {
		verifier, err := initFirebaseAuth(ctx, cfg.FirebaseKey)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase auth: %v", err)
		}
		authMiddleware = middleware.AuthMiddleware(verifier)
	} else {
		log.Println("KEY_DATA not set, API routes are unauthenticated")
	}

	r := router.NewRouter(router.Handlers{
		Auth:  auth.NewHandler(userRepo, cfg.RequestTimeout),
		Users: handlers.NewUserHandler(userRepo, ideaRepo, leaderboard, cfg.RequestTimeout),
		Ideas: handlers.NewIdeaHandler(ideaRepo, assigner, cfg.RequestTimeout),
	}, cfg.CORSOrigins, authMiddleware)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shut down: %v", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (database.Store, error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Println("Using in-memory store, data will not survive a restart")
		return database.NewMemoryStore(), nil
	}
	store, err := database.ConnectDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func initFirebaseAuth(ctx context.Context, keyData string) (middleware.TokenVerifier, error) {
	var parsedKeyData map[string]interface{}
	if err := json.Unmarshal([]byte(keyData), &parsedKeyData); err != nil {
		return nil, fmt.Errorf("error unmarshalling key data: %w", err)
	}
	if privateKey, ok := parsedKeyData["private_key"].(string); ok {
		parsedKeyData["private_key"] = strings.ReplaceAll(privateKey, "\\n", "\n")
	}
	parsedKeyDataString, err := json.Marshal(parsedKeyData)
	if err != nil {
		return nil, fmt.Errorf("error marshalling key data: %w", err)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsJSON(parsedKeyDataString))
	if err != nil {
		return nil, fmt.Errorf("error initializing app: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Auth client: %w", err)
	}
	return authClient, nil
}
