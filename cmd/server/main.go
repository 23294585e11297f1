package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"minichess/internal/auth"
	"minichess/internal/config"
	"minichess/internal/db"
	"minichess/internal/eventbus"
	"minichess/internal/handlers"
	"minichess/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Load configuration
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting minichess records server in %s mode", cfg.Environment)

	// Connect to MongoDB
	mongodb, err := db.NewMongoDB(cfg.MongoDB.URI, cfg.MongoDB.Database)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mongodb.Close(ctx)
	}()

	log.Printf("Connected to MongoDB database: %s", cfg.MongoDB.Database)

	jwtService := auth.NewJWTService(cfg.JWT.AccessSecret, time.Duration(cfg.JWT.AccessTTL)*time.Minute)
	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	feedHandler := handlers.NewFeedHandler()

	// Fan record feed events out to the other instances
	bus := eventbus.New(mongodb.FeedEvents(), feedHandler.Hub().BroadcastToUser)
	idxCtx, idxCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := bus.EnsureIndexes(idxCtx); err != nil {
		log.Printf("Warning: failed to create feed event index: %v", err)
	}
	idxCancel()
	bus.Start()
	defer bus.Stop()
	feedHandler.SetPublisher(bus)
	recordHandler := handlers.NewRecordHandler(db.NewRecordStore(mongodb), feedHandler)

	router := NewRouter(recordHandler, feedHandler, authMiddleware, rateLimiter, cfg.RateLimit.RecordsPerMinute)

	// CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.Frontend.URL},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      corsHandler.Handler(middleware.SecurityHeaders(router)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// NewRouter wires the records API and feed onto a mux router.
func NewRouter(
	records *handlers.RecordHandler,
	feed *handlers.FeedHandler,
	authMiddleware *middleware.AuthMiddleware,
	limiter *middleware.RateLimiter,
	perMinute int,
) *mux.Router {
	router := mux.NewRouter()

	// WebSocket routes
	router.HandleFunc("/ws/records/{userId}", feed.HandleFeed)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Reads are public
	api.HandleFunc("/games", records.ListRecords).Methods("GET")
	api.HandleFunc("/games/user/{userId}", records.ListUserRecords).Methods("GET")
	api.HandleFunc("/games/{id}", records.GetRecord).Methods("GET")

	// Writes need a token
	limit := limiter.IPRateLimitMiddleware(middleware.RateLimitConfig{MaxRequests: perMinute, Window: time.Minute})
	write := api.PathPrefix("/games").Subrouter()
	write.Use(authMiddleware.RequireAuth)
	write.Handle("", limit(http.HandlerFunc(records.CreateRecord))).Methods("POST")
	write.HandleFunc("/{id}", records.UpdateRecord).Methods("PATCH")
	write.HandleFunc("/{id}", records.DeleteRecord).Methods("DELETE")

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
