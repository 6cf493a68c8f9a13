// Command taskman serves a token-authenticated task management API. It wires
// configuration, the database pool, migrations, services and the HTTP router,
// and shuts down gracefully on SIGINT/SIGTERM.
//
// @title Taskman API
// @version 1.0
// @description Token-authenticated REST API for managing tasks with optional file and image attachments.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_TOKEN' to authorize
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/user/taskman-go/apperror"
	"github.com/user/taskman-go/auth"
	"github.com/user/taskman-go/config"
	"github.com/user/taskman-go/db"
	_ "github.com/user/taskman-go/docs" // generated Swagger docs
	"github.com/user/taskman-go/storage"
	"github.com/user/taskman-go/tasks"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading it: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pool, err := db.NewDBPool(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to create database pool: %v", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(cfg.Database, "./migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	blobStore, err := storage.NewDiskStore(cfg.Storage.Root)
	if err != nil {
		log.Fatalf("Failed to initialize blob storage: %v", err)
	}

	userRepo := auth.NewPGUserRepository(pool)
	tokenRepo := auth.NewPGTokenRepository(pool)
	authService := auth.NewAuthService(userRepo, tokenRepo, *cfg.Auth)
	authHandlers := auth.NewHandlers(authService)

	taskRepo := tasks.NewPGTaskRepository(pool)
	taskService := tasks.NewTaskService(taskRepo, blobStore)
	taskHandlers := tasks.NewTaskHandler(taskService)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Convert any panic that slips past handler code into a structured 500.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				if rvr := recover(); rvr != nil {
					log.Printf("Panic: %+v", rvr)
					writeError(ww, apperror.NewInternalError("internal server error", nil))
				}
			}()
			next.ServeHTTP(ww, r)
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Uploaded blobs are publicly readable under /storage/.
	fileServer := http.StripPrefix("/storage/", http.FileServer(http.Dir(blobStore.Root())))
	r.Get("/storage/*", fileServer.ServeHTTP)

	r.Post("/register", authHandlers.HandleRegister())
	r.Post("/login", authHandlers.HandleLogin())

	r.Group(func(r chi.Router) {
		r.Use(auth.TokenMiddleware(tokenRepo))
		r.Post("/logout", authHandlers.HandleLogout())
	})

	// Task routes are public; only logout is gated behind auth. Protecting
	// them later means moving this Route call into the Group above.
	r.Route("/tasks", func(r chi.Router) {
		taskHandlers.RegisterRoutes(r)
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped gracefully")
}

// writeError is a local helper for the panic recovery middleware, kept here to
// avoid an import cycle with the handler packages.
func writeError(w http.ResponseWriter, appErr *apperror.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	if err := json.NewEncoder(w).Encode(appErr.ToResponse()); err != nil {
		http.Error(w, `{"message":"failed to encode error response"}`, http.StatusInternalServerError)
	}
}
