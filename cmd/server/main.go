package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"stratus/internal/auth"
	"stratus/internal/blobstore"
	"stratus/internal/config"
	"stratus/internal/filetype"
	"stratus/internal/handler"
	"stratus/internal/middleware"
	"stratus/internal/repository/postgres"
	"stratus/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to setup log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier for Supabase authentication
	jwtVerifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Object storage
	blobs, err := blobstore.NewMinioStore(ctx, &cfg.MinIO, logger)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	folderRepo := postgres.NewFolderRepository(repoConfig)
	fileRepo := postgres.NewFileRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Identity provider admin client (root folder id caching)
	adminClient := auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseKey)

	// Initialize filetype registry
	filetypes, err := filetype.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize filetype registry: %v", err)
	}
	logger.Info("filetype registry initialized")

	// Create services
	folderService := service.NewFolderService(folderRepo, fileRepo, blobs, adminClient, txManager, logger)
	fileService := service.NewFileService(fileRepo, folderRepo, blobs, filetypes, logger)
	membership := service.NewMembershipValidator(folderRepo, fileRepo, logger)
	sharingService := service.NewSharingService(folderRepo, fileRepo, blobs, membership, logger)

	// Create handlers
	folderHandler := handler.NewFolderHandler(folderService, logger)
	fileHandler := handler.NewFileHandler(fileService, folderService, sharingService, logger)
	shareHandler := handler.NewShareHandler(sharingService, folderService, fileService, filetypes, cfg.PublicBaseURL, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Folder routes
	mux.HandleFunc("GET /api/folders/root", folderHandler.GetRootFolder)
	mux.HandleFunc("POST /api/folders", folderHandler.CreateFolder)
	mux.HandleFunc("GET /api/folders/{id}", folderHandler.GetFolder)
	mux.HandleFunc("GET /api/folders/{id}/tree", folderHandler.GetFolderTree)
	mux.HandleFunc("DELETE /api/folders/{id}", folderHandler.DeleteFolder)
	mux.HandleFunc("GET /api/breadcrumbs", folderHandler.GetBreadcrumbs)

	// File routes
	mux.HandleFunc("POST /api/files", fileHandler.Upload)
	mux.HandleFunc("GET /api/files/{id}/url", fileHandler.GetFileURL)
	mux.HandleFunc("DELETE /api/files/{id}", fileHandler.DeleteFile)

	// Share routes
	mux.HandleFunc("POST /api/share/folder/{id}", shareHandler.ShareFolder)
	mux.HandleFunc("POST /api/share/file/{id}", shareHandler.ShareFile)

	// Public share resolution (no auth; the token is the credential)
	mux.HandleFunc("GET /shared/folder/{token}", shareHandler.GetSharedFolder)
	mux.HandleFunc("GET /shared/folder/{token}/files/{fileId}", shareHandler.GetSharedFile)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	root = middleware.AuthMiddleware(jwtVerifier)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // uploads can be slow on large files
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
