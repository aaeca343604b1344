//go:build e2e
// +build e2e

// Package e2e provides end-to-end tests for the gatehouse auth service.
// These tests run the full stack against a real PostgreSQL instance:
// signup, login, token-guarded requests, logout, and session revocation.
package e2e

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"testing"
	"time"

	"gatehouse/internal/config"
	"gatehouse/internal/database"
	"gatehouse/internal/handler"
	"gatehouse/internal/middleware"
	"gatehouse/internal/repository/postgres"
	"gatehouse/internal/service"
	"gatehouse/internal/token"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testJWTSecret  = "test-secret-key-32-characters-long!"
	testSessionTTL = 15 * time.Minute
)

var (
	testServer  *http.Server
	testDB      *sql.DB
	baseURL     string
	testContext context.Context
	cancelFunc  context.CancelFunc
)

// TestMain sets up the E2E test environment
func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	testContext = ctx
	cancelFunc = cancel

	// Setup test environment
	cleanup, err := setupTestEnvironment(ctx)
	if err != nil {
		log.Fatalf("failed to setup test environment: %v", err)
	}

	// Run tests
	code := m.Run()

	// Cleanup
	cleanup()
	cancel()

	os.Exit(code)
}

// setupTestEnvironment starts PostgreSQL and the auth server
func setupTestEnvironment(ctx context.Context) (func(), error) {
	var cleanups []func()

	// Start PostgreSQL
	pgContainer, pgCleanup, connStr, err := startPostgres(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start PostgreSQL: %w", err)
	}
	cleanups = append(cleanups, pgCleanup)
	_ = pgContainer

	// Connect to database
	testDB, err = sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	cleanups = append(cleanups, func() { testDB.Close() })

	// Run the real migrations, same as the server does at boot
	if err := database.RunMigrations(connStr); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Setup auth server
	serverCleanup, err := setupAuthServer(testDB)
	if err != nil {
		return nil, fmt.Errorf("failed to setup auth server: %w", err)
	}
	cleanups = append(cleanups, serverCleanup)

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	return cleanup, nil
}

// streamContainerLogs starts a goroutine that streams container logs to stdout with a prefix
func streamContainerLogs(ctx context.Context, container testcontainers.Container, prefix string) {
	go func() {
		reader, err := container.Logs(ctx)
		if err != nil {
			log.Printf("[%s] failed to get logs: %v", prefix, err)
			return
		}
		defer reader.Close()

		scanner := bufio.NewScanner(reader)
		for scanner.Scan() {
			log.Printf("[%s] %s", prefix, scanner.Text())
		}

		if err := scanner.Err(); err != nil && err != io.EOF {
			log.Printf("[%s] log reader error: %v", prefix, err)
		}
	}()
}

// startPostgres starts a PostgreSQL container for testing
func startPostgres(ctx context.Context) (testcontainers.Container, func(), string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithDeadline(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, nil, "", err
	}

	// Stream container logs
	streamContainerLogs(ctx, container, "PostgreSQL")

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		return nil, nil, "", err
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		container.Terminate(ctx)
		return nil, nil, "", err
	}

	connStr := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	// Wait for PostgreSQL to be fully ready
	time.Sleep(2 * time.Second)

	cleanup := func() {
		container.Terminate(ctx)
	}

	return container, cleanup, connStr, nil
}

// setupAuthServer creates and starts the auth server
func setupAuthServer(db *sql.DB) (func(), error) {
	// Create repositories
	userRepo := postgres.NewUserRepository(db)

	sessionRepo, err := postgres.NewSessionRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create session repository: %w", err)
	}

	issuer, err := token.NewIssuer(testJWTSecret, testSessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	authService := service.NewAuthService(userRepo, sessionRepo, issuer)
	validator := service.NewSessionValidator(sessionRepo)

	authHandler := handler.NewAuthHandler(authService, false)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.CORS([]string{"*"}))

	// Health endpoints (public)
	r.Get("/health", handler.Health)
	r.Get("/health/ready", handler.Ready(db))

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(issuer, validator))
			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/users/me", authHandler.Me)
		})
	})

	// Find an available port
	testPort := 18080
	baseURL = fmt.Sprintf("http://localhost:%d", testPort)

	// Start server
	testServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", testPort),
		Handler: r,
	}

	go func() {
		if err := testServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	time.Sleep(500 * time.Millisecond)

	// Verify server is running with improved error logging
	maxRetries := 20
	for i := 0; i < maxRetries; i++ {
		resp, err := http.Get(baseURL + "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			log.Printf("server started successfully after %d retries", i)
			break
		}
		if err != nil {
			log.Printf("health check attempt %d failed: %v", i+1, err)
		} else {
			log.Printf("health check attempt %d failed with status %d", i+1, resp.StatusCode)
			resp.Body.Close()
		}
		if i == maxRetries-1 {
			return nil, fmt.Errorf("server did not start in time after %d attempts", maxRetries)
		}
		time.Sleep(500 * time.Millisecond)
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		testServer.Shutdown(ctx)
	}

	return cleanup, nil
}

// getConfig returns a test configuration
func getConfig() *config.Config {
	return &config.Config{
		Environment:    "test",
		JWTSecret:      testJWTSecret,
		SessionTTL:     testSessionTTL,
		AllowedOrigins: "*",
	}
}
