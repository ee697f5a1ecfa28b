package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/dom/task-manager/internal/api"
	"github.com/dom/task-manager/internal/auth"
	"github.com/dom/task-manager/internal/config"
	"github.com/dom/task-manager/internal/repository"
	"github.com/dom/task-manager/internal/repository/jsonfile"
	"github.com/dom/task-manager/internal/service"
	"github.com/dom/task-manager/internal/websocket"
	"golang.org/x/crypto/bcrypt"
)

// TestConfig returns a configuration suitable for testing
func TestConfig(storageDir string) *config.Config {
	return &config.Config{
		Port:                "0", // Random port
		Environment:         "test",
		AllowedOrigins:      []string{"http://localhost:3000"},
		LogLevel:            "disabled",
		StorageDir:          storageDir,
		BackupRetentionDays: 30,
		BackupPruneSchedule: "@daily",
		JWTSecret:           "test-jwt-secret-key-for-testing-only",
		JWTExpirationHours:  1,
		BcryptCost:          bcrypt.MinCost, // Fast hashing for tests
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *websocket.Hub
	Config   *config.Config
}

// NewTestServer creates a complete test server backed by a fresh storage
// directory under t.TempDir().
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	cfg := TestConfig(t.TempDir())

	repos, err := jsonfile.Open(context.Background(), cfg.StorageDir, auth.NewPasswordHasher(cfg.BcryptCost))
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}

	hub := websocket.NewHub()
	go hub.Run()

	services := service.NewServices(repos, cfg, hub)
	router := api.NewRouter(services, hub, cfg)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})

	return ts
}

// StoragePath returns the path of a file inside the server's storage directory
func (ts *TestServer) StoragePath(name string) string {
	return fmt.Sprintf("%s/%s", ts.Config.StorageDir, name)
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api%s", ts.Server.URL, path)
}

// WebSocketURL returns the WebSocket URL with token
func (ts *TestServer) WebSocketURL(token string) string {
	wsURL := "ws" + ts.Server.URL[4:] // Replace "http" with "ws"
	return fmt.Sprintf("%s/api/ws?token=%s", wsURL, token)
}
