package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stockapi/internal/app"
	"stockapi/internal/config"
	"stockapi/internal/database"
	"stockapi/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the service schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	logger := zerolog.Nop()
	pool, err := database.NewPoolFromURL(ctx, connStr, dbConfig, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.EnsureSchema(ctx, pool, logger); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// CleanupDB removes all rows from every table.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`TRUNCATE category_product, products, categories, users, revoked_tokens RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}

// testConfig returns a configuration suitable for tests. Images are written
// below dir.
func testConfig(dir string) *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:  "integration-secret-0123456789abcdef",
			TokenTTL:   time.Hour,
			Issuer:     "stockapi-test",
			BcryptCost: bcrypt.MinCost,
		},
		Storage: config.StorageConfig{
			LocalDir:       dir,
			PublicURL:      "/images",
			MaxUploadBytes: 64 << 10,
		},
	}
}

// NewTestServer starts the full API against testDB.
func NewTestServer(t *testing.T, testDB *TestDB) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()
	cfg := testConfig(t.TempDir())

	images, err := storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.PublicURL, logger)
	if err != nil {
		t.Fatalf("failed to create image store: %v", err)
	}

	handler, err := app.NewHandler(testDB.Pool, images, cfg, logger)
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return server
}

// Client issues JSON requests against a test server.
type Client struct {
	t      *testing.T
	base   string
	Token  string
	client *http.Client
}

// NewClient creates a client for server.
func NewClient(t *testing.T, server *httptest.Server) *Client {
	return &Client{t: t, base: server.URL, client: server.Client()}
}

// Do sends body (JSON encoded unless it is a *bytes.Buffer) and returns the
// status code and raw response body.
func (c *Client) Do(method, path string, body interface{}, contentType string) (int, []byte) {
	c.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case *bytes.Buffer:
		reader = b
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			c.t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		c.t.Fatalf("failed to build request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("failed to read response: %v", err)
	}

	return resp.StatusCode, raw
}

// JSON sends a JSON request and decodes the response into out when non-nil.
func (c *Client) JSON(method, path string, body, out interface{}) int {
	c.t.Helper()

	status, raw := c.Do(method, path, body, "")
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			c.t.Fatalf("failed to decode %s %s response %q: %v", method, path, raw, err)
		}
	}
	return status
}

// Login registers (when needed) and logs in a user, storing the token on c.
func (c *Client) Login(name, email, password string) {
	c.t.Helper()

	c.JSON(http.MethodPost, "/v1/register", map[string]string{
		"name": name, "email": email, "password": password,
	}, nil)

	var resp struct {
		Token string `json:"token"`
	}
	status := c.JSON(http.MethodPost, "/v1/login", map[string]string{
		"email": email, "password": password,
	}, &resp)
	if status != http.StatusOK || resp.Token == "" {
		c.t.Fatalf("login failed with status %d", status)
	}
	c.Token = resp.Token
}
