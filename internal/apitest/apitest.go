// Package apitest runs the real API over a throwaway SQLite database for
// client-side tests.
package apitest

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"pomotodo/internal/client"
	"pomotodo/internal/db"
	"pomotodo/internal/router"
)

// Clock is a settable server clock.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

type Server struct {
	*httptest.Server
	Clock  *Clock
	Client *client.Client
}

func NewServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.RunMigrations(database, db.MigrationSource("")))

	clock := &Clock{current: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := httptest.NewServer(router.Build(database, clock.Now, nil, logger))
	t.Cleanup(server.Close)

	return &Server{
		Server: server,
		Clock:  clock,
		Client: client.NewWithHTTPClient(server.URL, server.Client()),
	}
}
