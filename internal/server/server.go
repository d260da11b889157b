// Package server exposes the run-coach tool surface over the Model Context
// Protocol: activity sync and cache queries, aggregate statistics, and CRUD
// for user-authored goals and races.
package server

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/cache"
	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/logging"
	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/store"
	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/strava"
)

// ptr returns a pointer to the given value - useful for optional fields in structs
func ptr[T any](v T) *T {
	return &v
}

// ActivityFetcher is the remote activity source consumed by the live-fetch
// tools. *strava.Client satisfies it; tests substitute a fake.
type ActivityFetcher interface {
	FetchAll(ctx context.Context, opts strava.FetchOptions) ([]strava.Activity, error)
	FetchPage(ctx context.Context, perPage, page int, opts strava.FetchOptions) ([]strava.Activity, error)
}

// Server wraps the MCP server, the remote fetcher, the activity cache, and
// the planning-record store.
type Server struct {
	mcp     *mcp.Server
	fetcher ActivityFetcher
	cache   *cache.Store
	store   *store.Store
	now     func() time.Time
}

// MCPServer returns the underlying MCP server (for use with HTTP/SSE transport)
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// New creates the MCP server and registers every tool.
func New(fetcher ActivityFetcher, cacheStore *cache.Store, planStore *store.Store) *Server {
	logging.Info("MCP server initializing", "name", "runcoach-mcp", "version", "1.0.0")

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "runcoach-mcp",
		Version: "1.0.0",
	}, nil)

	s := &Server{
		mcp:     mcpServer,
		fetcher: fetcher,
		cache:   cacheStore,
		store:   planStore,
		now:     time.Now,
	}

	logging.Debug("Registering MCP tools")
	s.registerActivityTools()
	s.registerPlanningTools()

	logging.Info("MCP server initialized", "tools_registered", 12)
	return s
}

// Run starts the MCP server over stdio transport
func (s *Server) Run(ctx context.Context) error {
	logging.Info("MCP server starting")
	defer logging.Info("MCP server stopped")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}
