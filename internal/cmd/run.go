package cmd

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/auth"
	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/cache"
	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/logging"
	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/server"
	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/store"
	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/strava"
)

// RuntimeConfig holds all runtime configuration from CLI flags
type RuntimeConfig struct {
	DataDir      string
	MCPPort      int
	SyncInterval time.Duration
	NoSync       bool
	ForceReauth  bool
}

// Run is the main entry point for the unified run mode
func Run(cfg *RuntimeConfig) error {
	log := logging.Logger

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("mcp_port", cfg.MCPPort).
		Bool("no_sync", cfg.NoSync).
		Dur("sync_interval", cfg.SyncInterval).
		Msg("starting strava-run-coach-mcp")

	// Set up context for shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	cacheStore := cache.NewStore(cfg.DataDir)
	planStore := store.New(cfg.DataDir)

	g, gCtx := errgroup.WithContext(ctx)

	var fetcher server.ActivityFetcher
	if cfg.NoSync {
		log.Info().Msg("running in offline mode (--no-sync), serving cached data only")
		fetcher = offlineFetcher{}
	} else {
		tokenStore := auth.NewFileStore(cfg.DataDir)
		if err := ensureAuthenticated(ctx, tokenStore, cfg); err != nil {
			return fmt.Errorf("authentication: %w", err)
		}

		client := strava.NewClient(auth.NewProvider(tokenStore))
		fetcher = client

		if cfg.SyncInterval > 0 {
			refresher := newCacheRefresher(client, cacheStore, cfg.SyncInterval)
			g.Go(func() error {
				refresher.Run(gCtx)
				return nil
			})
		}
	}

	// Start MCP server
	srv := server.New(fetcher, cacheStore, planStore)

	var serverErr error
	if cfg.MCPPort > 0 {
		serverErr = runHTTPServer(ctx, srv.MCPServer(), cfg.MCPPort)
	} else {
		log.Info().Msg("MCP server running via stdio")
		serverErr = srv.Run(ctx)
	}

	cancel()
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Msg("background worker error during shutdown")
	}

	return serverErr
}

// offlineFetcher stands in for the Strava client when --no-sync is set.
// Tools that need the API fail with a clear message; cache-backed tools
// keep working.
type offlineFetcher struct{}

func (offlineFetcher) FetchAll(ctx context.Context, opts strava.FetchOptions) ([]strava.Activity, error) {
	return nil, fmt.Errorf("offline mode (--no-sync): Strava API access is disabled")
}

func (offlineFetcher) FetchPage(ctx context.Context, perPage, page int, opts strava.FetchOptions) ([]strava.Activity, error) {
	return nil, fmt.Errorf("offline mode (--no-sync): Strava API access is disabled")
}

// cacheRefresher periodically re-fetches the full activity history and
// overwrites the cache snapshot.
type cacheRefresher struct {
	client   *strava.Client
	cache    *cache.Store
	interval time.Duration
}

func newCacheRefresher(client *strava.Client, cacheStore *cache.Store, interval time.Duration) *cacheRefresher {
	return &cacheRefresher{client: client, cache: cacheStore, interval: interval}
}

// Run refreshes the cache on the configured interval until ctx is cancelled.
func (r *cacheRefresher) Run(ctx context.Context) {
	log := logging.Logger
	log.Info().Dur("interval", r.interval).Msg("starting background cache refresher")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("cache refresher shutting down")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *cacheRefresher) refresh(ctx context.Context) {
	log := logging.Logger

	start := time.Now()
	activities, err := r.client.FetchAll(ctx, strava.FetchOptions{})
	if err != nil {
		log.Warn().Err(err).Msg("background refresh failed")
		return
	}
	if err := r.cache.Save(activities); err != nil {
		log.Warn().Err(err).Msg("background refresh failed to save cache")
		return
	}

	log.Info().
		Int("activities", len(activities)).
		Dur("duration", time.Since(start)).
		Msg("background cache refresh complete")
}

// ensureAuthenticated makes sure usable tokens exist on disk, running the
// OAuth flow when they don't.
func ensureAuthenticated(ctx context.Context, tokenStore *auth.FileStore, cfg *RuntimeConfig) error {
	log := logging.Logger

	// If force reauth is requested, clear existing tokens and re-prompt
	if cfg.ForceReauth {
		log.Info().Msg("force re-authentication requested, clearing existing tokens")
		if err := tokenStore.Delete(); err != nil {
			log.Debug().Err(err).Msg("failed to delete existing tokens (may not exist)")
		}
	}

	if !cfg.ForceReauth {
		tokens, err := tokenStore.Load()
		if err != nil {
			return fmt.Errorf("loading tokens: %w", err)
		}
		if tokens != nil {
			log.Info().Msg("using existing authentication")
			return nil
		}
		log.Info().Msg("no authentication found, starting OAuth flow")
	}

	clientID, clientSecret, err := resolveCredentials()
	if err != nil {
		return err
	}

	return runOAuthFlow(ctx, tokenStore, clientID, clientSecret)
}

// resolveCredentials reads the Strava API credentials from the environment,
// loading a .env file first if one exists, and falls back to an interactive
// prompt.
func resolveCredentials() (string, string, error) {
	if err := godotenv.Load(); err == nil {
		logging.Debug("Loaded credentials from .env file")
	}

	clientID := strings.TrimSpace(os.Getenv("STRAVA_CLIENT_ID"))
	clientSecret := strings.TrimSpace(os.Getenv("STRAVA_CLIENT_SECRET"))
	if clientID != "" && clientSecret != "" {
		return clientID, clientSecret, nil
	}

	return promptForCredentials()
}

// promptForCredentials prompts the user to enter their Strava API credentials
func promptForCredentials() (string, string, error) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("\n=== Strava API Credentials Required ===")
	fmt.Println("Get your API credentials from: https://www.strava.com/settings/api")
	fmt.Println()

	fmt.Print("Enter your Client ID: ")
	clientID, err := reader.ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("reading client ID: %w", err)
	}
	clientID = strings.TrimSpace(clientID)

	if clientID == "" {
		return "", "", fmt.Errorf("client ID is required")
	}

	fmt.Print("Enter your Client Secret: ")
	clientSecret, err := reader.ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("reading client secret: %w", err)
	}
	clientSecret = strings.TrimSpace(clientSecret)

	if clientSecret == "" {
		return "", "", fmt.Errorf("client secret is required")
	}

	return clientID, clientSecret, nil
}

// runOAuthFlow performs the OAuth authentication flow with Strava
func runOAuthFlow(ctx context.Context, tokenStore *auth.FileStore, clientID, clientSecret string) error {
	log := logging.Logger

	fmt.Println("\n=== Strava Authentication Required ===")
	fmt.Println("A browser window will open for you to authorize this application.")
	fmt.Println("Press Enter to continue...")

	reader := bufio.NewReader(os.Stdin)
	reader.ReadString('\n')

	tokens, err := auth.Authenticate(ctx, clientID, clientSecret)
	if err != nil {
		return fmt.Errorf("OAuth flow failed: %w", err)
	}

	log.Info().
		Str("expires_at", time.Unix(tokens.ExpiresAt, 0).Format(time.RFC3339)).
		Msg("OAuth authentication successful")

	if err := tokenStore.Save(tokens); err != nil {
		return fmt.Errorf("saving tokens: %w", err)
	}

	fmt.Printf("\nAuthentication successful! Token expires: %s\n\n",
		time.Unix(tokens.ExpiresAt, 0).Format(time.RFC1123))

	return nil
}

// runHTTPServer runs the MCP server over HTTP/SSE
func runHTTPServer(ctx context.Context, mcpServer *mcp.Server, port int) error {
	log := logging.Logger

	handler := mcp.NewSSEHandler(func(r *http.Request) *mcp.Server {
		return mcpServer
	}, nil)

	addr := fmt.Sprintf(":%d", port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().
			Str("address", addr).
			Str("endpoint", fmt.Sprintf("http://localhost%s", addr)).
			Msg("MCP server running via HTTP/SSE")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down HTTP server")
		return httpServer.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}
