package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/pyramid-puzzle/api"
	"github.com/wricardo/pyramid-puzzle/game/config"
	"github.com/wricardo/pyramid-puzzle/game/prompt"
	"github.com/wricardo/pyramid-puzzle/game/service"
	"github.com/wricardo/pyramid-puzzle/game/session"
	"github.com/wricardo/pyramid-puzzle/transport/mcp"
	"github.com/wricardo/pyramid-puzzle/transport/websocket"
)

// services bundles everything the HTTP surfaces need
type services struct {
	puzzle      service.PuzzleService
	configs     *config.Manager
	sessions    *session.Manager
	persistence session.SessionPersistence
	hub         *websocket.Hub
	prompts     *prompt.Builder
}

// initializeServices wires scenario and session managers, the websocket hub
// and the puzzle service. The hub is returned stopped; callers run it.
func initializeServices(scenarioDir, sessionsDir, specsDir string) (*services, error) {
	configManager, err := config.NewManager(scenarioDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario manager: %w", err)
	}

	prompts, err := prompt.LoadBuilder(specsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt texts: %w", err)
	}

	svc := &services{
		configs: configManager,
		hub:     websocket.NewHub(),
		prompts: prompts,
	}

	if sessionsDir != "" {
		persistence, err := session.NewFilePersistence(sessionsDir, configManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		svc.persistence = persistence
		svc.sessions = session.NewManagerWithPersistence(persistence)

		if err := svc.sessions.LoadPersistedSessions(); err != nil {
			log.Warn().Err(err).Msg("failed to load persisted sessions")
		}
	} else {
		svc.sessions = session.NewManager()
	}

	svc.puzzle = service.NewPuzzleService(svc.sessions, configManager, svc.hub)
	return svc, nil
}

// startBackground runs the hub and the session maintenance loops until ctx
// is done.
func (s *services) startBackground(ctx context.Context) {
	go s.hub.Run()
	go func() {
		<-ctx.Done()
		s.hub.Stop()
	}()

	go sessionCleanupRoutine(ctx, s.sessions, s.hub, time.Hour, 24*time.Hour)
	if s.persistence != nil {
		go filesystemSyncRoutine(ctx, s.sessions, s.persistence, 5*time.Second)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP server with REST API, WebSocket and MCP endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "Directory for persisted sessions (empty keeps sessions in memory)", Sources: cli.EnvVars("SESSIONS_DIR")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, err := initializeServices(cmd.String("scenario-dir"), cmd.String("sessions-dir"), cmd.String("specs-dir"))
			if err != nil {
				return err
			}

			return runHTTPServer(ctx, svc, httpOptions{
				addr:        fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port")),
				ngrok:       cmd.Bool("ngrok"),
				ngrokAuth:   cmd.String("ngrok-auth"),
				ngrokDomain: cmd.String("ngrok-domain"),
			})
		},
	}
}

type httpOptions struct {
	addr        string
	ngrok       bool
	ngrokAuth   string
	ngrokDomain string
}

// newRouter mounts the API at the root and the MCP proxy at /mcp
func newRouter(svc *services, baseURL string) *http.ServeMux {
	apiServer := api.NewServer(svc.puzzle, svc.hub, svc.prompts)
	mcpClient := mcp.NewClient(baseURL)

	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/mcp", mcpHTTPHandler(mcpClient.GetMCPServer()))
	return mux
}

// mcpHTTPHandler answers single JSON-RPC MCP messages over HTTP POST
func mcpHTTPHandler(mcpServer *server.MCPServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}

		response := mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			log.Error().Err(err).Msg("failed to write MCP response")
		}
	}
}

// runHTTPServer serves until ctx is cancelled, optionally through an ngrok
// tunnel as well.
func runHTTPServer(ctx context.Context, svc *services, opts httpOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	svc.startBackground(ctx)
	router := newRouter(svc, "http://"+opts.addr)

	httpServer := &http.Server{
		Addr:         opts.addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info().Str("addr", opts.addr).
			Str("api", "http://"+opts.addr+"/api").
			Str("ws", "ws://"+opts.addr+"/ws?session=<session_id>").
			Str("mcp", "http://"+opts.addr+"/mcp").
			Msgf("%s v%s listening", AppName, Version)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
			cancel()
		}
	}()

	if opts.ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, router, opts.ngrokAuth, opts.ngrokDomain)
		}()
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if err := svc.sessions.SaveAllSessions(); err != nil {
		log.Warn().Err(err).Msg("failed to save sessions on shutdown")
	}

	wg.Wait()
	log.Info().Msg("server stopped")

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// runNgrokTunnel exposes handler on a public ngrok endpoint until ctx ends
func runNgrokTunnel(ctx context.Context, handler http.Handler, authToken, domain string) {
	if authToken == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
		return
	}

	tunnel := ngrokConfig.HTTPEndpoint()
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Info().Str("domain", domain).Msg("using custom ngrok domain")
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	url := tun.URL()
	log.Info().Str("url", url).Str("api", url+"/api").Str("mcp", url+"/mcp").Msg("ngrok tunnel established")

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// expiryNotifier tells a session's subscribers it was evicted
type expiryNotifier interface {
	BroadcastEvent(sessionID string, event string, data interface{})
}

// sessionCleanupRoutine periodically evicts sessions that have not been
// accessed within maxAge from memory.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, notifier expiryNotifier, every, maxAge time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expireSessions(manager, notifier, maxAge)
		}
	}
}

// expireSessions evicts idle sessions and sends an expired event to each
// one's watchers. It returns the evicted IDs.
func expireSessions(manager *session.Manager, notifier expiryNotifier, maxAge time.Duration) []string {
	removed := manager.CleanupExpiredSessions(maxAge)
	for _, id := range removed {
		notifier.BroadcastEvent(id, service.EventExpired, map[string]string{
			"reason": fmt.Sprintf("no activity for %s", maxAge),
		})
	}
	if len(removed) > 0 {
		log.Info().Int("count", len(removed)).Msg("cleaned up expired sessions")
	}
	return removed
}

// filesystemSyncRoutine drops sessions from memory whose files were deleted
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneOrphanedSessions(manager, persistence)
		}
	}
}

func pruneOrphanedSessions(manager *session.Manager, persistence session.SessionPersistence) int {
	pruned := 0
	for _, s := range manager.List() {
		if persistence.Exists(s.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(s.ID); err == nil {
			pruned++
			log.Debug().Str("session", s.ID).Msg("pruned session from memory (file deleted)")
		}
	}
	if pruned > 0 {
		log.Info().Int("count", pruned).Msg("filesystem sync pruned orphaned sessions")
	}
	return pruned
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:    "mcp",
		Aliases: []string{"stdio-mcp", "mcp-stdio"},
		Usage:   "Run an MCP stdio server backed by the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "REST API to proxy to when it is reachable", Sources: cli.EnvVars("API_URL")},
			&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "Directory for persisted sessions of the internal server", Sources: cli.EnvVars("SESSIONS_DIR")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			baseURL := cmd.String("api-url")

			if !apiReachable(baseURL) {
				log.Info().Str("url", baseURL).Msg("no external API server found, starting internal HTTP server")

				svc, err := initializeServices(cmd.String("scenario-dir"), cmd.String("sessions-dir"), cmd.String("specs-dir"))
				if err != nil {
					return err
				}
				internalURL, err := startInternalServer(ctx, svc)
				if err != nil {
					return err
				}
				baseURL = internalURL
			}

			log.Info().Str("api", baseURL).Msg("MCP stdio server ready")
			if err := server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer()); err != nil {
				return fmt.Errorf("MCP stdio server error: %w", err)
			}
			return nil
		},
	}
}

func apiReachable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalServer serves the API on a random loopback port and returns
// its base URL.
func startInternalServer(ctx context.Context, svc *services) (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to get available port: %w", err)
	}

	svc.startBackground(ctx)
	httpServer := &http.Server{Handler: api.NewServer(svc.puzzle, svc.hub, svc.prompts)}

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("internal HTTP server error")
		}
	}()
	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
		if err := svc.sessions.SaveAllSessions(); err != nil {
			log.Warn().Err(err).Msg("failed to save sessions on shutdown")
		}
	}()

	addr := listener.Addr().String()
	log.Info().Str("addr", addr).Msg("internal HTTP server started")
	return "http://" + addr, nil
}
