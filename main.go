// Command sokoban runs the forklift puzzle game.
//
// Subcommands:
//  1. "server" (default) – HTTP server exposing the REST API, WebSocket and an /mcp HTTP endpoint
//  2. "mcp" – MCP stdio server that reuses a running API or starts an internal one
//  3. "play" – terminal UI on a local session
//  4. "validate" – check level files for format errors and solvability
//
// Flags control host/port, the level directory, the optional game journal,
// debug logging and optional ngrok tunneling for external access during
// development. Every flag can also be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/sokoban/api"
	"github.com/wricardo/sokoban/game/config"
	"github.com/wricardo/sokoban/game/journal"
	"github.com/wricardo/sokoban/game/service"
	"github.com/wricardo/sokoban/game/session"
	"github.com/wricardo/sokoban/transport/mcp"
	"github.com/wricardo/sokoban/transport/websocket"
	"github.com/wricardo/sokoban/ui"
	"github.com/wricardo/sokoban/validate"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Forklift Sokoban"
)

const defaultLevelsDir = "levels"

// options are the resolved global flags
type options struct {
	host         string
	port         int
	levelsDir    string
	dbPath       string
	ngrokEnabled bool
	ngrokAuth    string
	ngrokDomain  string
}

func (o options) addr() string {
	return fmt.Sprintf("%s:%d", o.host, o.port)
}

func optionsFrom(cmd *cli.Command) options {
	return options{
		host:         cmd.String("host"),
		port:         int(cmd.Int("port")),
		levelsDir:    cmd.String("levels-dir"),
		dbPath:       cmd.String("db"),
		ngrokEnabled: cmd.Bool("ngrok"),
		ngrokAuth:    cmd.String("ngrok-auth"),
		ngrokDomain:  cmd.String("ngrok-domain"),
	}
}

// services bundles what the subcommands share
type services struct {
	game     service.GameService
	sessions *session.Manager
	journal  *journal.SQLiteStore
}

func (s *services) Close() error {
	if s.journal != nil {
		return s.journal.Close()
	}
	return nil
}

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newCommand builds the CLI. The root command runs the server.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "sokoban",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "levels-dir",
				Value:   defaultLevelsDir,
				Usage:   "Directory containing levels",
				Sources: cli.EnvVars("LEVELS_DIR"),
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "SQLite file recording finished games (leaderboards are empty without it)",
				Sources: cli.EnvVars("SOKOBAN_DB"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			} else {
				log.SetFlags(log.LstdFlags)
			}
			return ctx, nil
		},
		Action: serverAction,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  serverAction,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server, starting an internal HTTP server when none is running",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					opts := optionsFrom(cmd)
					svcs, err := initializeServices(opts)
					if err != nil {
						return err
					}
					defer svcs.Close()
					return runStdioMCPWithInternalServer(ctx, svcs, opts)
				},
			},
			{
				Name:      "play",
				Usage:     "Play a level in the terminal",
				ArgsUsage: "[level]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					opts := optionsFrom(cmd)
					svcs, err := initializeServices(opts)
					if err != nil {
						return err
					}
					defer svcs.Close()
					return runTUI(ctx, svcs, cmd.Args().First())
				},
			},
			{
				Name:      "validate",
				Usage:     "Validate level files (every level in --levels-dir by default)",
				ArgsUsage: "[files...]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					files := cmd.Args().Slice()
					if len(files) == 0 {
						var err error
						files, err = levelFiles(resolveLevelsDir(cmd.String("levels-dir")))
						if err != nil {
							return err
						}
					}
					return runValidate(cmd.Root().Writer, files)
				},
			},
		},
	}
}

func serverAction(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)
	log.Printf("Starting %s v%s (mode: server)", AppName, Version)

	svcs, err := initializeServices(opts)
	if err != nil {
		return err
	}
	defer svcs.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sessionCleanupRoutine(ctx, svcs.sessions)
	return runHTTPServer(ctx, svcs, opts)
}

// resolveLevelsDir keeps an explicit or existing directory and otherwise
// falls back to the xdg data directory
func resolveLevelsDir(dir string) string {
	if _, err := os.Stat(dir); err == nil || dir != defaultLevelsDir {
		return dir
	}
	if path, err := xdg.SearchDataFile(filepath.Join("sokoban", "levels")); err == nil {
		return path
	}
	return dir
}

// initializeServices wires the level catalogue, session manager, optional
// journal and the game service
func initializeServices(opts options) (*services, error) {
	levels, err := config.NewManager(resolveLevelsDir(opts.levelsDir))
	if err != nil {
		return nil, fmt.Errorf("failed to create level manager: %w", err)
	}

	svcs := &services{
		sessions: session.NewManager(),
	}

	var serviceOpts []service.Option
	if opts.dbPath != "" {
		store, err := journal.OpenSQLite(opts.dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		svcs.journal = store
		serviceOpts = append(serviceOpts, service.WithJournal(store))
		log.Printf("Recording finished games in %s", opts.dbPath)
	}

	svcs.game = service.NewGameService(svcs.sessions, levels, serviceOpts...)
	return svcs, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(24 * time.Hour); removed > 0 {
				log.Printf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// newRouter combines the API server with the /mcp endpoint
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runHTTPServer serves the REST API, WebSocket hub and /mcp until ctx is
// cancelled. If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, svcs *services, opts options) error {
	hub := websocket.NewHub()
	go hub.Run(ctx)

	addr := opts.addr()
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	mainRouter := newRouter(api.NewServer(svcs.game, hub), mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if opts.ngrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, opts, mainRouter)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err = <-serveErr:
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Printf("HTTP server shutdown error: %v", shutdownErr)
	}

	wg.Wait()
	log.Println("Server stopped")
	return err
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is cancelled
func runNgrokTunnel(ctx context.Context, opts options, handler http.Handler) {
	if opts.ngrokAuth == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
		log.Printf("Using custom ngrok domain: %s", opts.ngrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.ngrokAuth))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	// Serve returns once the tunnel is closed
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// apiAvailable reports whether a game API answers at baseURL
func apiAvailable(baseURL string) bool {
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/api")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// startInternalServer serves the API on a random loopback port and returns
// its base URL. The server stops when ctx is cancelled.
func startInternalServer(ctx context.Context, svcs *services) (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to get available port: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	httpServer := &http.Server{Handler: api.NewServer(svcs.game, hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Internal HTTP server error: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		httpServer.Close()
	}()

	return fmt.Sprintf("http://%s", listener.Addr().String()), nil
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses an API
// already listening on the configured port and otherwise starts an internal
// one on a loopback port.
func runStdioMCPWithInternalServer(ctx context.Context, svcs *services, opts options) error {
	externalURL := fmt.Sprintf("http://localhost:%d", opts.port)
	log.Printf("Checking for external API server at %s...", externalURL)

	baseURL := externalURL
	if apiAvailable(externalURL) {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		internalURL, err := startInternalServer(ctx, svcs)
		if err != nil {
			return err
		}
		log.Printf("Internal HTTP server for MCP stdio on %s", internalURL)
		baseURL = internalURL
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Println("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// runTUI plays one in-process session in the terminal. Logs go to a file in
// the xdg state directory while the screen is in use.
func runTUI(ctx context.Context, svcs *services, levelName string) error {
	info, err := svcs.game.CreateSession(ctx, levelName)
	if err != nil {
		return err
	}

	theme, err := ui.LoadTheme()
	if err != nil {
		return err
	}

	if logPath, err := xdg.StateFile(filepath.Join("sokoban", "play.log")); err == nil {
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			defer f.Close()
			log.SetOutput(f)
			defer log.SetOutput(os.Stderr)
		}
	}

	log.Printf("Playing %s in session %s", info.LevelName, info.ID)
	return ui.Run(ui.NewServiceController(svcs.game, info.ID), theme)
}

// levelFiles lists the level files of a directory
func levelFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read level directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && config.IsLevelFile(entry.Name()) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// runValidate validates files and reports to w, failing when any is invalid
func runValidate(w io.Writer, files []string) error {
	if len(files) == 0 {
		return cli.Exit("no level files to validate", 1)
	}

	results := make([]validate.ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, validate.ValidateFile(file))
	}

	if !validate.Report(w, results) {
		return cli.Exit("some levels have errors", 1)
	}
	return nil
}
