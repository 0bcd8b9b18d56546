// Package main runs the marketplace server:
// - HTTP API + WebSocket event feed for the storefront SPA
// - Indexer (continuous): mirrors token classes and seller candidates
// - Wallet session backed by a local NEAR credentials file
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"near-sft-market/internal/api"
	"near-sft-market/internal/domain"
	"near-sft-market/internal/indexer"
	"near-sft-market/internal/near"
	"near-sft-market/internal/observability"
	"near-sft-market/internal/pinning"
	"near-sft-market/internal/sft"
	"near-sft-market/internal/storage"
	chstore "near-sft-market/internal/storage/clickhouse"
	"near-sft-market/internal/storage/memory"
	"near-sft-market/internal/storage/migrations"
	pgstore "near-sft-market/internal/storage/postgres"
	"near-sft-market/internal/wallet"
)

// Server holds all components of the marketplace service.
type Server struct {
	// Configuration
	rpcEndpoint   string
	contract      string
	postgresDSN   string
	clickhouseDSN string
	useMemory     bool
	syncInterval  time.Duration
	httpAddr      string

	// Stores
	stores *allStores

	// Components
	session *wallet.Session
	service *sft.Service
	runner  *indexer.Runner
	apiSrv  *api.Server
	logger  *log.Logger
}

// allStores holds all storage implementations.
type allStores struct {
	classStore  storage.ClassStore
	sellerStore storage.SellerStore
	eventStore  storage.MarketEventStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("NEAR_RPC_ENDPOINT"), "NEAR RPC HTTP endpoint")
	contract := flag.String("contract", os.Getenv("SFT_CONTRACT"), "SFT marketplace contract account")
	credentialsFile := flag.String("credentials-file", os.Getenv("NEAR_CREDENTIALS_FILE"), "NEAR credentials JSON file")
	pinataAPIKey := flag.String("pinata-api-key", os.Getenv("PINATA_API_KEY"), "Pinata API key")
	pinataSecret := flag.String("pinata-secret", os.Getenv("PINATA_SECRET_KEY"), "Pinata secret key")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	syncInterval := flag.Duration("sync-interval", indexer.DefaultInterval, "Indexer polling interval")
	httpAddr := flag.String("http-addr", ":8080", "HTTP listen address")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if *contract == "" {
		logger.Fatal("--contract is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// RPC client and wallet session
	rpc := near.NewHTTPClient(*rpcEndpoint)
	session := wallet.NewSession(wallet.Options{
		RPC:             rpc,
		CredentialsPath: *credentialsFile,
		Logger:          log.New(os.Stdout, "[wallet] ", log.LstdFlags|log.Lshortfile),
	})
	if *credentialsFile != "" {
		// A missing or unauthorized key is not fatal: read endpoints
		// keep working, change endpoints reply 401 until sign-in.
		if err := session.SignIn(ctx); err != nil {
			logger.Printf("WARN: %v", err)
		} else {
			logger.Printf("Signed in as %s", session.AccountID())
		}
	}

	server := newServer(serverConfig{
		rpcEndpoint:   *rpcEndpoint,
		contract:      *contract,
		postgresDSN:   *postgresDSN,
		clickhouseDSN: *clickhouseDSN,
		useMemory:     *useMemory,
		syncInterval:  *syncInterval,
		httpAddr:      *httpAddr,
		pinataAPIKey:  *pinataAPIKey,
		pinataSecret:  *pinataSecret,
	}, rpc, session, stores, logger)

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

type serverConfig struct {
	rpcEndpoint   string
	contract      string
	postgresDSN   string
	clickhouseDSN string
	useMemory     bool
	syncInterval  time.Duration
	httpAddr      string
	pinataAPIKey  string
	pinataSecret  string
}

// newServer wires the service, the indexer and the API server together.
// Marketplace events flow to the WebSocket hub from both producers.
func newServer(cfg serverConfig, rpc near.RPCClient, session *wallet.Session, stores *allStores, logger *log.Logger) *Server {
	pinner := pinning.NewClient(cfg.pinataAPIKey, cfg.pinataSecret)

	hub := api.NewHub(log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lshortfile))
	publish := func(e *domain.MarketEvent) { hub.Publish(e) }

	service := sft.NewService(sft.Options{
		RPC:      rpc,
		Signer:   session,
		Pinner:   pinner,
		Contract: cfg.contract,
		Sellers:  stores.sellerStore,
		Events:   stores.eventStore,
		OnEvent:  publish,
		Logger:   log.New(os.Stdout, "[sft] ", log.LstdFlags|log.Lshortfile),
	})

	apiSrv := api.NewServer(api.Options{
		Market:  service,
		Wallet:  session,
		Classes: stores.classStore,
		Events:  stores.eventStore,
		Hub:     hub,
		Logger:  log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lshortfile),
	})

	runner := indexer.New(indexer.Options{
		Chain:    service,
		Classes:  stores.classStore,
		Sellers:  stores.sellerStore,
		Events:   stores.eventStore,
		OnEvent:  publish,
		Interval: cfg.syncInterval,
		Logger:   log.New(os.Stdout, "[indexer] ", log.LstdFlags|log.Lshortfile),
	})

	return &Server{
		rpcEndpoint:   cfg.rpcEndpoint,
		contract:      cfg.contract,
		postgresDSN:   cfg.postgresDSN,
		clickhouseDSN: cfg.clickhouseDSN,
		useMemory:     cfg.useMemory,
		syncInterval:  cfg.syncInterval,
		httpAddr:      cfg.httpAddr,
		stores:        stores,
		session:       session,
		service:       service,
		runner:        runner,
		apiSrv:        apiSrv,
		logger:        logger,
	}
}

// createStores creates all required stores.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			classStore:  memory.NewClassStore(),
			sellerStore: memory.NewSellerStore(),
			eventStore:  memory.NewMarketEventStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	// ClickHouse
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	stores := &allStores{
		// PostgreSQL stores (current marketplace state)
		classStore:  pgstore.NewClassStore(pool),
		sellerStore: pgstore.NewSellerStore(pool),

		// ClickHouse store (append-only activity log)
		eventStore: chstore.NewMarketEventStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// Run starts the indexer and the HTTP server and blocks until the context
// is canceled or a component fails.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting marketplace server...")
	observability.StartUptimeTracking(ctx)

	errCh := make(chan error, 2)

	// Start indexer in background
	go func() {
		err := s.runner.Run(ctx)
		if err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("indexer: %w", err)
		}
	}()

	// Start HTTP server in background
	httpSrv := &http.Server{Addr: s.httpAddr, Handler: s.apiSrv.Handler()}
	go func() {
		s.logger.Printf("Starting HTTP server on %s", s.httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// loadEnvFile loads .env from the working directory without overriding
// variables already present in the environment.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
