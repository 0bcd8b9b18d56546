// Package api serves the marketplace HTTP surface: JSON endpoints for
// the SPA views, a WebSocket feed of marketplace activity and the usual
// health/metrics/status plumbing.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"near-sft-market/internal/domain"
	"near-sft-market/internal/observability"
	"near-sft-market/internal/sft"
	"near-sft-market/internal/storage"
)

// Market is the marketplace surface the handlers call.
// Implemented by sft.Service.
type Market interface {
	Mint(ctx context.Context, req *sft.MintRequest) (*sft.MintResult, error)
	ListAllClasses(ctx context.Context) []*domain.TokenClass
	InventoryOf(ctx context.Context, accountID string) domain.Inventory
	Approve(ctx context.Context, classID, amount string) (string, error)
	Revoke(ctx context.Context, classID string) (string, error)
	FindApprovedSellers(ctx context.Context, classID string, candidates []string) map[string]string
	Buy(ctx context.Context, classID, sellerID string) (string, error)
	Transfer(ctx context.Context, classID, receiverID, amount string) (string, error)
}

// Wallet is the session surface the handlers call.
// Implemented by wallet.Session.
type Wallet interface {
	SignIn(ctx context.Context) error
	SignOut()
	IsSignedIn() bool
	AccountID() string
	AccountBalance(ctx context.Context) string
}

// Options configures a Server. Classes and Events are optional fallbacks
// for read endpoints. A shared Hub may be passed in so event producers
// created before the server can publish to it; otherwise one is created.
type Options struct {
	Market  Market
	Wallet  Wallet
	Classes storage.ClassStore       // serves /api/classes when the chain is unreachable
	Events  storage.MarketEventStore // serves /api/activity
	Hub     *Hub
	Logger  *log.Logger
}

// Server wires the handlers onto a mux and tracks uptime for /status.
type Server struct {
	market  Market
	wallet  Wallet
	classes storage.ClassStore
	events  storage.MarketEventStore
	hub     *Hub
	logger  *log.Logger
	started time.Time

	mux *http.ServeMux
}

// NewServer creates a Server and registers all routes.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	hub := opts.Hub
	if hub == nil {
		hub = NewHub(logger)
	}
	s := &Server{
		market:  opts.Market,
		wallet:  opts.Wallet,
		classes: opts.Classes,
		events:  opts.Events,
		hub:     hub,
		logger:  logger,
		started: time.Now(),
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

// Hub returns the event hub so the service and the indexer can publish
// marketplace events to connected clients.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the root handler with request metrics applied.
func (s *Server) Handler() http.Handler {
	return s.withMetrics(s.mux)
}

func (s *Server) routes() {
	// Operational endpoints
	s.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	s.mux.Handle("GET /metrics", observability.Handler())
	s.mux.HandleFunc("GET /status", s.handleStatus)

	// Read endpoints
	s.mux.HandleFunc("GET /api/classes", s.handleClasses)
	s.mux.HandleFunc("GET /api/inventory/{account}", s.handleInventory)
	s.mux.HandleFunc("GET /api/sellers/{class}", s.handleSellers)
	s.mux.HandleFunc("GET /api/activity/{class}", s.handleActivity)
	s.mux.HandleFunc("GET /api/session", s.handleSession)

	// Change endpoints
	s.mux.HandleFunc("POST /api/session/signin", s.handleSignIn)
	s.mux.HandleFunc("POST /api/session/signout", s.handleSignOut)
	s.mux.HandleFunc("POST /api/mint", s.handleMint)
	s.mux.HandleFunc("POST /api/approve", s.handleApprove)
	s.mux.HandleFunc("POST /api/revoke", s.handleRevoke)
	s.mux.HandleFunc("POST /api/buy", s.handleBuy)
	s.mux.HandleFunc("POST /api/transfer", s.handleTransfer)

	// Live event feed
	s.mux.HandleFunc("GET /api/events", s.hub.handleSubscribe)
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	SignedIn  bool   `json:"signed_in"`
	AccountID string `json:"account_id,omitempty"`
	WSClients int    `json:"ws_clients"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:    "running",
		Uptime:    time.Since(s.started).String(),
		WSClients: s.hub.ClientCount(),
	}
	if s.wallet != nil {
		resp.SignedIn = s.wallet.IsSignedIn()
		resp.AccountID = s.wallet.AccountID()
	}
	writeJSON(w, http.StatusOK, resp)
}

// statusWriter captures the response code for request metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// WebSocket upgrades hijack the connection; the wrapper would
		// break the upgrade handshake.
		if r.URL.Path == "/api/events" {
			next.ServeHTTP(w, r)
			return
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		observability.RecordHTTPRequest(path, r.Method, strconv.Itoa(sw.status), time.Since(start).Seconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
