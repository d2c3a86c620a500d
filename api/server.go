package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"quote-funnel-go/api/websocket"
	"quote-funnel-go/config"
	"quote-funnel-go/db"
	"quote-funnel-go/email"
	"quote-funnel-go/funnel"
	"quote-funnel-go/ghl"
	"quote-funnel-go/notify"
	"quote-funnel-go/sms"
)

// WebSocket upgrader
var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS handled at middleware level
	},
}

// Runner executes one full funnel pass. The API layer never touches the
// browser itself.
type Runner interface {
	Run(ctx context.Context, req funnel.QuoteRequest) funnel.RunResult
}

// Server is the REST API server with WebSocket support.
type Server struct {
	cfg     *config.Config
	db      *db.DB
	runner  Runner
	hub     *websocket.Hub
	mailer  *email.Client
	texter  *sms.TwilioClient
	ops     *notify.Discord
	crm     *ghl.Client
	srv     *http.Server
	running chan struct{}
}

// NewServer wires the quote endpoint, history and WebSocket hub together.
func NewServer(cfg *config.Config, database *db.DB, runner Runner, hub *websocket.Hub,
	mailer *email.Client, texter *sms.TwilioClient, ops *notify.Discord, crm *ghl.Client) *Server {

	s := &Server{
		cfg:    cfg,
		db:     database,
		runner: runner,
		hub:    hub,
		mailer: mailer,
		texter: texter,
		ops:    ops,
		crm:    crm,
		// One browser session at a time; concurrent submissions queue here.
		running: make(chan struct{}, 1),
	}

	mux := http.NewServeMux()

	// Health check (unauthenticated)
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)

	// WebSocket endpoint (token via query param)
	mux.HandleFunc("GET /api/v1/ws", s.handleWebSocket)

	auth := s.authMiddleware
	mux.HandleFunc("POST /api/v1/quote", auth(s.handleQuote))
	mux.HandleFunc("GET /api/v1/history", auth(s.handleHistory))

	handler := s.corsMiddleware(mux)

	s.srv = &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// Funnel runs take minutes; the quote endpoint holds the request
		// open for the whole run.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Hub returns the WebSocket hub for external event publishing.
func (s *Server) Hub() *websocket.Hub {
	return s.hub
}

// handleWebSocket upgrades the HTTP connection to a WebSocket.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via query param ?token=...
	token := r.URL.Query().Get("token")
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.APIToken)) != 1 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := websocket.NewClient(s.hub, conn)
	go client.WritePump()
	go client.ReadPump()
}

// Start runs the API server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	log.Printf("API server starting on :%s", s.cfg.APIPort)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutdownCtx)
	}()

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("API server error: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","wsClients":%d}`, s.hub.ClientCount())
}

// --- Helpers ---

func jsonOK(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
