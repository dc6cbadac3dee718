package api

import (
	"context"
	"log"
	"net/http"
	"strings"

	"routesolve/internal/auth"
	"routesolve/internal/config"
	"routesolve/internal/solver"
	"routesolve/internal/store"
	"routesolve/internal/webhooks"
)

type Server struct {
	Cfg    config.Config
	Store  store.Store
	Engine *solver.Engine
	Pub    *webhooks.Publisher
	Auth   *auth.Verifier
	Broker EventBroker
}

// NewServer wires the server from configuration. Without DATABASE_URL it
// uses the in-memory store; without REDIS_URL the in-memory broker.
func NewServer(cfg config.Config) (*Server, error) {
	var s store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := sp.Migrate(context.Background()); err != nil {
			return nil, err
		}
		s = sp
	}

	var broker EventBroker
	if cfg.RedisURL != "" {
		rb, err := NewRedisBroker(cfg.RedisURL)
		if err != nil {
			log.Printf("api: redis broker unavailable (%v), using in-memory broker", err)
			broker = NewBroker()
		} else {
			broker = rb
		}
	} else {
		broker = NewBroker()
	}

	var external *solver.ExternalSolver
	if cfg.ORToolsURL != "" {
		external = solver.NewExternalSolver(cfg.ORToolsURL)
	}

	return &Server{
		Cfg:    cfg,
		Store:  s,
		Engine: solver.NewEngine(external),
		Pub:    webhooks.NewPublisher(s),
		Auth:   auth.NewVerifier(cfg.APIKeys),
		Broker: broker,
	}, nil
}

// NewWebhookWorker creates the background webhook delivery worker.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
	return webhooks.NewWorker(s.Store)
}

func (s *Server) getPrincipal(r *http.Request) (auth.Principal, error) {
	key := r.Header.Get("X-API-Key")
	if key == "" {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			key = strings.TrimPrefix(h, "Bearer ")
		}
	}
	return s.Auth.Verify(key)
}
