package server

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"roulette/internal/cache"
	"roulette/internal/database"
	"roulette/internal/feed"
	"roulette/internal/ledger"
	"roulette/internal/roulette"
	"roulette/internal/settlement"
)

type FiberServer struct {
	*fiber.App

	cfg    Config
	engine *settlement.Engine
	hub    *feed.Hub
	db     database.Service
	cache  cache.Service
}

// New builds the server from the environment: it connects the configured
// ledger backend, starts the live feed and wires the settlement engine.
func New() (*FiberServer, error) {
	cfg := LoadConfig()

	var (
		store ledger.Store
		db    database.Service
		rc    cache.Service
	)
	switch cfg.Backend {
	case BACKEND_POSTGRES:
		db = database.New()
		if err := db.Migrate(cfg.MigrationsPath); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		store = ledger.NewPostgresStore(db.Pool())
	case BACKEND_REDIS:
		var err error
		rc, err = cache.New()
		if err != nil {
			return nil, err
		}
		store = ledger.NewRedisStore(rc.Client())
	case BACKEND_MEMORY:
		log.Println("[SERVER] Using in-memory ledger, balances are lost on restart")
		store = ledger.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown LEDGER_BACKEND %q", cfg.Backend)
	}

	hub := feed.NewHub()
	go hub.Run()

	engine := settlement.NewEngine(store,
		roulette.NewCryptoGenerator(cfg.GeneratorTimeout),
		settlement.WithLimits(roulette.Limits{MaxStake: cfg.MaxStake}),
		settlement.WithStorageTimeout(cfg.StorageTimeout),
		settlement.WithPublisher(hub),
	)

	s := NewWithEngine(cfg, engine, hub)
	s.db = db
	s.cache = rc

	log.Printf("[SERVER] Roulette table ready (ledger: %s, max stake: %d)", cfg.Backend, cfg.MaxStake)
	return s, nil
}

// NewWithEngine builds the HTTP app around an already wired engine and hub.
func NewWithEngine(cfg Config, engine *settlement.Engine, hub *feed.Hub) *FiberServer {
	server := &FiberServer{
		App: fiber.New(fiber.Config{
			ServerHeader:  "roulette",
			AppName:       "roulette",
			ReadTimeout:   10 * time.Second,
			WriteTimeout:  10 * time.Second,
			IdleTimeout:   120 * time.Second,
			StrictRouting: false,
			ErrorHandler:  errorHandler,
		}),

		cfg:    cfg,
		engine: engine,
		hub:    hub,
	}

	server.App.Use(recover.New())
	if cfg.RateLimit > 0 {
		server.App.Use(limiter.New(limiter.Config{
			Max:          cfg.RateLimit,
			Expiration:   1 * time.Minute,
			KeyGenerator: rateLimitKey,
			LimitReached: func(c *fiber.Ctx) error {
				return writeError(c, fiber.StatusTooManyRequests, CODE_RATE_LIMITED, "too many requests")
			},
		}))
	}

	return server
}

// rateLimitKey limits per player where the caller is identified, per client
// address otherwise.
func rateLimitKey(c *fiber.Ctx) string {
	if id := c.Get(HEADER_PLAYER_ID); id != "" {
		return "player:" + id
	}
	return "ip:" + c.IP()
}

// Shutdown stops the HTTP listener and the live feed, then closes storage.
func (s *FiberServer) Shutdown() error {
	log.Println("[SERVER] Shutting down...")

	err := s.App.Shutdown()

	if s.hub != nil {
		s.hub.Stop()
	}
	if s.cache != nil {
		s.cache.Close()
	}
	if s.db != nil {
		s.db.Close()
	}

	return err
}
