package server

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cardtracker/internal/broadcast"
	"cardtracker/internal/collection"
	"cardtracker/internal/config"
	"cardtracker/internal/db"
	"cardtracker/internal/descache"
	"cardtracker/internal/events"
	"cardtracker/internal/ledger"
	"cardtracker/internal/logger"
	"cardtracker/internal/memstore"
	"cardtracker/internal/metrics"
	"cardtracker/internal/progression"
	"cardtracker/internal/wshub"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// store is what every backend offers the engine.
type store interface {
	collection.Source
	collection.ActivityLog
	collection.Writer
	ledger.Store
	progression.GraceStore
}

// memAdapter adapts the in-memory store to CatalogWriter and ActivityFeed.
type memAdapter struct{ s *memstore.Store }

func (m memAdapter) PutDescriptor(_ context.Context, d collection.ItemDescriptor) error {
	m.s.PutDescriptor(d)
	return nil
}

func (m memAdapter) PutSet(_ context.Context, ref collection.SetReference) error {
	m.s.PutSet(ref)
	return nil
}

func (m memAdapter) Activity(_ context.Context, collectorID string, limit int) ([]collection.ActivityEvent, error) {
	log := m.s.Activity(collectorID)
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}
	return log, nil
}

func Run() error {
	cfg := config.Load()
	logger.Init(cfg.Env)
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	srv := &Server{Metrics: m}

	var st store
	switch cfg.Store {
	case config.StoreMemory:
		mem := memstore.New()
		st = mem
		srv.Catalog = memAdapter{mem}
		srv.Feed = memAdapter{mem}
		logger.Info().Msg("using in-memory store, data is lost on restart")
	default:
		database, err := openDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		st = database
		srv.Catalog = database
		srv.Feed = database
		srv.Health = database
	}

	var source collection.Source = st
	if cfg.RedisAddr != "" {
		rdb, err := descache.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, descriptor caching disabled")
		} else {
			defer rdb.Close()
			cache := descache.New(st, rdb, cfg.DescriptorCacheTTL, m)
			source = cache
			srv.Cache = cache
		}
	}

	bus := events.NewBus()
	srv.Broadcaster = broadcast.NewBroadcaster(bus, m)
	srv.Hub = wshub.NewHub(m)
	go srv.Hub.Run(ctx, srv.Broadcaster.Subscribe(""))

	engine, err := progression.New(progression.Options{
		Source:             source,
		Activity:           st,
		Writer:             st,
		Ledger:             ledger.New(st),
		Grace:              st,
		Notifier:           bus,
		Metrics:            m,
		Location:           cfg.Location(),
		GraceDaysPerWeek:   cfg.GraceDaysPerWeek,
		CalendarWindowDays: cfg.StreakWindowDays,
	})
	if err != nil {
		return err
	}
	srv.Engine = engine
	srv.Limiter = NewIPRateLimiter(ctx, rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	httpSrv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}()

	logger.Info().Str("port", cfg.Port).Str("store", cfg.Store).Msg("server listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func openDB(ctx context.Context, cfg config.Config) (*db.DB, error) {
	var (
		database *db.DB
		err      error
	)
	if cfg.Store == config.StorePostgres {
		database, err = db.Open(ctx, db.Postgres, cfg.DatabaseURL)
	} else {
		database, err = db.Open(ctx, db.SQLite, cfg.SQLitePath)
	}
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}
