package server

import (
	"context"

	"cardtracker/internal/broadcast"
	"cardtracker/internal/collection"
	"cardtracker/internal/metrics"
	"cardtracker/internal/progression"
	"cardtracker/internal/wshub"

	"github.com/gin-gonic/gin"
)

// CatalogWriter stores the reference data badges are computed from.
type CatalogWriter interface {
	PutDescriptor(ctx context.Context, d collection.ItemDescriptor) error
	PutSet(ctx context.Context, ref collection.SetReference) error
}

// CacheInvalidator drops cached reference data after it changes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, itemIDs, setIDs []string) error
}

// ActivityFeed lists a collector's recent activity, oldest first.
type ActivityFeed interface {
	Activity(ctx context.Context, collectorID string, limit int) ([]collection.ActivityEvent, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	Engine      *progression.Engine
	Catalog     CatalogWriter
	Feed        ActivityFeed
	Cache       CacheInvalidator // nil without Redis
	Health      Pinger           // nil for the in-memory store
	Hub         *wshub.Hub
	Broadcaster *broadcast.Broadcaster
	Metrics     *metrics.Metrics
	Limiter     *IPRateLimiter // nil disables rate limiting
}

// Router builds the gin engine with every route and middleware.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), loggingMiddleware(s.Metrics))

	r.GET("/health", s.handleHealth)
	if s.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))
	}

	api := r.Group("/")
	if s.Limiter != nil {
		api.Use(rateLimitMiddleware(s.Limiter, s.Metrics))
	}
	api.GET("/badges", s.handleListBadges)
	api.GET("/badges/:key", s.handleGetBadge)
	api.PUT("/sets/:id", s.handlePutSet)
	api.PUT("/descriptors/:id", s.handlePutDescriptor)

	c := api.Group("/collectors/:id")
	c.POST("/items", s.handleAddItem)
	c.POST("/evaluate", s.handleEvaluate)
	c.GET("/badges", s.handleListAwards)
	c.GET("/activity", s.handleActivity)
	c.GET("/progress", s.handleProgress)
	c.GET("/streak", s.handleStreak)
	c.GET("/grace-days", s.handleListGraceDays)
	c.POST("/grace-days", s.handleConsumeGraceDay)
	c.GET("/events", s.handleEvents)
	c.GET("/ws", s.handleWS)

	return r
}
