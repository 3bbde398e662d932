package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"cardtracker/internal/apperr"
	"cardtracker/internal/badges"
	"cardtracker/internal/collection"
	"cardtracker/internal/logger"
	"cardtracker/internal/streak"
	"cardtracker/internal/wshub"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
)

func writeError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, apperr.Wrap(apperr.KindInvalidInput, err, "invalid request body"))
		return false
	}
	return true
}

// today reads an optional ?today=YYYY-MM-DD override.
func (s *Server) today(c *gin.Context) (streak.Date, bool) {
	raw := c.Query("today")
	if raw == "" {
		return s.Engine.Today(), true
	}
	d, err := streak.ParseDate(raw)
	if err != nil {
		writeError(c, apperr.InvalidInput("today must be YYYY-MM-DD"))
		return streak.Date{}, false
	}
	return d, true
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.Health != nil {
		if err := s.Health.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_error", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListBadges(c *gin.Context) {
	catalog := s.Engine.Catalog()
	cats := badges.Categories
	if raw := c.Query("category"); raw != "" {
		cat := badges.Category(raw)
		if !cat.Valid() {
			writeError(c, apperr.InvalidInput("unknown category %q", raw))
			return
		}
		cats = []badges.Category{cat}
	}
	out := []badges.Definition{}
	for _, cat := range cats {
		out = append(out, catalog.ByCategory(cat)...)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetBadge(c *gin.Context) {
	key := c.Param("key")
	def, ok := s.Engine.GetBadgeCatalogEntry(key)
	if !ok {
		writeError(c, apperr.NotFound("badge %q", key))
		return
	}
	c.JSON(http.StatusOK, def)
}

type putSetRequest struct {
	DisplayName    string `json:"display_name"`
	TotalItemCount int    `json:"total_item_count"`
}

func (s *Server) handlePutSet(c *gin.Context) {
	var req putSetRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.TotalItemCount < 0 {
		writeError(c, apperr.InvalidInput("total_item_count must not be negative"))
		return
	}
	ref := collection.SetReference{SetID: c.Param("id"), DisplayName: req.DisplayName, TotalItemCount: req.TotalItemCount}
	ctx := c.Request.Context()
	if err := s.Catalog.PutSet(ctx, ref); err != nil {
		writeError(c, err)
		return
	}
	s.invalidate(ctx, nil, []string{ref.SetID})
	c.JSON(http.StatusOK, ref)
}

type putDescriptorRequest struct {
	DisplayName  string   `json:"display_name" binding:"required"`
	CategoryTags []string `json:"category_tags"`
}

func (s *Server) handlePutDescriptor(c *gin.Context) {
	var req putDescriptorRequest
	if !bindJSON(c, &req) {
		return
	}
	d := collection.ItemDescriptor{ItemID: c.Param("id"), DisplayName: req.DisplayName, CategoryTags: req.CategoryTags}
	ctx := c.Request.Context()
	if err := s.Catalog.PutDescriptor(ctx, d); err != nil {
		writeError(c, err)
		return
	}
	s.invalidate(ctx, []string{d.ItemID}, nil)
	c.JSON(http.StatusOK, d)
}

func (s *Server) invalidate(ctx context.Context, itemIDs, setIDs []string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, itemIDs, setIDs); err != nil {
		logger.Warn().Err(err).Msg("cache invalidation failed")
	}
}

type addItemRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity"`
	Variant  string `json:"variant"`
}

func (s *Server) handleAddItem(c *gin.Context) {
	var req addItemRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := s.Engine.RecordItemAdded(c.Request.Context(), c.Param("id"), collection.OwnedItem{
		ItemID:   req.ItemID,
		Quantity: req.Quantity,
		Variant:  req.Variant,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

type evaluateRequest struct {
	Category string `json:"category"`
	Scope    string `json:"scope"`
}

// handleEvaluate evaluates one category, or all of them when the body names
// none.
func (s *Server) handleEvaluate(c *gin.Context) {
	var req evaluateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(c, apperr.Wrap(apperr.KindInvalidInput, err, "invalid request body"))
			return
		}
	}
	ctx := c.Request.Context()
	id := c.Param("id")

	if req.Category == "" {
		results, err := s.Engine.EvaluateAll(ctx, id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, results)
		return
	}
	res, err := s.Engine.EvaluateAndAward(ctx, id, badges.Category(req.Category), req.Scope)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleListAwards(c *gin.Context) {
	awards, err := s.Engine.ListAwards(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, awards)
}

const maxActivityLimit = 500

func (s *Server) handleActivity(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxActivityLimit {
			writeError(c, apperr.InvalidInput("limit must be between 1 and %d", maxActivityLimit))
			return
		}
		limit = n
	}
	log, err := s.Feed.Activity(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if log == nil {
		log = []collection.ActivityEvent{}
	}
	c.JSON(http.StatusOK, log)
}

func (s *Server) handleProgress(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	cat := c.Query("category")
	if cat == "" {
		all, err := s.Engine.GetAllProgress(ctx, id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, all)
		return
	}
	p, err := s.Engine.GetProgress(ctx, id, badges.Category(cat), c.Query("scope"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleStreak(c *gin.Context) {
	today, ok := s.today(c)
	if !ok {
		return
	}
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(c, apperr.InvalidInput("days must be a positive integer"))
			return
		}
		days = n
	}
	cal, err := s.Engine.GetStreakCalendar(c.Request.Context(), c.Param("id"), days, today)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cal)
}

func (s *Server) handleListGraceDays(c *gin.Context) {
	today, ok := s.today(c)
	if !ok {
		return
	}
	status, err := s.Engine.GraceDays(c.Request.Context(), c.Param("id"), today)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

type graceRequest struct {
	Date streak.Date `json:"date"`
}

func (s *Server) handleConsumeGraceDay(c *gin.Context) {
	var req graceRequest
	if !bindJSON(c, &req) {
		return
	}
	today, ok := s.today(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")

	out, err := s.Engine.ConsumeGraceDay(ctx, id, req.Date, today)
	if err != nil {
		writeError(c, err)
		return
	}
	if out.AlreadyUsed {
		c.JSON(http.StatusOK, gin.H{"grace": out, "awarded_keys": []string{}})
		return
	}
	// A bridged gap can lengthen the streak enough for a new badge.
	res, err := s.Engine.EvaluateAndAward(ctx, id, badges.CategoryStreak, "")
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"grace": out, "awarded_keys": res.AwardedKeys})
}

// handleEvents streams the collector's awards as server-sent events.
func (s *Server) handleEvents(c *gin.Context) {
	ch := s.Broadcaster.Subscribe(c.Param("id"))
	defer s.Broadcaster.Unsubscribe(ch)

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("badge", ev)
			return true
		}
	})
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	client := wshub.NewClient(c.Param("id"), conn)
	s.Hub.Register(client)
	defer s.Hub.Unregister(client)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go client.WritePump(ctx)

	if err := client.ReadPump(ctx); err != nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		logger.Debug().Err(err).Str("collector", client.CollectorID).Msg("websocket closed")
	}
}
