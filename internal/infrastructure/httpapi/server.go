package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"HousingAlerts/internal/domain"
	"HousingAlerts/internal/ports"
)

// RunTrigger starts runs and exposes their recorded outcomes.
type RunTrigger interface {
	Ingest(ctx context.Context) domain.RunOutcome
	Dispatch(ctx context.Context, frequency domain.Frequency) domain.RunOutcome
	Recent(n int) []domain.RunOutcome
}

// SearchMatcher runs one saved search against the listing store.
type SearchMatcher interface {
	ForSearch(ctx context.Context, s domain.SavedSearch, limit int) ([]domain.Match, error)
}

// Deps wires the collaborators of the ops server.
type Deps struct {
	Runs          RunTrigger
	Searches      ports.SearchRepository
	Matcher       SearchMatcher
	AllowedOrigin string
	PreviewLimit  int
	Logger        *slog.Logger
}

// Server is the ops HTTP surface: health, manual run triggers, run history and search previews.
type Server struct {
	engine  *gin.Engine
	deps    Deps
	logger  *slog.Logger
	baseCtx context.Context
}

// NewServer builds the router. Callers pick the gin mode.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{engine: gin.New(), deps: deps, logger: deps.Logger, baseCtx: context.Background()}

	s.engine.Use(gin.Recovery(), s.requestLogger())
	if deps.AllowedOrigin != "" {
		s.engine.Use(cors.New(cors.Config{
			AllowOrigins:     []string{deps.AllowedOrigin},
			AllowMethods:     []string{"GET", "POST"},
			AllowHeaders:     []string{"Origin", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	s.engine.GET("/healthz", s.health)
	s.engine.POST("/runs/ingest", s.triggerIngest)
	s.engine.POST("/runs/dispatch/:frequency", s.triggerDispatch)
	s.engine.GET("/runs", s.listRuns)
	s.engine.GET("/searches/:id/results", s.searchResults)

	return s
}

// Handler exposes the router for tests and custom servers.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.baseCtx = ctx
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

func (s *Server) triggerIngest(c *gin.Context) {
	s.trigger(c, func(ctx context.Context) domain.RunOutcome {
		return s.deps.Runs.Ingest(ctx)
	})
}

func (s *Server) triggerDispatch(c *gin.Context) {
	frequency, err := domain.ParseFrequency(c.Param("frequency"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.trigger(c, func(ctx context.Context) domain.RunOutcome {
		return s.deps.Runs.Dispatch(ctx, frequency)
	})
}

// trigger runs in the background unless ?wait=true, in which case the outcome is returned.
func (s *Server) trigger(c *gin.Context, run func(context.Context) domain.RunOutcome) {
	if s.deps.Runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "runs are not configured"})
		return
	}

	if c.Query("wait") != "true" {
		ctx := s.baseCtx
		go run(ctx)
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
		return
	}

	outcome := run(c.Request.Context())
	c.JSON(statusFor(outcome), outcome)
}

func statusFor(o domain.RunOutcome) int {
	switch o.Status {
	case domain.RunSkipped:
		return http.StatusConflict
	case domain.RunFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

func (s *Server) listRuns(c *gin.Context) {
	if s.deps.Runs == nil {
		c.JSON(http.StatusOK, []domain.RunOutcome{})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}
	c.JSON(http.StatusOK, s.deps.Runs.Recent(limit))
}

func (s *Server) searchResults(c *gin.Context) {
	if s.deps.Searches == nil || s.deps.Matcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search preview is not configured"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid search id"})
		return
	}

	search, err := s.deps.Searches.SearchByID(c.Request.Context(), id)
	if errors.Is(err, ports.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Search not found"})
		return
	}
	if err != nil {
		s.logger.Error("load search", "search_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load search"})
		return
	}

	matches, err := s.deps.Matcher.ForSearch(c.Request.Context(), search, s.deps.PreviewLimit)
	if errors.Is(err, domain.ErrRadiusWithoutAnchor) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.logger.Error("match search", "search_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to match listings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"search":   newSearchView(search),
		"listings": newListingViews(matches),
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
