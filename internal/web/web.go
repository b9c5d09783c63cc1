// Package web exposes the trigger API: health, manual digest runs and
// today's events.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dalbo/briefingbot/internal/calendar"
	"github.com/dalbo/briefingbot/internal/clock"
	"github.com/dalbo/briefingbot/internal/config"
	"github.com/dalbo/briefingbot/internal/digest"
	"github.com/dalbo/briefingbot/internal/logging"
)

// Briefer is the slice of digest.Service the API needs.
type Briefer interface {
	Run(ctx context.Context, kind digest.Kind) error
	TodayEvents(ctx context.Context) ([]calendar.Event, error)
}

// Server wires the gin engine and its handlers.
type Server struct {
	cfg     *config.Config
	briefer Briefer
	zone    *clock.Zone
	engine  *gin.Engine
}

// NewServer builds the HTTP server. Basic auth, when configured with
// both a username and a password, covers everything except /health.
func NewServer(cfg *config.Config, briefer Briefer, zone *clock.Zone) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		cfg:     cfg,
		briefer: briefer,
		zone:    zone,
		engine:  gin.New(),
	}
	s.engine.Use(gin.Recovery())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api")
	if ba := s.cfg.BasicAuth; ba != nil && ba.Username != "" && ba.Password != "" {
		api.Use(gin.BasicAuth(gin.Accounts{ba.Username: ba.Password}))
	}
	api.POST("/digest", s.handleDigest)
	api.GET("/events", s.handleEvents)
}

// Handler returns the engine for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("http server listening", "addr", s.cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleDigest triggers a manual briefing run synchronously.
func (s *Server) handleDigest(c *gin.Context) {
	if err := s.briefer.Run(c.Request.Context(), digest.KindManual); err != nil {
		logging.Error("manual digest failed", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "delivered"})
}

type eventDTO struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	Location string `json:"location,omitempty"`
	Start    string `json:"start"`
	End      string `json:"end"`
	AllDay   bool   `json:"all_day"`
}

func (s *Server) handleEvents(c *gin.Context) {
	events, err := s.briefer.TodayEvents(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	out := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		out = append(out, eventDTO{
			ID:       ev.ID,
			Summary:  ev.Summary,
			Location: ev.Location,
			Start:    s.zone.In(ev.Start).Format(time.RFC3339),
			End:      s.zone.In(ev.End).Format(time.RFC3339),
			AllDay:   ev.AllDay,
		})
	}
	c.JSON(http.StatusOK, gin.H{"events": out})
}
