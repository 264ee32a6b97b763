// Package ui serves the dashboard REST API and drives the presentation
// tick loop that folds queued events into shared state.
package ui

import (
	"context"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alfathangn/streetlight-dashboard3/internal/state"
)

// ConnectionControl is the slice of the supervisor the API needs.
type ConnectionControl interface {
	Start()
	Disconnect()
	LastAttempt() time.Time
}

// CommandSender delivers one control command, blocking until sent or failed.
type CommandSender interface {
	Publish(command string) error
}

type Server struct {
	g      *state.Global
	conn   ConnectionControl
	sender CommandSender
	engine *gin.Engine
}

func NewServer(g *state.Global, conn ConnectionControl, sender CommandSender) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{g: g, conn: conn, sender: sender, engine: engine}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine { return s.engine }

// Run blocks until the process lifecycle stops, then drains in-flight
// requests before returning.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:    s.g.Config.UI.ListenAddr,
		Handler: s.engine,
	}

	errch := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errch <- err
		}
		close(errch)
	}()
	s.g.Log.Infof("ui listen=%s", s.g.Config.UI.ListenAddr)

	select {
	case err := <-errch:
		return err
	case <-s.g.Alive.StopChan():
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.g.BuildVersion})
	})

	api := s.engine.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/latest", s.handleLatest)
	api.GET("/readings", s.handleReadings)
	api.GET("/stats", s.handleStats)
	api.GET("/export.csv", s.handleExportCSV)
	api.POST("/connect", s.handleConnect)
	api.POST("/disconnect", s.handleDisconnect)
	api.POST("/reset", s.handleReset)
	api.POST("/command", s.handleCommand)
}

func (s *Server) handleStatus(c *gin.Context) {
	st := s.g.Status()
	c.JSON(http.StatusOK, gin.H{
		"connected":    st.Connected,
		"message":      st.Message,
		"last_error":   st.LastError,
		"last_attempt": s.conn.LastAttempt(),
		"log_len":      s.g.LogLen(),
		"dropped":      s.g.DecodeStat.Dropped.Value(),
	})
}

func (s *Server) handleLatest(c *gin.Context) {
	r := s.g.LastReading()
	if r == nil {
		c.JSON(http.StatusOK, gin.H{"reading": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reading": r})
}

func (s *Server) handleReadings(c *gin.Context) {
	limit := 0
	if ls := c.Query("limit"); ls != "" {
		parsed, err := strconv.Atoi(ls)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	readings := s.g.Snapshot(limit)
	c.JSON(http.StatusOK, gin.H{"count": len(readings), "readings": readings})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.g.Summary())
}

func (s *Server) handleConnect(c *gin.Context) {
	s.conn.Start()
	c.JSON(http.StatusOK, gin.H{"result": "connecting"})
}

func (s *Server) handleDisconnect(c *gin.Context) {
	s.conn.Disconnect()
	c.JSON(http.StatusOK, gin.H{"result": "disconnected"})
}

func (s *Server) handleReset(c *gin.Context) {
	s.g.ResetLog()
	c.JSON(http.StatusOK, gin.H{"result": "reset"})
}

type commandRequest struct {
	Command string `json:"command" binding:"required"`
}

func (s *Server) handleCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// command is free-form, same contract as the control topic itself
	if err := s.sender.Publish(req.Command); err != nil {
		s.g.Log.Errorf("ui command=%s err=%v", req.Command, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "sent", "command": req.Command})
}
