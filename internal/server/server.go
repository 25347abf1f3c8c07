// Package server exposes the question pipeline over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sellerpulse/internal/handlers"
	"sellerpulse/internal/logging"
	"sellerpulse/internal/pipeline"
	"sellerpulse/internal/session"
)

// ChatRequest is the /chatbot request body. The optional date and asin
// fields preseed the pipeline and bypass extraction for those fields.
type ChatRequest struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"session_id"`

	DateStart        string `json:"date_start"`
	DateEnd          string `json:"date_end"`
	CompareDateStart string `json:"compare_date_start"`
	CompareDateEnd   string `json:"compare_date_end"`
	ASIN             string `json:"asin"`
}

// ChatResponse is the /chatbot response body.
type ChatResponse struct {
	Response  string `json:"response"`
	Category  string `json:"category"`
	SessionID string `json:"session_id"`

	DateStart        string `json:"date_start,omitempty"`
	DateEnd          string `json:"date_end,omitempty"`
	CompareDateStart string `json:"compare_date_start,omitempty"`
	CompareDateEnd   string `json:"compare_date_end,omitempty"`
	ASIN             string `json:"asin,omitempty"`

	NormalizerValid   bool `json:"normalizer_valid"`
	NormalizerRetries int  `json:"normalizer_retries"`
}

// Server wires the pipeline, handler router, and session store behind a
// gin engine.
type Server struct {
	engine       *gin.Engine
	pipeline     *pipeline.Pipeline
	router       *handlers.Router
	sessions     *session.Store
	historyTurns int
	logger       *zap.Logger

	// now supplies the reference date for relative labels; swapped in
	// tests for deterministic calendars.
	now func() time.Time
}

// New assembles the HTTP server.
func New(p *pipeline.Pipeline, router *handlers.Router, sessions *session.Store, historyTurns int, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		engine:       gin.Default(),
		pipeline:     p,
		router:       router,
		sessions:     sessions,
		historyTurns: historyTurns,
		logger:       logging.For(logging.ComponentServer),
		now:          time.Now,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.POST("/chatbot", s.handleChat)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	ctx := c.Request.Context()

	sessionID := req.SessionID
	if sessionID == "" {
		id, err := s.sessions.NewSession(ctx)
		if err != nil {
			s.logger.Error("failed to create session", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session creation failed"})
			return
		}
		sessionID = id
	}

	history, err := s.sessions.RecentTurns(ctx, sessionID, s.historyTurns)
	if err != nil {
		s.logger.Warn("failed to load history, continuing without it", zap.Error(err))
		history = nil
	}

	state, err := s.pipeline.Run(ctx, req.Question, s.now(), pipeline.Preseeded{
		DateStart:        req.DateStart,
		DateEnd:          req.DateEnd,
		CompareDateStart: req.CompareDateStart,
		CompareDateEnd:   req.CompareDateEnd,
		ASIN:             req.ASIN,
	}, history)
	if err != nil {
		// Only caller cancellation reaches here.
		c.Status(http.StatusRequestTimeout)
		return
	}

	answer, err := s.router.Dispatch(ctx, state)
	if err != nil {
		s.logger.Error("handler failed", zap.String("category", string(state.Category)), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch metrics"})
		return
	}

	s.recordTurns(sessionID, req.Question, answer, string(state.Category))

	c.JSON(http.StatusOK, ChatResponse{
		Response:          answer,
		Category:          string(state.Category),
		SessionID:         sessionID,
		DateStart:         state.DateStart,
		DateEnd:           state.DateEnd,
		CompareDateStart:  state.CompareDateStart,
		CompareDateEnd:    state.CompareDateEnd,
		ASIN:              state.ASIN,
		NormalizerValid:   state.NormalizerValid,
		NormalizerRetries: state.NormalizerRetries,
	})
}

// recordTurns persists the exchange. History is best-effort; a storage
// failure never fails the request. A fresh context is used so a client
// that disconnects after receiving the answer does not lose the turn.
func (s *Server) recordTurns(sessionID, question, answer, category string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.sessions.AppendTurn(ctx, sessionID, "user", question, category); err != nil {
		s.logger.Warn("failed to record user turn", zap.Error(err))
		return
	}
	if err := s.sessions.AppendTurn(ctx, sessionID, "assistant", answer, category); err != nil {
		s.logger.Warn("failed to record assistant turn", zap.Error(err))
	}
}

// Run starts the server on addr and blocks.
func (s *Server) Run(addr string) error {
	s.logger.Info("listening", zap.String("addr", addr))
	return s.engine.Run(addr)
}

// Engine exposes the gin engine for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
