// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the pipeline over HTTP as a single JSON action
// endpoint: POST / with an "action" of ingest, ask, insights, or gaps.
// Implements: prd013-api (R1-R4); docs/ARCHITECTURE § HTTP Surface.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/literature-assistant/internal/answer"
	"github.com/pdiddy/literature-assistant/internal/ingest"
	"github.com/pdiddy/literature-assistant/pkg/types"
)

// Server dispatches pipeline actions over HTTP.
type Server struct {
	Ingest *ingest.Orchestrator
	Engine *answer.Engine
	Config types.PipelineConfig
	Log    *zap.SugaredLogger
}

type actionEnvelope struct {
	Action string `json:"action"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Router builds the gin engine with CORS, request-ID logging, and the
// action endpoint.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "Authorization", "X-Requested-With"},
	}))
	router.Use(s.requestLog())

	router.GET("/healthz", s.handleHealth)
	router.POST("/", s.handleAction)
	return router
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Header("X-Request-ID", requestID)
		start := time.Now()
		c.Next()
		s.Log.Infow("request",
			"requestId", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"vectorProvider": s.Ingest.Store.Name(),
		"embeddingModel": s.Ingest.Embedder.Model(),
	})
}

func (s *Server) handleAction(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "failed to read request body"})
		return
	}

	var envelope actionEnvelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &envelope); err != nil {
			c.JSON(http.StatusBadRequest, errorBody{Error: "request body is not valid JSON"})
			return
		}
	}
	action := strings.ToLower(strings.TrimSpace(envelope.Action))
	if action == "" {
		action = "ask"
	}

	switch action {
	case "ingest":
		s.doIngest(c, raw)
	case "ask":
		s.doAsk(c, raw)
	case "insights":
		s.doInsights(c, raw)
	case "gaps":
		s.doGaps(c, raw)
	default:
		c.JSON(http.StatusBadRequest, errorBody{
			Error: "Invalid action. Use 'ingest', 'ask', 'insights', or 'gaps'.",
		})
	}
}

func (s *Server) doIngest(c *gin.Context, raw []byte) {
	var req types.IngestRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid ingest request: %v", err)})
		return
	}
	settings := req.Resolve(s.Config.Ingest, s.Config.VectorStore.Namespace)

	report, err := s.Ingest.Run(c.Request.Context(), settings, logWriter{s.Log})
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) doAsk(c *gin.Context, raw []byte) {
	var req types.AskRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid ask request: %v", err)})
		return
	}
	settings := req.Resolve(s.Config.Retrieval, s.Config.VectorStore.Namespace)
	if strings.TrimSpace(settings.Question) == "" {
		c.JSON(http.StatusBadRequest, errorBody{Error: "question is required"})
		return
	}

	resp, err := s.Engine.Ask(c.Request.Context(), settings)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) doInsights(c *gin.Context, raw []byte) {
	var req types.InsightsRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid insights request: %v", err)})
		return
	}
	settings := req.Resolve(s.Config.Retrieval, s.Config.VectorStore.Namespace)

	resp, err := s.Engine.Insights(c.Request.Context(), settings)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) doGaps(c *gin.Context, raw []byte) {
	var req types.GapsRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid gaps request: %v", err)})
		return
	}
	settings := req.Resolve(s.Config.Retrieval, s.Config.VectorStore.Namespace)

	resp, err := s.Engine.Gaps(c.Request.Context(), settings)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.Log.Errorw("pipeline error", "error", err)
	c.JSON(http.StatusInternalServerError, errorBody{Error: fmt.Sprintf("Internal server error: %v", err)})
}

// logWriter routes ingest progress lines into the structured log.
type logWriter struct {
	log *zap.SugaredLogger
}

func (w logWriter) Write(p []byte) (int, error) {
	if line := strings.TrimSpace(string(p)); line != "" {
		w.log.Infow("ingest", "progress", line)
	}
	return len(p), nil
}
