// Package server exposes the pipeline over HTTP: JSON API plus a websocket
// stream of findings as they are produced.
package server

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aholston/watchdogai/internal/hub"
	"github.com/aholston/watchdogai/internal/pipeline"
)

const version = "1.0.0"

// maxUploadBytes bounds a single analyze upload.
const maxUploadBytes = 64 << 20

// Server holds the Gin engine and its dependencies.
type Server struct {
	engine *gin.Engine
	pipe   *pipeline.Pipeline
	hub    *hub.Hub
	addr   string
}

// New creates an API server over the given pipeline. Findings produced by
// any operation are fanned out to websocket subscribers through the hub.
func New(p *pipeline.Pipeline, h *hub.Hub, addr string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine: engine,
		pipe:   p,
		hub:    h,
		addr:   addr,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/status", s.handleStatus)
	api.POST("/analyze", s.handleAnalyze)
	api.POST("/search", s.handleSearch)
	api.POST("/analyze-query", s.handleAnalyzeQuery)
	api.GET("/report", s.handleReport)

	s.engine.GET("/ws", s.handleWebSocket)
}

// Start runs the server. Blocks until the listener fails.
func (s *Server) Start() error {
	slog.Info("api server listening", "addr", s.addr)
	return s.engine.Run(s.addr)
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   version,
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.pipe.Status())
}

// handleAnalyze accepts a multipart log upload, runs the full pipeline over
// it, and returns the ingest result including extracted findings.
func (s *Server) handleAnalyze(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.pipe.Ingest(c.Request.Context(), content, fileHeader.Filename, c.PostForm("format"))
	if err != nil {
		writePipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleSearch(c *gin.Context) {
	var req struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	matches, err := s.pipe.Search(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		writePipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"query":   req.Query,
		"results": matches,
		"total":   len(matches),
	})
}

func (s *Server) handleAnalyzeQuery(c *gin.Context) {
	var req struct {
		Query   string `json:"query"`
		Context string `json:"context"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	finding, err := s.pipe.AnalyzeQuery(c.Request.Context(), req.Query, req.Context)
	if err != nil {
		writePipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, finding)
}

func (s *Server) handleReport(c *gin.Context) {
	rep := s.pipe.Report(c.Request.Context())
	if rep.TotalLogs == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no logs available for analysis"})
		return
	}
	c.JSON(http.StatusOK, rep)
}
