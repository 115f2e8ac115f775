package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autofixops/fixops-go/internal/domain"
	"github.com/autofixops/fixops-go/internal/ports"
)

type analyzeRequest struct {
	Log     string `json:"log" binding:"required"`
	Context string `json:"context"`
}

type executeRequest struct {
	Commands []string `json:"commands" binding:"required"`
}

type feedbackRequest struct {
	OriginalLog string `json:"original_log" binding:"required"`
	AppliedFix  string `json:"applied_fix" binding:"required"`
	NewLog      string `json:"new_log" binding:"required"`
}

type analysisResponse struct {
	RequestID string `json:"request_id"`
	domain.Analysis
	Outcome        string `json:"outcome"`
	ResponseTimeMS int64  `json:"response_time_ms"`
}

type feedbackResponse struct {
	RequestID string `json:"request_id"`
	domain.FeedbackVerdict
	Outcome string `json:"outcome"`
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body", c))
		return
	}
	if err := s.ready(); err != nil {
		c.JSON(http.StatusServiceUnavailable, errorBody(err.Error(), c))
		return
	}

	result, err := s.analyzeService.Run(c.Request.Context(), ports.AnalysisRequest{
		ErrorLog:  req.Log,
		Context:   req.Context,
		RequestID: requestID(c),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error(), c))
		return
	}

	c.JSON(http.StatusOK, analysisResponse{
		RequestID:      requestID(c),
		Analysis:       result.Analysis,
		Outcome:        string(result.Outcome.Kind),
		ResponseTimeMS: result.ResponseTimeMS,
	})
}

func (s *Server) handleExecute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body", c))
		return
	}

	results, err := s.diagnoseService.RunBatch(c.Request.Context(), requestID(c), req.Commands)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(err.Error(), c))
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) handleFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body", c))
		return
	}
	if err := s.ready(); err != nil {
		c.JSON(http.StatusServiceUnavailable, errorBody(err.Error(), c))
		return
	}

	result, err := s.analyzeService.EvaluateFix(c.Request.Context(), ports.FeedbackRequest{
		OriginalLog: req.OriginalLog,
		AppliedFix:  req.AppliedFix,
		NewLog:      req.NewLog,
		RequestID:   requestID(c),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(err.Error(), c))
		return
	}

	c.JSON(http.StatusOK, feedbackResponse{
		RequestID:       requestID(c),
		FeedbackVerdict: result.Verdict,
		Outcome:         string(result.Outcome.Kind),
	})
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleHealth(c *gin.Context) {
	snap := s.metrics.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"service":        "fixops",
		"ai_enabled":     s.ready() == nil,
		"uptime":         snap.UptimeHuman,
		"total_analyses": snap.Totals.Analyses,
	})
}

func errorBody(message string, c *gin.Context) gin.H {
	return gin.H{"error": message, "request_id": requestID(c)}
}
