package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/trunkline/trunkline/internal/assignment"
)

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, eng *assignment.Engine) {
	router.GET("/healthz", handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	conv := router.Group("/api/conversations")
	conv.POST("/:id/assign", handleAssign(eng))
	conv.POST("/:id/auto-assign", handleAutoAssign(eng))
	conv.POST("/:id/transfer", handleTransfer(eng))
	conv.POST("/:id/release", handleRelease(eng))

	router.PUT("/api/agents/:id/status", handleAgentStatus(eng))
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type assignRequest struct {
	AgentID    string `json:"agent_id" binding:"required"`
	AssignedBy string `json:"assigned_by" binding:"required"`
}

func handleAssign(eng *assignment.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req assignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		record, err := eng.AssignManual(c.Request.Context(), c.Param("id"), req.AgentID, req.AssignedBy)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

type autoAssignRequest struct {
	TenantID string `json:"tenant_id" binding:"required"`
	Priority string `json:"priority"`
}

func handleAutoAssign(eng *assignment.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req autoAssignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := eng.AssignAutomatic(c.Request.Context(), c.Param("id"), req.TenantID, req.Priority)
		if err != nil {
			writeError(c, err)
			return
		}
		// Non-assignment outcomes are accepted, not failed: the caller
		// decides whether to queue or retry.
		status := http.StatusOK
		if result.Outcome != assignment.OutcomeAssigned {
			status = http.StatusAccepted
		}
		c.JSON(status, result)
	}
}

type transferRequest struct {
	FromAgentID string `json:"from_agent_id" binding:"required"`
	ToAgentID   string `json:"to_agent_id" binding:"required"`
	Reason      string `json:"reason"`
}

func handleTransfer(eng *assignment.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req transferRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		record, err := eng.Transfer(c.Request.Context(), c.Param("id"), req.FromAgentID, req.ToAgentID, req.Reason)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

type releaseRequest struct {
	AgentID string `json:"agent_id" binding:"required"`
}

func handleRelease(eng *assignment.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req releaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := eng.Release(c.Request.Context(), c.Param("id"), req.AgentID); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"released": true})
	}
}

type agentStatusRequest struct {
	TenantID string `json:"tenant_id" binding:"required"`
	Status   string `json:"status" binding:"required"`
}

func handleAgentStatus(eng *assignment.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req agentStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err := eng.UpdateAgentStatus(c.Request.Context(), c.Param("id"), req.TenantID, req.Status)
		if err != nil {
			// Non-sentinel errors here are bad input (unknown status).
			if errors.Is(err, assignment.ErrAgentNotFound) {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": true})
	}
}

// writeError maps engine errors to HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, assignment.ErrConversationNotFound),
		errors.Is(err, assignment.ErrAgentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, assignment.ErrAgentNotEligible):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, assignment.ErrNotOwner),
		errors.Is(err, assignment.ErrAlreadyAssigned):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
