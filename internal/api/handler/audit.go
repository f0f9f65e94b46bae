package handler

import (
	"net/http"
	"strconv"

	"strangerchat/backend/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecentAudit повертає найновіші записи аудиту, від нових до старих.
func (h *Handler) RecentAudit(c *gin.Context) {
	limit := h.Config.AuditPageDefault
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	if limit > h.Config.AuditPageMax {
		limit = h.Config.AuditPageMax
	}

	records, err := h.Storage.RecentAuditRecords(c.Request.Context(), limit)
	if err != nil {
		logger.Error("list audit records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load audit records"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"count":   len(records),
	})
}
