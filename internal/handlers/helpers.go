package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hospital-records-server/internal/middleware"
	"hospital-records-server/internal/records"
	"hospital-records-server/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// respondSourceError maps record source failures to HTTP statuses.
func respondSourceError(c *gin.Context, log *zap.Logger, err error, what string) {
	switch {
	case errors.Is(err, records.ErrNotFound):
		utils.NotFound(c, what+" not found")
	case errors.Is(err, records.ErrRejected):
		utils.UnprocessableEntity(c, err.Error())
	case errors.Is(err, context.Canceled):
		c.Abort()
	case errors.Is(err, records.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		log.Warn("record source unavailable",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		utils.ServiceUnavailable(c, "Record service is temporarily unavailable")
	default:
		log.Error("record source failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		utils.InternalServerError(c, "internal server error")
	}
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			return v
		}
	}
	return defaultVal
}

// page applies ?offset= and ?limit= to n items and returns the slice bounds.
func page(c *gin.Context, n int) (int, int) {
	limit := parseQueryInt(c, "limit", defaultPageSize)
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	offset := parseQueryInt(c, "offset", 0)
	if offset > n {
		offset = n
	}
	end := offset + limit
	if end > n {
		end = n
	}
	return offset, end
}

// containsFold reports whether any of fields contains q, ignoring case.
func containsFold(q string, fields ...string) bool {
	q = strings.ToLower(q)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
