package main

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/haasonsaas/contactd/pkg/health"
)

// registerAdminRoutes exposes the delivery log. Nothing is mounted unless
// both an admin token and a database are configured.
func (s *Server) registerAdminRoutes(r *gin.Engine) {
	if s.adminToken == "" || s.deliveries == nil {
		return
	}
	admin := r.Group("/v1", s.requireAdmin)
	admin.GET("/deliveries", s.handleListDeliveries)
}

func (s *Server) requireAdmin(c *gin.Context) {
	authz := c.GetHeader("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		respondError(c, http.StatusUnauthorized, "missing bearer token", s.logger)
		return
	}
	token := strings.TrimPrefix(authz, "Bearer ")
	if !secureCompare(token, s.adminToken) {
		respondError(c, http.StatusUnauthorized, "invalid bearer token", s.logger)
		return
	}
	c.Next()
}

func (s *Server) handleListDeliveries(c *gin.Context) {
	limit := defaultDeliveryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, http.StatusBadRequest, "limit must be a positive integer", s.logger)
			return
		}
		limit = n
	}

	deliveries, err := s.deliveries.List(c.Request.Context(), limit)
	if err != nil {
		logger := requestLogger(c, s.logger)
		logger.Error().Err(err).Msg("list deliveries")
		respondError(c, http.StatusInternalServerError, "failed to list deliveries", s.logger)
		return
	}
	c.JSON(http.StatusOK, deliveries)
}

func (s *Server) handleHealth(c *gin.Context) {
	in := health.Inputs{
		MailConfigured: s.dispatcher.Configured(),
		RateLimitKeys:  s.limiter.Stats().Keys,
	}
	if s.deliveries != nil {
		in.DB = s.deliveries
	}

	status := health.Check(c.Request.Context(), in)
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
