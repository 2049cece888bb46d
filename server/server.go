package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/haasonsaas/contactd/pkg/mailer"
	"github.com/haasonsaas/contactd/pkg/ratelimit"
	"github.com/rs/zerolog"
)

type Server struct {
	logger     zerolog.Logger
	limiter    *ratelimit.Limiter
	dispatcher *mailer.Dispatcher
	// deliveries is nil when the delivery log is disabled.
	deliveries *DeliveryStore
	hasher     KeyHasher
	adminToken string
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), withRequestContext(s.logger))

	r.NoMethod(func(c *gin.Context) {
		respondError(c, http.StatusMethodNotAllowed, msgMethodNotAllowed, s.logger)
	})
	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "Not found.", s.logger)
	})

	api := r.Group("/api")
	api.POST("/contact", s.handleContact)
	api.GET("/health", s.handleHealth)

	s.registerAdminRoutes(r)
	return r
}
