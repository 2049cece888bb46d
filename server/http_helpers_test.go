package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestWithRequestContextSetsID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withRequestContext(zerolog.Nop()))
	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = requestID(c)
		c.Status(http.StatusOK)
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	require.NotEmpty(t, seen)
	require.Equal(t, seen, resp.Header().Get(requestIDHeader))
}

func TestWithRequestContextKeepsCallerID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withRequestContext(zerolog.Nop()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "caller-id")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, "caller-id", resp.Header().Get(requestIDHeader))
}

func TestRespondErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	baseLogger := zerolog.Nop()
	r := gin.New()
	r.Use(withRequestContext(baseLogger))
	r.GET("/fail", func(c *gin.Context) {
		respondError(c, http.StatusBadRequest, "boom", baseLogger)
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/fail", nil))

	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.NotEmpty(t, resp.Header().Get(requestIDHeader))

	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, map[string]any{"success": false, "error": "boom"}, body)
}
