// Package api exposes the services over GraphQL and serves the operational
// endpoints.
package api

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"commerce-graph/internal/auth"
	"commerce-graph/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/graph-gophers/graphql-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

//go:embed schema.graphql
var schemaSDL string

const (
	readyTimeout    = 2 * time.Second
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// TokenVerifier turns a bearer token into a caller
type TokenVerifier interface {
	Verify(token string) (auth.Caller, error)
}

// Pinger is a dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	schema *graphql.Schema
	tokens TokenVerifier
	checks map[string]Pinger
	logger *zap.Logger
}

// NewHandler parses the schema against the resolvers and creates a new HTTP
// handler. checks are pinged by /ready.
func NewHandler(svc Services, tokens TokenVerifier, checks map[string]Pinger) (*Handler, error) {
	schema, err := graphql.ParseSchema(schemaSDL, newResolver(svc), graphql.MaxDepth(10))
	if err != nil {
		return nil, fmt.Errorf("parse graphql schema: %w", err)
	}
	return &Handler{
		schema: schema,
		tokens: tokens,
		checks: checks,
		logger: util.Named("api"),
	}, nil
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/graphql", h.authMiddleware(), h.graphql)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every dependency and reports the first failure
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not ready",
				"dependency": name,
				"error":      err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

type graphqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// graphql executes a single operation. Resolver failures are reported in the
// errors array with a 200 status.
func (h *Handler) graphql(c *gin.Context) {
	var req graphqlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp := h.schema.Exec(c.Request.Context(), req.Query, req.OperationName, req.Variables)

	outcome := "success"
	if len(resp.Errors) > 0 {
		outcome = "error"
	}
	operation := req.OperationName
	if operation == "" {
		operation = "anonymous"
	}
	util.GraphQLOperationsTotal.WithLabelValues(operation, outcome).Inc()
	if outcome == "error" {
		h.logger.Debug("GraphQL operation failed",
			zap.String("operation", operation),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Int("errors", len(resp.Errors)))
	}

	c.JSON(http.StatusOK, resp)
}

// authMiddleware attaches the caller when the request carries a valid token.
// Requests without one continue anonymously.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if token == "" {
			c.Next()
			return
		}

		caller, err := h.tokens.Verify(token)
		if err != nil {
			h.logger.Debug("Ignoring invalid token", zap.Error(err))
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(auth.WithCaller(c.Request.Context(), caller))
		c.Next()
	}
}

// requestIDMiddleware keeps the caller's X-Request-ID or assigns a new one
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// prometheusMiddleware records latency and counts per route. Requests that
// match no route share one label.
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).
			Observe(time.Since(start).Seconds())
		util.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
