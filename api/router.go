// ABOUTME: HTTP router for the reference deal server
// ABOUTME: Wires CORS, request IDs and the deal/entity handlers onto a gin engine
package api

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

type requestIDKey struct{}

type RouterDeps struct {
	DB          *sql.DB
	ServiceName string
	Version     string
}

// SetGinMode switches gin to release mode outside development.
func SetGinMode(env string) {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
}

func NewRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders:   []string{requestIDHeader},
		MaxAge:          12 * time.Hour,
	}))

	health := &HealthHandler{serviceName: dep.ServiceName, version: dep.Version, db: dep.DB}
	r.GET("/health", health.HealthCheck)

	deals := &DealHandler{db: dep.DB}
	deals.RegisterRoutes(r)

	return r
}

// RequestIDMiddleware reuses the caller's X-Request-Id or mints one,
// echoes it back and logs one line per request.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if strings.TrimSpace(rid) == "" {
			rid = uuid.New().String()
		}

		c.Set("request_id", rid)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), requestIDKey{}, rid))
		c.Writer.Header().Set(requestIDHeader, rid)

		start := time.Now()
		c.Next()

		log.Printf("[req] id=%s method=%s path=%s status=%d latency=%s",
			rid, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// RequestID returns the id stored by RequestIDMiddleware.
func RequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	DB        string    `json:"db"`
}

type HealthHandler struct {
	serviceName string
	version     string
	db          *sql.DB
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	dbStatus := "up"
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "down"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		DB:        dbStatus,
	})
}
