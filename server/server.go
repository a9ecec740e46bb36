// Package server exposes the catalog pipeline over HTTP: CORS and edge-cache
// headers, runtime parameter clamping, the debug flag, and error mapping.
package server

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gojocatalog/catalog"
	"gojocatalog/config"
)

// cacheControl tells the edge cache to serve a catalog snapshot for six
// hours and revalidate in the background for a day after that.
const cacheControl = "s-maxage=21600, stale-while-revalidate=86400"

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 60 * time.Second
	defaultIdleTimeout  = 120 * time.Second
)

// Handler serves catalog requests.
type Handler struct {
	cfg     *config.Config
	builder *catalog.Builder
}

// NewHandler creates a handler. builder may be nil when no API credential is
// configured; catalog requests then fail with the credential error without
// any upstream call.
func NewHandler(cfg *config.Config, builder *catalog.Builder) *Handler {
	return &Handler{cfg: cfg, builder: builder}
}

// New builds the HTTP server around a configured gin engine.
func New(cfg *config.Config, builder *catalog.Builder) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(RequestID(), Logger(), Recovery(), CORS(cfg.AllowedOrigin))

	h := NewHandler(cfg, builder)
	engine.GET("/healthz", h.Health)
	// Any non-OPTIONS method proceeds to aggregation; OPTIONS is absorbed
	// by the CORS middleware.
	engine.Any("/api/catalog", h.Catalog)

	return &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      engine,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Catalog runs one catalog aggregation and writes the payload.
func (h *Handler) Catalog(c *gin.Context) {
	if h.cfg.APIKey == "" || h.builder == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing YT_API_KEY"})
		return
	}

	params := h.runtimeParams(c)

	c.Header("Cache-Control", cacheControl)

	payload := h.builder.Build(c.Request.Context(), params)
	c.JSON(http.StatusOK, payload)
}

// runtimeParams resolves per-request overrides against configured defaults,
// clamping each into its allowed range.
func (h *Handler) runtimeParams(c *gin.Context) catalog.Params {
	p := catalog.Params{
		MinDurationSec: h.cfg.MinDurationSec,
		SearchPages:    h.cfg.SearchPages,
		MaxPerCategory: h.cfg.MaxPerCategory,
		MaxIDs:         h.cfg.MaxIDs,
		Debug:          c.Query("debug") == "1",
		RequestID:      c.GetString(requestIDKey),
	}

	if v, ok := queryInt(c, "min"); ok && v >= 0 {
		p.MinDurationSec = int64(v)
	}
	if v, ok := queryInt(c, "pages"); ok {
		p.SearchPages = config.ClampInt(v, config.MinSearchPages, config.MaxSearchPages)
	}
	if v, ok := queryInt(c, "max"); ok {
		p.MaxPerCategory = config.ClampInt(v, config.MinPerCategory, config.MaxPerCategory)
	}
	if v, ok := queryInt(c, "cap"); ok {
		p.MaxIDs = config.ClampInt(v, config.MinIDCap, config.MaxIDCap)
	}
	if v := c.Query("queries"); v != "" {
		p.ExtraQueries = config.SplitList(v)
	}
	return p
}

func queryInt(c *gin.Context, name string) (int, bool) {
	v := c.Query(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

const requestIDKey = "request_id"

// RequestID assigns each request an identifier for log correlation and the
// debug payload.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// Logger logs each request the way the rest of the service logs.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("server: %s %s -> %d (%dms) [%s]",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start).Milliseconds(),
			c.GetString(requestIDKey),
		)
	}
}

// Recovery converts a pipeline panic into a generic 500 with no partial
// payload.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("server: panic on %s %s: %v", c.Request.Method, c.Request.URL.Path, r)
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					gin.H{"error": "catalog generation failed"})
			}
		}()
		c.Next()
	}
}

// CORS reflects the configured allowed origin and absorbs preflight
// requests with an empty 204.
func CORS(allowedOrigin string) gin.HandlerFunc {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowedOrigin)

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", "GET,OPTIONS")
			c.Header("Access-Control-Allow-Headers", "content-type")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
