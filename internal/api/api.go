// Package api exposes the submission gateway over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"contactgate/internal/form"
	"contactgate/internal/gateway"
	"contactgate/internal/i18n"
	"contactgate/internal/logging"
)

// DefaultMaxBodyBytes caps a submission body.
const DefaultMaxBodyBytes = 64 << 10

// ContactPath is where submissions are posted.
const ContactPath = "/api/contact"

// Submitter runs a submission through the gateway pipeline. Reject handles a
// body that could not be decoded.
type Submitter interface {
	Submit(ctx context.Context, req gateway.Request) gateway.Result
	Reject(ctx context.Context, clientID string, lang i18n.Lang) gateway.Result
}

// Config shapes the router.
type Config struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
	Logger   logging.Logger
}

type handlers struct {
	gateway Submitter
	maxBody int64
	log     logging.Logger
}

// NewRouter builds the gin engine serving the contact endpoint, health and
// metrics.
func NewRouter(gw Submitter, cfg Config) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	h := &handlers{gateway: gw, maxBody: maxBody, log: log}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	router.GET("/health", h.health)
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	contact := router.Group("", CORS(cfg.AllowedOrigins, log))
	contact.OPTIONS(ContactPath, func(*gin.Context) {})
	contact.POST(ContactPath, h.contact)

	return router
}

// requestLogger writes one debug line per request through the service logger.
func requestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug(c.Request.Context(), "Handled request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"remote_addr", c.Request.RemoteAddr)
	}
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) contact(c *gin.Context) {
	ctx := c.Request.Context()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)

	clientID := gateway.ClientIdentifier(c.Request.Header)
	lang := i18n.Parse(c.GetHeader("Accept-Language"))

	var sub form.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		h.log.Warn(ctx, "Failed to decode submission", "error", err, "remote_addr", c.Request.RemoteAddr)
		res := h.gateway.Reject(ctx, clientID, lang)
		c.JSON(StatusFor(res.Outcome), res)
		return
	}

	if sub.Lang != nil {
		lang = *sub.Lang
	}

	res := h.gateway.Submit(ctx, gateway.Request{
		ClientID:   clientID,
		Lang:       lang,
		Submission: sub,
	})

	c.JSON(StatusFor(res.Outcome), res)
}

// StatusFor maps a pipeline outcome to its HTTP status.
func StatusFor(outcome gateway.Outcome) int {
	switch outcome {
	case gateway.OutcomeSent, gateway.OutcomeHoneypot:
		return http.StatusOK
	case gateway.OutcomeInvalid, gateway.OutcomeSuspicious, gateway.OutcomeMalformed:
		return http.StatusBadRequest
	case gateway.OutcomeRateLimited:
		return http.StatusTooManyRequests
	case gateway.OutcomeDeliveryFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
