// Package gateway is the server-side trust boundary of the contact flow. It
// re-derives validity of every submission, defends against abuse and hands a
// single notification to the mail provider.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"contactgate/internal/form"
	"contactgate/internal/i18n"
	"contactgate/internal/logging"
	"contactgate/internal/mailer"
	"contactgate/internal/metrics"
	"contactgate/internal/ratelimit"
)

// UnknownClient is the shared bucket for requests without address headers.
const UnknownClient = "unknown"

// Outcome classifies how a submission ended.
type Outcome string

const (
	OutcomeSent           Outcome = "sent"
	OutcomeHoneypot       Outcome = "honeypot"
	OutcomeRateLimited    Outcome = "rate_limited"
	OutcomeInvalid        Outcome = "invalid"
	OutcomeMalformed      Outcome = "malformed"
	OutcomeSuspicious     Outcome = "suspicious"
	OutcomeMisconfigured  Outcome = "misconfigured"
	OutcomeDeliveryFailed Outcome = "delivery_failed"
	OutcomeInternal       Outcome = "internal"
)

// Result is the only thing a caller ever gets back from Submit.
type Result struct {
	Success bool            `json:"success"`
	Data    *mailer.Receipt `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Outcome Outcome         `json:"-"`
}

// Request is one submission together with what the transport knows about it.
type Request struct {
	ClientID   string
	Lang       i18n.Lang
	Submission form.Submission
}

// Settings are the fixed parameters of the pipeline.
type Settings struct {
	From        string
	Recipient   string
	MaxRequests int
	Window      time.Duration
}

// DefaultSettings allow five submissions per client per minute.
func DefaultSettings() Settings {
	return Settings{
		MaxRequests: 5,
		Window:      time.Minute,
	}
}

// Gateway runs the submission pipeline.
type Gateway struct {
	settings Settings
	limiter  ratelimit.Store
	sender   mailer.Sender
	problems form.Labels
	rooms    form.Labels
	log      logging.Logger
	metrics  *metrics.Metrics
}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithLabels replaces the problem and room label tables.
func WithLabels(problems, rooms form.Labels) Option {
	return func(g *Gateway) {
		g.problems = problems
		g.rooms = rooms
	}
}

// WithLogger sets the logger. The default discards.
func WithLogger(log logging.Logger) Option {
	return func(g *Gateway) {
		if log != nil {
			g.log = log
		}
	}
}

// WithMetrics records outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// New creates a Gateway. limiter and sender are required.
func New(settings Settings, limiter ratelimit.Store, sender mailer.Sender, opts ...Option) *Gateway {
	defaults := DefaultSettings()
	if settings.MaxRequests <= 0 {
		settings.MaxRequests = defaults.MaxRequests
	}
	if settings.Window <= 0 {
		settings.Window = defaults.Window
	}

	g := &Gateway{
		settings: settings,
		limiter:  limiter,
		sender:   sender,
		problems: form.ProblemLabels(),
		rooms:    form.RoomLabels(),
		log:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ClientIdentifier picks the rate limit key for a request: the first
// X-Forwarded-For entry, then X-Real-IP, then UnknownClient.
func ClientIdentifier(h http.Header) string {
	if fwd := h.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(h.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return UnknownClient
}

// Submit processes one submission. It never panics and never returns a Go
// error; every failure is folded into the Result.
func (g *Gateway) Submit(ctx context.Context, req Request) (res Result) {
	lang := req.Lang

	defer func() {
		if r := recover(); r != nil {
			g.log.Error(ctx, "Submission pipeline panicked", "panic", fmt.Sprint(r), "client", req.ClientID)
			res = failure(OutcomeInternal, lang.Text(i18n.SendFailed))
		}
		g.metrics.ObserveOutcome(string(res.Outcome))
	}()

	clientID := clientKey(req.ClientID)
	if !g.allow(ctx, clientID) {
		return failure(OutcomeRateLimited, lang.Text(i18n.TooManyAttempts))
	}

	if req.Submission.IsBot() {
		g.log.Warn(ctx, "Honeypot filled, dropping submission", "client", clientID)
		return Result{Success: true, Outcome: OutcomeHoneypot}
	}

	if g.sender == nil || !g.sender.Enabled() {
		g.log.Error(ctx, "Mail provider credential missing", "client", clientID)
		return failure(OutcomeMisconfigured, lang.Text(i18n.ServerMisconfigured))
	}

	sub := req.Submission.Sanitized()

	if ruleErr := form.Check(sub); ruleErr != nil {
		g.log.Info(ctx, "Submission failed validation", "client", clientID, "field", ruleErr.Field, "rule", ruleErr.Tag)
		return failure(OutcomeInvalid, ruleErr.Message(lang))
	}

	if form.Suspicious(sub.Goal) || form.Suspicious(sub.AdditionalQuestions) {
		g.log.Warn(ctx, "Submission rejected by content heuristics", "client", clientID)
		return failure(OutcomeSuspicious, lang.Text(i18n.SuspiciousContent))
	}

	subject, body, err := renderNotification(sub, g.problems, g.rooms)
	if err != nil {
		g.log.Error(ctx, "Failed to render notification", "error", err)
		return failure(OutcomeInternal, lang.Text(i18n.SendFailed))
	}

	msg := mailer.Message{
		From:    g.settings.From,
		To:      g.settings.Recipient,
		ReplyTo: sub.Email,
		Subject: subject,
		HTML:    body,
	}

	start := time.Now()
	receipt, err := g.sender.Send(ctx, msg)
	g.metrics.ObserveDispatch(time.Since(start))

	if err != nil {
		var delivery *mailer.DeliveryError
		if errors.As(err, &delivery) {
			g.log.Error(ctx, "Mail provider rejected notification", "provider", delivery.Provider, "error", delivery.Message)
			return failure(OutcomeDeliveryFailed, delivery.Message)
		}
		g.log.Error(ctx, "Failed to send notification", "error", err)
		return failure(OutcomeInternal, lang.Text(i18n.SendFailed))
	}

	g.log.Info(ctx, "Contact submission sent",
		"client", clientID,
		"provider", receipt.Provider,
		"id", receipt.ID,
		"problems", len(sub.Problems),
		"rooms", len(sub.Rooms))

	return Result{Success: true, Data: &receipt, Outcome: OutcomeSent}
}

// Reject answers a request whose body could not be decoded. It still takes a
// slot from the client's rate limit window, so undecodable bodies are
// throttled like any other submission.
func (g *Gateway) Reject(ctx context.Context, clientID string, lang i18n.Lang) (res Result) {
	defer func() { g.metrics.ObserveOutcome(string(res.Outcome)) }()

	clientID = clientKey(clientID)
	if !g.allow(ctx, clientID) {
		return failure(OutcomeRateLimited, lang.Text(i18n.TooManyAttempts))
	}
	return failure(OutcomeMalformed, lang.Text(i18n.MalformedRequest))
}

// allow counts one request against clientID. Store errors fail open.
func (g *Gateway) allow(ctx context.Context, clientID string) bool {
	allowed, err := g.limiter.CheckAndIncrement(ctx, clientID, g.settings.MaxRequests, g.settings.Window)
	if err != nil {
		g.log.Error(ctx, "Rate limit store failed, allowing request", "error", err, "client", clientID)
		return true
	}
	if !allowed {
		g.log.Warn(ctx, "Rate limit exceeded", "client", clientID)
	}
	return allowed
}

func clientKey(id string) string {
	if id == "" {
		return UnknownClient
	}
	return id
}

func failure(outcome Outcome, msg string) Result {
	return Result{Success: false, Error: msg, Outcome: outcome}
}
