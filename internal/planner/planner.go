// Package planner implements the admission-control pipeline in front of
// the language-model call: payload validation, bot and content
// heuristics, dual-key rate limiting, the structured-output provider
// request, and response shaping.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/dayflow/dayflow/internal/guard"
	"github.com/dayflow/dayflow/internal/llm"
	"github.com/dayflow/dayflow/internal/metrics"
	"github.com/dayflow/dayflow/internal/ratelimit"
	"github.com/dayflow/dayflow/internal/schedule"
)

// MaxMessageChars is the ceiling on the latest message's length.
const MaxMessageChars = 2000

// lowRemainingThreshold is the remaining-quota level at which the
// success message starts carrying the limiter's status text.
const lowRemainingThreshold = 5

// Sampling parameters for the provider call.
const (
	completionTemperature = 0.7
	completionMaxTokens   = 1000
)

// DefaultIPMaxPerWindow is the lower quota ceiling for the
// address-derived identity.
const DefaultIPMaxPerWindow = 50

var validRoles = map[string]struct{}{
	llm.RoleUser:      {},
	llm.RoleAssistant: {},
	llm.RoleSystem:    {},
}

// Request is one inbound planning request after HTTP decoding.
type Request struct {
	Messages  []llm.Message
	SessionID string
	ClientIP  string
	Meta      guard.RequestMeta
}

// Result is an accepted pipeline outcome.
type Result struct {
	// Message is the human-readable summary ("I've planned your day
	// with N activities...").
	Message  string
	Timeline *schedule.Timeline
	// Rate is the session-identity limiter result, surfaced as response
	// headers.
	Rate ratelimit.Result
	// Degraded marks a timeline that failed application-side schema
	// validation but was delivered anyway.
	Degraded bool
}

// Config tunes the pipeline.
type Config struct {
	Model        string
	SessionLimit ratelimit.Options
	IPLimit      ratelimit.Options
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Model) == "" {
		c.Model = "gpt-4o"
	}
	if c.IPLimit.MaxRequestsPerWindow <= 0 {
		c.IPLimit.MaxRequestsPerWindow = DefaultIPMaxPerWindow
	}
	return c
}

// Planner orchestrates the admission gates and the provider call.
type Planner struct {
	driver  llm.Driver
	limiter *ratelimit.Limiter
	cfg     Config
	logger  *logging.Logger
}

// New assembles a planner. A nil limiter gets a fresh in-memory one.
func New(driver llm.Driver, limiter *ratelimit.Limiter, cfg Config, logger *logging.Logger) *Planner {
	if limiter == nil {
		limiter = ratelimit.New(nil)
	}
	return &Planner{
		driver:  driver,
		limiter: limiter,
		cfg:     cfg.withDefaults(),
		logger:  logger,
	}
}

// Plan runs the gate sequence, short-circuiting on the first failure.
// Gate order: payload shape, bot heuristics, length ceiling, content
// rules, then both rate limits. Only requests that clear every gate
// reach the provider.
func (p *Planner) Plan(ctx context.Context, req Request) (*Result, *Rejection) {
	if rej := validatePayload(req.Messages); rej != nil {
		metrics.RecordRejection(rej.Reason)
		return nil, rej
	}

	last := strings.TrimSpace(req.Messages[len(req.Messages)-1].Content)

	if guard.LooksAutomated(req.Meta, last) {
		metrics.RecordRejection(ReasonAutomatedRequest)
		return nil, rejectAutomated()
	}

	if utf8.RuneCountInString(last) > MaxMessageChars {
		metrics.RecordRejection(ReasonMessageTooLong)
		return nil, rejectTooLong()
	}

	if category, flagged := guard.InappropriateCategory(last); flagged {
		p.warn("message flagged by content rules", zap.String("category", category))
		metrics.RecordRejection(ReasonInappropriateContent)
		return nil, rejectInappropriate()
	}

	clientIP := strings.TrimSpace(req.ClientIP)
	if clientIP == "" {
		clientIP = "unknown"
	}

	// Both identities must clear their quota; the session-based result
	// takes precedence when both fail.
	sessionRes := p.limiter.Check(ctx, ratelimit.SessionKey(req.SessionID), p.cfg.SessionLimit)
	ipRes := p.limiter.Check(ctx, ratelimit.IPKey(clientIP), p.cfg.IPLimit)
	if !sessionRes.Accepted || !ipRes.Accepted {
		failed := sessionRes
		namespace := "session"
		if sessionRes.Accepted {
			failed = ipRes
			namespace = "ip"
		}
		if failed.Throttled {
			metrics.RecordThrottle(namespace)
		}
		metrics.RecordRejection(ReasonRateLimitExceeded)
		return nil, rejectRateLimited(failed)
	}

	timeline, degraded, err := p.Generate(ctx, req.Messages)
	if err != nil {
		rej := p.translateProviderError(err)
		metrics.RecordRejection(rej.Reason)
		return nil, rej
	}

	message := fmt.Sprintf("I've planned your day with %d activities focusing on your top priorities.", len(timeline.Items))
	if sessionRes.Remaining <= lowRemainingThreshold {
		message += " " + sessionRes.Message
	}

	metrics.RecordAdmission("accepted")
	metrics.RecordScheduleSize(len(timeline.Items))

	return &Result{
		Message:  message,
		Timeline: timeline,
		Rate:     sessionRes,
		Degraded: degraded,
	}, nil
}

// Generate sends the conversation to the provider under the
// structured-output contract and decodes the timeline.
//
// A timeline that fails the stricter application schema is still
// returned, with degraded=true: partial or approximate schedules remain
// useful, so the mismatch is logged rather than treated as fatal.
func (p *Planner) Generate(ctx context.Context, history []llm.Message) (*schedule.Timeline, bool, error) {
	if p.driver == nil {
		return nil, false, errors.New("completion driver not configured")
	}

	outbound := make([]llm.Message, 0, len(history)+1)
	outbound = append(outbound, llm.Message{Role: llm.RoleSystem, Content: schedule.SystemInstruction})
	for _, msg := range history {
		if msg.Role == llm.RoleSystem {
			continue
		}
		outbound = append(outbound, msg)
	}

	temperature := completionTemperature
	maxTokens := completionMaxTokens
	providerReq := &llm.Request{
		Model:       p.cfg.Model,
		Messages:    outbound,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		ResponseFormat: &llm.ResponseFormat{
			Type: "json_schema",
			JSONSchema: &llm.JSONSchema{
				Name:   "daily_timeline",
				Strict: true,
				Schema: schedule.ResponseSchema(),
			},
		},
	}

	start := time.Now()
	resp, err := p.driver.Complete(ctx, providerReq)
	metrics.RecordProviderCall(p.driver.Name(), err == nil, time.Since(start))
	if err != nil {
		return nil, false, err
	}

	var timeline schedule.Timeline
	if decodeErr := json.Unmarshal([]byte(resp.Content), &timeline); decodeErr != nil {
		return nil, false, fmt.Errorf("decode timeline: %w", decodeErr)
	}

	degraded := false
	if validateErr := timeline.Validate(); validateErr != nil {
		// Deliberate lenient degradation: deliver the data anyway.
		degraded = true
		metrics.RecordSchemaMismatch()
		p.warn("timeline failed application schema validation",
			zap.Int("items", len(timeline.Items)),
			zap.Error(validateErr))
	}

	return &timeline, degraded, nil
}

func validatePayload(messages []llm.Message) *Rejection {
	if len(messages) == 0 {
		return rejectMalformed()
	}
	for _, msg := range messages {
		if _, ok := validRoles[msg.Role]; !ok {
			return rejectMalformed()
		}
	}
	return nil
}

func (p *Planner) translateProviderError(err error) *Rejection {
	var perr *llm.ProviderError
	switch {
	case llm.IsThrottled(err):
		p.warn("provider reported throttling", zap.Error(err))
		return &Rejection{
			Reason:  ReasonProviderThrottled,
			Tag:     TagRequestFailed,
			Status:  500,
			Message: "Our AI service is currently experiencing high demand. Please try again in a few minutes.",
		}
	case errors.As(err, &perr), errors.Is(err, context.DeadlineExceeded):
		p.warn("provider call failed", zap.Error(err))
		return &Rejection{
			Reason:  ReasonProviderUnavailable,
			Tag:     TagRequestFailed,
			Status:  500,
			Message: "There was a problem connecting to our AI service. Please try again shortly.",
		}
	default:
		p.warn("planning request failed", zap.Error(err))
		return &Rejection{
			Reason:  ReasonUnknownFailure,
			Tag:     TagRequestFailed,
			Status:  500,
			Message: "I encountered a problem processing your request. Please try again in a moment.",
		}
	}
}

func (p *Planner) warn(msg string, fields ...zap.Field) {
	if p.logger != nil {
		p.logger.Warn(msg, fields...)
	}
}
