package handlers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/dayflow/dayflow/internal/guard"
	"github.com/dayflow/dayflow/internal/llm"
	"github.com/dayflow/dayflow/internal/planner"
	"github.com/dayflow/dayflow/internal/schedule"
)

// ChatPlanner is the pipeline behind POST /api/chat.
type ChatPlanner interface {
	Plan(ctx context.Context, req planner.Request) (*planner.Result, *planner.Rejection)
}

var chatPlanner ChatPlanner

// SetPlanner injects the pipeline used by the chat handler.
func SetPlanner(p ChatPlanner) {
	chatPlanner = p
}

type chatRequest struct {
	Messages  []chatMessage `json:"messages"`
	SessionID string        `json:"sessionId"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message  string             `json:"message"`
	Timeline *schedule.Timeline `json:"timeline"`
}

// chatErrorResponse is the rejection body. ResetAt and WaitTime are only
// present on rate-limit rejections.
type chatErrorResponse struct {
	Message  string `json:"message"`
	Error    string `json:"error"`
	ResetAt  string `json:"resetAt,omitempty"`
	WaitTime int    `json:"waitTime,omitempty"`
}

// ChatHandler handles POST /api/chat. The chat endpoint speaks its own
// wire contract rather than the envelope error shape used elsewhere.
func ChatHandler(w http.ResponseWriter, r *http.Request) {
	if chatPlanner == nil {
		writeChatJSON(w, http.StatusInternalServerError, chatErrorResponse{
			Message: "I encountered a problem processing your request. Please try again in a moment.",
			Error:   planner.TagRequestFailed,
		})
		return
	}

	var body chatRequest
	decodeErr := json.NewDecoder(r.Body).Decode(&body)

	sessionID := body.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	req := planner.Request{
		SessionID: sessionID,
		ClientIP:  clientIP(r),
		Meta:      guard.MetaFromRequest(r),
	}
	// A decode failure leaves Messages empty, which the pipeline
	// reports as a malformed payload.
	if decodeErr == nil {
		req.Messages = make([]llm.Message, 0, len(body.Messages))
		for _, m := range body.Messages {
			req.Messages = append(req.Messages, llm.Message{Role: m.Role, Content: m.Content})
		}
	}

	result, rejection := chatPlanner.Plan(r.Context(), req)
	if rejection != nil {
		writeChatRejection(w, sessionID, rejection)
		return
	}

	writeRateHeaders(w, sessionID, result.Rate.Limit, result.Rate.Remaining, result.Rate.ResetAt.Unix())
	writeChatJSON(w, http.StatusOK, chatResponse{
		Message:  result.Message,
		Timeline: result.Timeline,
	})
}

func writeChatRejection(w http.ResponseWriter, sessionID string, rejection *planner.Rejection) {
	resp := chatErrorResponse{
		Message: rejection.Message,
		Error:   rejection.Tag,
	}

	if rejection.Rate != nil {
		rate := rejection.Rate
		resp.ResetAt = rate.ResetAt.UTC().Format("2006-01-02T15:04:05.000Z")
		resp.WaitTime = rate.WaitSeconds
		writeRateHeaders(w, sessionID, rate.Limit, rate.Remaining, rate.ResetAt.Unix())
	}

	writeChatJSON(w, rejection.Status, resp)
}

func writeRateHeaders(w http.ResponseWriter, sessionID string, limit, remaining int, resetEpoch int64) {
	w.Header().Set("X-Session-Id", sessionID)
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetEpoch, 10))
}

func writeChatJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// clientIP extracts the client address. The router's RealIP middleware
// has already rewritten RemoteAddr from forwarding headers when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
