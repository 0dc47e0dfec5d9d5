package planner

import (
	"fmt"
	"net/http"

	"github.com/dayflow/dayflow/internal/ratelimit"
)

// Internal rejection reasons, used for logs and metrics labels.
const (
	ReasonMalformedPayload     = "malformed_payload"
	ReasonAutomatedRequest     = "automated_request"
	ReasonMessageTooLong       = "message_too_long"
	ReasonInappropriateContent = "inappropriate_content"
	ReasonRateLimitExceeded    = "rate_limit_exceeded"
	ReasonProviderThrottled    = "provider_throttled"
	ReasonProviderUnavailable  = "provider_unavailable"
	ReasonUnknownFailure       = "unknown_failure"
)

// Wire error tags, part of the /api/chat response contract. Several
// internal reasons share a tag; clients only see the tag.
const (
	TagPotentialBot         = "potential_bot"
	TagMessageTooLong       = "message_too_long"
	TagInappropriateContent = "inappropriate_content"
	TagRateLimitExceeded    = "rate_limit_exceeded"
	TagRequestFailed        = "request_failed"
)

// Rejection is a terminal pipeline outcome. Message is the plain-language
// text shown to the user; Tag is the machine-readable kind the
// presentation layer can branch on without parsing Message.
type Rejection struct {
	Reason  string
	Tag     string
	Status  int
	Message string

	// Rate carries limiter details when Tag is rate_limit_exceeded.
	Rate *ratelimit.Result
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("request rejected (%s): %s", r.Reason, r.Message)
}

func rejectMalformed() *Rejection {
	return &Rejection{
		Reason:  ReasonMalformedPayload,
		Tag:     TagRequestFailed,
		Status:  http.StatusBadRequest,
		Message: "There seems to be an issue with the format of your request. Please refresh the page and try again.",
	}
}

func rejectAutomated() *Rejection {
	return &Rejection{
		Reason:  ReasonAutomatedRequest,
		Tag:     TagPotentialBot,
		Status:  http.StatusForbidden,
		Message: "Your request appears to be automated. If you're a human user, please try again with a more specific request or refresh the page.",
	}
}

func rejectTooLong() *Rejection {
	return &Rejection{
		Reason:  ReasonMessageTooLong,
		Tag:     TagMessageTooLong,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("Your message is too long. Please keep it under %d characters to ensure the best response quality.", MaxMessageChars),
	}
}

func rejectInappropriate() *Rejection {
	return &Rejection{
		Reason:  ReasonInappropriateContent,
		Tag:     TagInappropriateContent,
		Status:  http.StatusBadRequest,
		Message: "I'm sorry, but I can't process requests that may involve harmful content. If you have a legitimate request, please rephrase it.",
	}
}

func rejectRateLimited(result ratelimit.Result) *Rejection {
	return &Rejection{
		Reason:  ReasonRateLimitExceeded,
		Tag:     TagRateLimitExceeded,
		Status:  http.StatusTooManyRequests,
		Message: result.Message,
		Rate:    &result,
	}
}
