// Package guard holds the stateless admission heuristics: bot-likelihood
// and content-appropriateness checks. Every function here is pure and
// total — missing fields mean "not flagged", never an error.
//
// These are deliberately simple pattern checks. False positives are
// expected and acceptable; the results are advisory signals for the
// planner pipeline, not an authoritative trust decision.
package guard

import (
	"net/http"
	"regexp"
	"strings"
)

// maxURLsPerMessage is the URL count above which a message is treated as
// likely spam.
const maxURLsPerMessage = 3

var urlPattern = regexp.MustCompile(`https?://`)

// crawler tokens matched case-insensitively as substrings of the user agent.
var crawlerTokens = []string{"bot", "crawl", "spider"}

// RequestMeta carries the request attributes the bot check inspects.
type RequestMeta struct {
	Method    string
	UserAgent string
	Referer   string
	Origin    string
}

// MetaFromRequest extracts the relevant attributes from an HTTP request.
func MetaFromRequest(r *http.Request) RequestMeta {
	if r == nil {
		return RequestMeta{}
	}
	return RequestMeta{
		Method:    r.Method,
		UserAgent: r.Header.Get("User-Agent"),
		Referer:   r.Header.Get("Referer"),
		Origin:    r.Header.Get("Origin"),
	}
}

// LooksAutomated applies the OR-combined bot heuristics to a request:
//
//   - user agent missing or containing a known crawler token
//   - non-GET request with neither referer nor origin
//   - more than maxURLsPerMessage URLs in the latest message
func LooksAutomated(meta RequestMeta, lastMessage string) bool {
	ua := strings.ToLower(meta.UserAgent)
	if ua == "" {
		return true
	}
	for _, token := range crawlerTokens {
		if strings.Contains(ua, token) {
			return true
		}
	}

	if meta.Method != http.MethodGet && meta.Referer == "" && meta.Origin == "" {
		return true
	}

	if len(urlPattern.FindAllStringIndex(lastMessage, -1)) > maxURLsPerMessage {
		return true
	}

	return false
}
