// Package ratelimit enforces a minimum inter-request interval and an
// hourly quota per identity key.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/dayflow/dayflow/internal/ratelimit/store"
)

// Window is the fixed accounting period after which a record's count
// resets.
const Window = time.Hour

// Defaults applied when Options fields are zero.
const (
	DefaultMaxRequestsPerWindow = 100
	DefaultMinInterval          = 10 * time.Second
)

// SessionKey namespaces a client-supplied session token.
func SessionKey(sessionID string) string {
	return "session:" + sessionID
}

// IPKey namespaces a normalized client network address.
func IPKey(addr string) string {
	return "ip:" + addr
}

// Options configure a single check.
type Options struct {
	MaxRequestsPerWindow int
	MinInterval          time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxRequestsPerWindow <= 0 {
		o.MaxRequestsPerWindow = DefaultMaxRequestsPerWindow
	}
	if o.MinInterval <= 0 {
		o.MinInterval = DefaultMinInterval
	}
	return o
}

// Result is the outcome of a rate check.
//
// Message is purely informational; its tone escalates as the remaining
// quota shrinks. Callers must not parse it for control flow.
type Result struct {
	Accepted    bool
	Limit       int
	Remaining   int
	ResetAt     time.Time
	Throttled   bool
	WaitSeconds int
	Message     string
}

// Limiter owns the rate-record registry. Check is total over its input
// domain: store failures degrade to accepting the request rather than
// surfacing an error, so a registry outage never blocks traffic.
type Limiter struct {
	store store.Store
	now   func() time.Time
}

// New returns a limiter over the given registry using the wall clock.
func New(st store.Store) *Limiter {
	return NewWithClock(st, time.Now)
}

// NewWithClock injects the clock, letting tests control time
// deterministically instead of sleeping.
func NewWithClock(st store.Store, clock func() time.Time) *Limiter {
	if st == nil {
		st = store.NewMemory()
	}
	if clock == nil {
		clock = time.Now
	}
	return &Limiter{store: st, now: clock}
}

// Check runs the rate algorithm for one identity:
//
//  1. Opportunistically sweep expired records.
//  2. Look up or lazily initialize the identity's record; an expired
//     window resets the count and issues a fresh window.
//  3. Reject as throttled if the last request was under MinInterval ago —
//     checked before the quota increment so rapid-fire requests never
//     consume quota.
//  4. Otherwise increment, persist, and accept iff count <= limit.
func (l *Limiter) Check(ctx context.Context, identity string, opts Options) Result {
	opts = opts.withDefaults()
	now := l.now()

	_ = l.store.Sweep(ctx, now)

	rec, ok, err := l.store.Get(ctx, identity)
	if err != nil {
		return l.failOpen(now, opts)
	}
	if !ok || rec.WindowResetAt.Before(now) {
		rec = store.Record{Count: 0, WindowResetAt: now.Add(Window)}
	}

	if !rec.LastRequestAt.IsZero() {
		elapsed := now.Sub(rec.LastRequestAt)
		if elapsed < opts.MinInterval {
			wait := ceilSeconds(opts.MinInterval - elapsed)
			return Result{
				Accepted:    false,
				Limit:       opts.MaxRequestsPerWindow,
				Remaining:   remaining(opts.MaxRequestsPerWindow, rec.Count),
				ResetAt:     rec.WindowResetAt,
				Throttled:   true,
				WaitSeconds: wait,
				Message:     fmt.Sprintf("Please wait %d seconds before making another request. This helps ensure optimal AI performance.", wait),
			}
		}
	}

	rec.Count++
	rec.LastRequestAt = now
	if err := l.store.Put(ctx, identity, rec); err != nil {
		return l.failOpen(now, opts)
	}

	rem := remaining(opts.MaxRequestsPerWindow, rec.Count)
	accepted := rec.Count <= opts.MaxRequestsPerWindow

	return Result{
		Accepted:  accepted,
		Limit:     opts.MaxRequestsPerWindow,
		Remaining: rem,
		ResetAt:   rec.WindowResetAt,
		Message:   statusMessage(accepted, opts.MaxRequestsPerWindow, rem, rec.WindowResetAt),
	}
}

func (l *Limiter) failOpen(now time.Time, opts Options) Result {
	return Result{
		Accepted:  true,
		Limit:     opts.MaxRequestsPerWindow,
		Remaining: opts.MaxRequestsPerWindow,
		ResetAt:   now.Add(Window),
		Message:   "Your request has been processed successfully.",
	}
}

func remaining(limit, count int) int {
	if rem := limit - count; rem > 0 {
		return rem
	}
	return 0
}

func ceilSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}

func statusMessage(accepted bool, limit, remaining int, resetAt time.Time) string {
	switch {
	case !accepted:
		return fmt.Sprintf("You've reached the limit of %d requests per hour. Your limit will reset at %s. This helps us provide reliable service to all users.", limit, resetAt.Format("3:04 PM"))
	case remaining <= 3:
		return fmt.Sprintf("You have %d requests remaining in this hour. Please use them wisely!", remaining)
	case remaining <= 10:
		return fmt.Sprintf("You have %d requests remaining in this hour.", remaining)
	default:
		return "Your request has been processed successfully."
	}
}
