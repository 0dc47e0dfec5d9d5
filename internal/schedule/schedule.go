// Package schedule defines the timeline data model shared by the planner
// pipeline, the HTTP surface, and the CLI renderer.
package schedule

import (
	"fmt"
	"strings"
)

// Item count bounds enforced by application-side validation. The schema
// sent to the provider deliberately omits these bounds; see Validate.
const (
	MinItems = 3
	MaxItems = 5
)

// Icons is the closed category set a schedule item may carry.
var Icons = []string{
	"work",
	"food",
	"rest",
	"exercise",
	"meeting",
	"learning",
	"social",
	"travel",
	"shopping",
	"housekeeping",
	"entertainment",
	"health",
	"creative",
	"personal",
	"other",
}

var iconSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Icons))
	for _, icon := range Icons {
		set[icon] = struct{}{}
	}
	return set
}()

// KnownIcon reports whether icon belongs to the closed category set.
func KnownIcon(icon string) bool {
	_, ok := iconSet[icon]
	return ok
}

// Item is a single scheduled activity. "when" is a free-text time label,
// not a clock value; display order is array order.
type Item struct {
	What string `json:"what"`
	When string `json:"when"`
	Why  string `json:"why"`
	Icon string `json:"icon"`
}

// Timeline is the structured schedule returned by the provider.
type Timeline struct {
	Explanation string `json:"explanation,omitempty"`
	Items       []Item `json:"items"`
}

// Validate applies the application schema, which is stricter than the
// provider-facing schema: item count must fall within [MinItems, MaxItems]
// and every icon must come from the closed set.
//
// Callers in the pipeline treat a failure here as non-fatal: the timeline
// is still delivered, the mismatch is only logged. Partial schedules
// remain useful.
func (t *Timeline) Validate() error {
	if t == nil {
		return fmt.Errorf("timeline is nil")
	}
	if len(t.Items) < MinItems || len(t.Items) > MaxItems {
		return fmt.Errorf("timeline has %d items, expected between %d and %d", len(t.Items), MinItems, MaxItems)
	}
	for i, item := range t.Items {
		if strings.TrimSpace(item.What) == "" {
			return fmt.Errorf("item %d has an empty task description", i)
		}
		if !KnownIcon(item.Icon) {
			return fmt.Errorf("item %d has unknown icon %q", i, item.Icon)
		}
	}
	return nil
}
