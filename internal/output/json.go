package output

import (
	"encoding/json"

	"github.com/dayflow/dayflow/internal/schedule"
)

// JSONFormatter renders a timeline as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTimeline marshals the timeline.
func (f *JSONFormatter) FormatTimeline(timeline *schedule.Timeline) (string, error) {
	if timeline == nil {
		return "", nil
	}

	var (
		data []byte
		err  error
	)
	if f.Indent {
		data, err = json.MarshalIndent(timeline, "", "  ")
	} else {
		data, err = json.Marshal(timeline)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
