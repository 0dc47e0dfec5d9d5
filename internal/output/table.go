package output

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dayflow/dayflow/internal/schedule"
)

// TableFormatter renders a timeline as an ASCII table.
type TableFormatter struct{}

// FormatTimeline renders the timeline items in scheduled order, with
// the model's explanation appended below the table when present.
func (f *TableFormatter) FormatTimeline(timeline *schedule.Timeline) (string, error) {
	if timeline == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"When", "Activity", "Category", "Why"})

	for _, item := range timeline.Items {
		t.AppendRow(table.Row{
			item.When,
			item.What,
			item.Icon,
			item.Why,
		})
	}

	rendered := t.Render()
	if explanation := strings.TrimSpace(timeline.Explanation); explanation != "" {
		rendered += "\n\n" + explanation
	}
	return rendered, nil
}
