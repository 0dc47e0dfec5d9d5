package output

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dayflow/dayflow/internal/schedule"
)

func sampleTimeline() *schedule.Timeline {
	return &schedule.Timeline{
		Explanation: "Morning focus block first, errands after lunch.",
		Items: []schedule.Item{
			{What: "Write report", When: "9:00 am", Why: "Peak focus", Icon: "work"},
			{What: "Lunch", When: "12:30 pm", Why: "Refuel", Icon: "food"},
			{What: "Grocery run", When: "5:00 pm", Why: "Beat the rush", Icon: "shopping"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("table")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	format, err = ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	_, err = ParseFormat("csv")
	require.Error(t, err)
}

func TestTableFormatter(t *testing.T) {
	rendered, err := (&TableFormatter{}).FormatTimeline(sampleTimeline())
	require.NoError(t, err)
	require.Contains(t, rendered, "Write report")
	require.Contains(t, rendered, "9:00 am")
	require.Contains(t, rendered, "shopping")
	require.Contains(t, rendered, "Morning focus block first, errands after lunch.")

	rendered, err = (&TableFormatter{}).FormatTimeline(nil)
	require.NoError(t, err)
	require.Empty(t, rendered)
}

func TestJSONFormatter(t *testing.T) {
	rendered, err := (&JSONFormatter{Indent: true}).FormatTimeline(sampleTimeline())
	require.NoError(t, err)
	require.Contains(t, rendered, "\"what\": \"Write report\"")
	require.Contains(t, rendered, "\"icon\": \"food\"")
}
