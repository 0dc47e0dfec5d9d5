package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validTimeline(n int) *Timeline {
	t := &Timeline{Explanation: "morning first"}
	for i := 0; i < n; i++ {
		t.Items = append(t.Items, Item{What: "task", When: "9:00 am", Why: "because", Icon: "work"})
	}
	return t
}

func TestValidateAcceptsBoundedTimelines(t *testing.T) {
	for _, n := range []int{MinItems, 4, MaxItems} {
		require.NoError(t, validTimeline(n).Validate(), "items=%d", n)
	}
}

func TestValidateRejectsItemCountOutOfRange(t *testing.T) {
	require.Error(t, validTimeline(MinItems-1).Validate())
	require.Error(t, validTimeline(MaxItems+1).Validate())
}

func TestValidateRejectsUnknownIcon(t *testing.T) {
	tl := validTimeline(3)
	tl.Items[1].Icon = "gaming"
	err := tl.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "gaming")
}

func TestValidateRejectsEmptyTask(t *testing.T) {
	tl := validTimeline(3)
	tl.Items[0].What = "  "
	require.Error(t, tl.Validate())
}

func TestKnownIcon(t *testing.T) {
	for _, icon := range Icons {
		require.True(t, KnownIcon(icon), icon)
	}
	require.False(t, KnownIcon("unknown-category"))
	require.False(t, KnownIcon(""))
}

func TestResponseSchemaShape(t *testing.T) {
	schema := ResponseSchema()
	require.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, props, "explanation")
	require.Contains(t, props, "items")

	items := props["items"].(map[string]any)
	itemSchema := items["items"].(map[string]any)
	itemProps := itemSchema["properties"].(map[string]any)
	icon := itemProps["icon"].(map[string]any)
	require.ElementsMatch(t, Icons, icon["enum"])

	// The provider-facing schema must not carry item count bounds; those
	// are enforced application-side only.
	require.NotContains(t, items, "minItems")
	require.NotContains(t, items, "maxItems")
}
