package schedule

// ResponseSchema returns the JSON Schema document sent to the provider as
// the structured-output contract.
//
// The schema intentionally carries no minItems/maxItems bounds: strict
// structured-output modes reject array bounds on some models, so the hard
// [MinItems, MaxItems] range is enforced application-side in Validate.
func ResponseSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"explanation", "items"},
		"properties": map[string]any{
			"explanation": map[string]any{
				"type":        "string",
				"description": "Explanation of why the schedule is ordered this way",
			},
			"items": map[string]any{
				"type":        "array",
				"description": "List of tasks for the day with timing, explanation, and category",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"what", "when", "why", "icon"},
					"properties": map[string]any{
						"what": map[string]any{
							"type":        "string",
							"description": "The task to be done",
						},
						"when": map[string]any{
							"type":        "string",
							"description": "The time when the task should be done (e.g., '9:00 am')",
						},
						"why": map[string]any{
							"type":        "string",
							"description": "Explanation of why this task is important",
						},
						"icon": map[string]any{
							"type":        "string",
							"description": "Category icon for the task",
							"enum":        Icons,
						},
					},
				},
			},
		},
	}
}
