package guard

import "regexp"

// ContentRule pairs a category label with the pattern that detects it.
// Keeping the rule set declarative keeps it independently testable and
// extensible without touching pipeline logic.
type ContentRule struct {
	Category string
	Pattern  *regexp.Regexp
}

var contentRules = []ContentRule{
	{"credential_compromise", regexp.MustCompile(`(?i)hack\s+(password|account|email)`)},
	{"identity_theft", regexp.MustCompile(`(?i)steal\s+(identity|credit\s+card)`)},
	{"dangerous_devices", regexp.MustCompile(`(?i)(make|create|build)\s+(bomb|weapon|virus)`)},
	{"illicit_substances", regexp.MustCompile(`(?i)(illegal|illicit)\s+(drug|substance)`)},
	{"system_exploitation", regexp.MustCompile(`(?i)(attack|exploit)\s+(website|server|database)`)},
}

// ContentRules returns a copy of the active rule set.
func ContentRules() []ContentRule {
	rules := make([]ContentRule, len(contentRules))
	copy(rules, contentRules)
	return rules
}

// InappropriateCategory scans text against the rule set and returns the
// first matching category.
func InappropriateCategory(text string) (string, bool) {
	for _, rule := range contentRules {
		if rule.Pattern.MatchString(text) {
			return rule.Category, true
		}
	}
	return "", false
}

// ContainsInappropriateContent reports whether any content rule matches.
func ContainsInappropriateContent(text string) bool {
	_, flagged := InappropriateCategory(text)
	return flagged
}
