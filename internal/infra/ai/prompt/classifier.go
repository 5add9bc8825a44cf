package prompt

import (
	"fmt"
	"strings"
)

// GetClassifierSystemPrompt provides strict directions and schema for JSON output.
// categories lists the allowed category names in catalog order.
func GetClassifierSystemPrompt(categories []string) string {
	return `You classify messages a person received online for harassment. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- severity is one of: low, medium, high, severe.
- categories is a non-empty array using only these names: ` + strings.Join(categories, ", ") + `. Use ["general harassment"] when none apply.
- score is a non-negative integer; higher means more dangerous.
- Treat explicit threats of violence or stalking as at least high.

Schema (example with empty values):
{
  "severity": "<low|medium|high|severe>",
  "categories": ["<string>"],
  "score": 0
}`
}

// GetClassifierUserPrompt wraps the message to analyze.
func GetClassifierUserPrompt(message string) string {
	return fmt.Sprintf("Analyze this message and respond with the JSON per schema. Message: %q", message)
}
