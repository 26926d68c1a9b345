package llm

import "strings"

// ComposePrompt assembles the four prompt layers into the single string the
// providers consume. Empty sections are omitted.
func ComposePrompt(systemPrompt, developerPrompt, context, userMessage string) string {
	parts := []string{
		"SYSTEM ROLE:\n" + systemPrompt,
		"DEVELOPER RULES:\n" + developerPrompt,
	}

	if context != "" {
		parts = append(parts, "CONTEXT:\n"+context)
	}

	parts = append(parts, "USER MESSAGE:\n"+userMessage)

	return strings.Join(parts, "\n\n")
}
