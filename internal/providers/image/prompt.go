package image

import "strings"

// promptWithStyle folds the optional style hint into the provider prompt.
// Providers have no separate style parameter, so the hint rides along as a
// trailing clause.
func promptWithStyle(prompt, style string) string {
	prompt = strings.TrimSpace(prompt)
	style = strings.TrimSpace(style)
	if style == "" {
		return prompt
	}
	return prompt + ", " + style + " style"
}
