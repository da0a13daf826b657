package llm

import (
	_ "embed"
	"strings"
)

var (
	//go:embed prompts/feedback.txt
	feedbackPrompt string
	//go:embed prompts/response_format.txt
	responseFormat string
)

// PrepareInstructions renders the feedback instructions for a job title and description.
func PrepareInstructions(jobTitle, jobDescription string) string {
	r := strings.NewReplacer(
		"{{jobTitle}}", strings.TrimSpace(jobTitle),
		"{{jobDescription}}", strings.TrimSpace(jobDescription),
		"{{responseFormat}}", strings.TrimSpace(responseFormat),
	)
	return strings.TrimSpace(r.Replace(feedbackPrompt))
}
