package ai

import (
	"context"
	"strings"
)

// Client is the interface for AI providers
type Client interface {
	// Complete sends a single-turn prompt and returns the model's reply,
	// limited to maxTokens.
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// systemPrompt keeps local models from padding the reply.
const systemPrompt = `You extract facts from job postings.
Answer every question on its own line in the exact "- Label: answer" format you are given.
Do not add an introduction, a summary, or markdown formatting.`

// cleanMarkdown removes code fences if the AI model tries to be helpful
func cleanMarkdown(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if nl := strings.IndexByte(content, '\n'); nl >= 0 && !strings.Contains(content[:nl], " ") {
			content = content[nl+1:]
		}
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	return strings.TrimSpace(content)
}
