package llm

import "strings"

const chatCompletionsSuffix = "/chat/completions"

// ChatCompletionsURL normalizes a user supplied base URL into the full
// chat-completions endpoint of an OpenAI-compatible server.
func ChatCompletionsURL(base string) string {
	url := strings.TrimSpace(base)
	switch {
	case strings.HasSuffix(url, chatCompletionsSuffix):
		return url
	case strings.HasSuffix(url, "/v1"):
		return url + chatCompletionsSuffix
	case strings.HasSuffix(url, "/"):
		return url + "v1" + chatCompletionsSuffix
	default:
		return url + "/v1" + chatCompletionsSuffix
	}
}

// clientBaseURL is the value the openai client expects; it appends the
// chat-completions suffix itself.
func clientBaseURL(base string) string {
	return strings.TrimSuffix(ChatCompletionsURL(base), chatCompletionsSuffix)
}
