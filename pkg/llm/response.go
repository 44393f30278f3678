package llm

import "encoding/json"

// Usage is the token accounting block OpenAI-compatible APIs attach to a
// completion, and to the final chunk of a stream when requested.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ParseUsage extracts the usage block from a completion body or a single
// stream chunk. It reports false when the payload is not JSON or carries no
// token counts.
func ParseUsage(data []byte) (*Usage, bool) {
	var payload struct {
		Usage *Usage `json:"usage"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Usage == nil {
		return nil, false
	}

	u := payload.Usage
	if u.PromptTokens == 0 && u.CompletionTokens == 0 {
		return nil, false
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return u, true
}
