package ai

import "strings"

// ProviderName represents an AI provider identifier
type ProviderName string

// Provider name constants
const (
	ProviderNameAnthropic ProviderName = "anthropic"
	ProviderNameOpenAI    ProviderName = "openai"
	ProviderNameGoogle    ProviderName = "google"
	ProviderNameDeepSeek  ProviderName = "deepseek"
)

// String returns the string representation of the provider name
func (p ProviderName) String() string {
	return string(p)
}

// IsValid checks if the provider name is supported
func (p ProviderName) IsValid() bool {
	switch p {
	case ProviderNameAnthropic, ProviderNameOpenAI, ProviderNameGoogle, ProviderNameDeepSeek:
		return true
	default:
		return false
	}
}

// ParseProviderName maps configuration spellings ("claude", "gemini", " OpenAI ") to a ProviderName.
func ParseProviderName(name string) ProviderName {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "anthropic", "claude":
		return ProviderNameAnthropic
	case "google", "gemini":
		return ProviderNameGoogle
	case "deepseek":
		return ProviderNameDeepSeek
	case "openai":
		return ProviderNameOpenAI
	default:
		return ProviderName(strings.ToLower(strings.TrimSpace(name)))
	}
}

// Model name constants
const (
	ModelGPT4       = "gpt-4"
	ModelGPT4o      = "gpt-4o"
	ModelGPT4oMini  = "gpt-4o-mini"
	ModelClaude45   = "claude-sonnet-4-5-20250929"
	ModelGemini25   = "gemini-2.5-flash"
	ModelDeepSeekV3 = "deepseek-chat"
)

// DefaultModel returns the model used when the configured one belongs to another provider.
func DefaultModel(p ProviderName) string {
	switch p {
	case ProviderNameAnthropic:
		return ModelClaude45
	case ProviderNameGoogle:
		return ModelGemini25
	case ProviderNameDeepSeek:
		return ModelDeepSeekV3
	default:
		return ModelGPT4
	}
}

const defaultMaxTokens = 4096
