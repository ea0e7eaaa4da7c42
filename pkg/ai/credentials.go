package ai

import (
	"errors"
	"fmt"
)

// ProviderID is the closed set of supported AI providers. Credentials
// are resolved through this enum rather than dynamic field names so an
// unknown provider fails at the boundary, not mid-run.
type ProviderID string

const (
	ProviderOpenAI    ProviderID = "openai"
	ProviderAnthropic ProviderID = "anthropic"
	ProviderGemini    ProviderID = "gemini"
)

var ErrUnknownProvider = errors.New("unknown AI provider")

// Credentials maps provider identities to API keys.
type Credentials map[ProviderID]string

// ParseProviderID validates a provider name against the closed set.
func ParseProviderID(name string) (ProviderID, error) {
	switch ProviderID(name) {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		return ProviderID(name), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
}

// KeyFor returns the credential for a provider, failing when the
// provider is unknown or the key is missing.
func (c Credentials) KeyFor(provider ProviderID) (string, error) {
	if _, err := ParseProviderID(string(provider)); err != nil {
		return "", err
	}

	key, ok := c[provider]
	if !ok || key == "" {
		return "", &ProviderError{Provider: provider, Op: "KeyFor", Err: ErrProviderAuth}
	}

	return key, nil
}
