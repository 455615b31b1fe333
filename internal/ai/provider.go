// Package ai generates human-readable summaries and answers natural
// language questions about analysis results. All features work without
// any external service; a cloud provider is only consulted when
// explicitly allowed and configured.
package ai

import (
	"context"
	"fmt"
)

// Provider defines the interface that LLM backends must implement.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	GetName() string
	IsAvailable(ctx context.Context) bool
}

// ProviderError represents a failure from an LLM backend.
type ProviderError struct {
	Provider string `json:"provider"`
	Type     string `json:"type"`
	Message  string `json:"message"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s (%s): %s", e.Provider, e.Type, e.Message)
}
