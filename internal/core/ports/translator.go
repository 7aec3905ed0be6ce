package ports

import (
	"context"

	"github.com/pantolingo/pantolingo/internal/core/domain"
)

// TranslateRequest is one batch handed to the model provider. Texts carry
// placeholder tokens which must survive translation verbatim.
type TranslateRequest struct {
	Texts      []string
	SourceLang string
	TargetLang string
	SkipWords  []string
}

// Provider is the external LLM client. It returns exactly one translation
// per input text, in input order.
type Provider interface {
	Translate(ctx context.Context, req TranslateRequest) ([]string, domain.TranslatorUsage, error)
}

// Translator is the gateway the orchestrator calls for cache misses. It
// deduplicates, batches, invokes the provider, and reassembles results in
// input order.
type Translator interface {
	Translate(ctx context.Context, site *domain.SiteConfig, texts []string) ([]string, error)
}
