package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"

	"github.com/pantolingo/pantolingo/internal/config"
	"github.com/pantolingo/pantolingo/internal/core/domain"
	"github.com/pantolingo/pantolingo/internal/core/ports"
	"github.com/pantolingo/pantolingo/internal/logger"
)

const systemPromptTemplate = `You are a professional website translator. Translate each string in the JSON array from %s to %s.

Rules:
- Placeholder tokens like [N1], [P2], [S1], [HB1]...[/HB1], [HA2]...[/HA2], [HV1] must be kept exactly as written, in a position that reads naturally in the target language. Never translate, drop, renumber or reorder the text inside a paired token across its boundaries.
- Preserve the tone and register of the source.
- Do not add explanations.

Reply with a JSON array of the translated strings, same length and order as the input. Output only the JSON array.`

// Provider translates batches through the OpenAI chat completions API.
// Transport-level retries belong to the SDK; this layer retries only on
// malformed model output, which a fresh completion usually fixes.
type Provider struct {
	client     openai.Client
	model      string
	maxRetries int
	backoff    time.Duration
	logger     *logger.StyledLogger
}

func NewProvider(cfg config.TranslatorConfig, log *logger.StyledLogger) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.RequestTimeout))
	}
	return &Provider{
		client:     openai.NewClient(opts...),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		logger:     log,
	}
}

func (p *Provider) Translate(ctx context.Context, req ports.TranslateRequest) ([]string, domain.TranslatorUsage, error) {
	payload, err := json.Marshal(req.Texts)
	if err != nil {
		return nil, domain.TranslatorUsage{}, err
	}
	system := fmt.Sprintf(systemPromptTemplate, req.SourceLang, req.TargetLang)

	var usage domain.TranslatorUsage
	var lastErr error
	attempts := p.maxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 && p.backoff > 0 {
			select {
			case <-ctx.Done():
				return nil, usage, ctx.Err()
			case <-time.After(p.backoff * time.Duration(attempt)):
			}
		}

		completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: openai.ChatModel(p.model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(system),
				openai.UserMessage(string(payload)),
			},
		})
		if err != nil {
			lastErr = err
			continue
		}
		usage.Add(domain.TranslatorUsage{
			Requests:         1,
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
		})

		if len(completion.Choices) == 0 {
			lastErr = fmt.Errorf("completion returned no choices")
			continue
		}
		translated, err := parseTranslations(completion.Choices[0].Message.Content, len(req.Texts))
		if err != nil {
			p.logger.Warn("unparseable model output, retrying", "attempt", attempt+1, "error", err)
			lastErr = err
			continue
		}
		return translated, usage, nil
	}
	return nil, usage, fmt.Errorf("%w: %v", domain.ErrTranslationFailed, lastErr)
}

// parseTranslations pulls a JSON string array out of model output,
// tolerating markdown fences and prose around the array.
func parseTranslations(content string, want int) ([]string, error) {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if start := strings.Index(cleaned, "["); start > 0 {
		cleaned = cleaned[start:]
	}
	if end := strings.LastIndex(cleaned, "]"); end >= 0 && end < len(cleaned)-1 {
		cleaned = cleaned[:end+1]
	}

	parsed := gjson.Parse(cleaned)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("output is not a JSON array")
	}
	items := parsed.Array()
	if len(items) != want {
		return nil, fmt.Errorf("expected %d translations, got %d", want, len(items))
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.String()
	}
	return out, nil
}
