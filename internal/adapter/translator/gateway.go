package translator

import (
	"context"

	"github.com/pantolingo/pantolingo/internal/config"
	"github.com/pantolingo/pantolingo/internal/core/domain"
	"github.com/pantolingo/pantolingo/internal/core/ports"
	"github.com/pantolingo/pantolingo/internal/logger"
)

const (
	DefaultMaxBatchSegments = 40
	DefaultMaxBatchChars    = 12000
)

// Gateway sits between the pipeline and the model provider. Inputs are
// deduplicated so repeated strings on one page cost one translation, then
// split into batches bounded by segment count and character volume, and
// finally reassembled in input order. One failed batch fails the whole
// call: partial results would desynchronise the index-aligned apply step.
type Gateway struct {
	provider         ports.Provider
	maxBatchSegments int
	maxBatchChars    int
	stats            ports.StatsCollector
	logger           *logger.StyledLogger
}

func NewGateway(provider ports.Provider, cfg config.TranslatorConfig, stats ports.StatsCollector, log *logger.StyledLogger) *Gateway {
	maxSegments := cfg.MaxBatchSegments
	if maxSegments <= 0 {
		maxSegments = DefaultMaxBatchSegments
	}
	maxChars := cfg.MaxBatchChars
	if maxChars <= 0 {
		maxChars = DefaultMaxBatchChars
	}
	return &Gateway{
		provider:         provider,
		maxBatchSegments: maxSegments,
		maxBatchChars:    maxChars,
		stats:            stats,
		logger:           log,
	}
}

func (g *Gateway) Translate(ctx context.Context, site *domain.SiteConfig, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	unique := make([]string, 0, len(texts))
	position := make(map[string]int, len(texts))
	for _, text := range texts {
		if _, seen := position[text]; seen {
			continue
		}
		position[text] = len(unique)
		unique = append(unique, text)
	}

	translated := make([]string, len(unique))
	var usage domain.TranslatorUsage

	offset := 0
	for batchIdx, batch := range g.split(unique) {
		results, batchUsage, err := g.provider.Translate(ctx, ports.TranslateRequest{
			Texts:      batch,
			SourceLang: site.SourceLang,
			TargetLang: site.TargetLang,
			SkipWords:  site.SkipWords,
		})
		usage.Add(batchUsage)
		if err != nil {
			g.stats.RecordUsage(usage)
			return nil, &domain.BatchError{Batch: batchIdx, Size: len(batch), Err: err}
		}
		copy(translated[offset:], results)
		offset += len(batch)
	}
	g.stats.RecordUsage(usage)

	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = translated[position[text]]
	}
	return out, nil
}

// split cuts the unique inputs into provider-sized batches. A single
// oversized string still ships alone rather than being dropped.
func (g *Gateway) split(texts []string) [][]string {
	var batches [][]string
	var current []string
	chars := 0
	for _, text := range texts {
		if len(current) > 0 && (len(current) >= g.maxBatchSegments || chars+len(text) > g.maxBatchChars) {
			batches = append(batches, current)
			current = nil
			chars = 0
		}
		current = append(current, text)
		chars += len(text)
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}
