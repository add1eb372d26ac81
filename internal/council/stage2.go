package council

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"conclave/internal/backend"
)

// CollectRankings fans one peer-ranking request per ensemble model out over
// the anonymized block, settle-all like Stage1. Stage2 is tolerant of total
// failure: an empty result set degrades aggregation gracefully, it is never
// an error.
func CollectRankings(ctx context.Context, b backend.Backend, models []string, req DeliberationRequest, block string, timeout time.Duration, maxTokens int, logger *slog.Logger) []PeerRanking {
	results := make([]*PeerRanking, len(models))

	g, gctx := errgroup.WithContext(ctx)
	for i, model := range models {
		g.Go(func() error {
			content, err := b.Complete(gctx, backend.CompletionRequest{
				Model:       model,
				System:      "You are an impartial evaluator of anonymous expert responses.",
				User:        buildStage2Prompt(req, block),
				MaxTokens:   maxTokens,
				Temperature: 0.2,
				Timeout:     timeout,
			})
			if err != nil {
				logger.Warn("stage2 call dropped", "model", model, "error", err)
				return nil
			}
			results[i] = &PeerRanking{
				Model:       model,
				RawContent:  content,
				ParsedOrder: ParseRanking(content),
			}
			return nil
		})
	}
	_ = g.Wait()

	var rankings []PeerRanking
	for _, r := range results {
		if r != nil {
			rankings = append(rankings, *r)
		}
	}
	return rankings
}
