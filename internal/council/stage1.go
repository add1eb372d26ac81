package council

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"conclave/internal/backend"
)

// minUsableOpinions is the Stage1 success threshold: a council of one is not
// a council.
const minUsableOpinions = 2

// CollectOpinions fans persona-scoped queries out to the full ensemble and
// settles all of them: every call gets its own timeout, and one call's
// failure never aborts its siblings. Failed or empty results are dropped
// without retry. Personas rotate cyclically across the model list.
//
// Returns ErrInsufficientEnsemble when fewer than two usable results remain.
func CollectOpinions(ctx context.Context, b backend.Backend, models []string, req DeliberationRequest, timeout time.Duration, maxTokens int, logger *slog.Logger) ([]ModelOpinion, error) {
	results := make([]ModelOpinion, len(models))
	failures := make([]error, len(models))

	g, gctx := errgroup.WithContext(ctx)
	for i, model := range models {
		g.Go(func() error {
			content, err := b.Complete(gctx, backend.CompletionRequest{
				Model:       model,
				System:      personaSystem(personaForIndex(i), req.Language),
				User:        buildStage1Prompt(req),
				MaxTokens:   maxTokens,
				Temperature: 0.7,
				Timeout:     timeout,
			})
			if err != nil {
				failures[i] = err
				return nil // settle-all: errors are captured per slot
			}
			results[i] = ModelOpinion{Model: model, Content: content}
			return nil
		})
	}
	_ = g.Wait()

	var usable []ModelOpinion
	for i, r := range results {
		if failures[i] != nil {
			logger.Warn("stage1 call dropped", "model", models[i], "error", failures[i])
			continue
		}
		if strings.TrimSpace(r.Content) == "" {
			logger.Warn("stage1 call dropped", "model", models[i], "error", "empty content")
			continue
		}
		usable = append(usable, r)
	}

	if len(usable) < minUsableOpinions {
		return nil, fmt.Errorf("%w: %d of %d calls usable", ErrInsufficientEnsemble, len(usable), len(models))
	}
	return usable, nil
}
