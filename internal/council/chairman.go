package council

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"conclave/internal/backend"
)

// Synthesize runs the single sequential chairman call over the fully
// aggregated deliberation and recovers the raw verdict from whatever text
// came back. Extraction or decode failure is ErrMalformedChairmanOutput;
// the ladder decides what happens next.
func Synthesize(ctx context.Context, b backend.Backend, chairman string, req DeliberationRequest, block string, rankings []PeerRanking, aggregates []AggregateRank, timeout time.Duration, maxTokens int) (*rawVerdict, error) {
	text, err := b.Complete(ctx, backend.CompletionRequest{
		Model:       chairman,
		System:      "You are the chairman of an agency governance council. You output strict JSON and nothing else.",
		User:        buildChairmanPrompt(req, block, rankings, aggregates),
		MaxTokens:   maxTokens,
		Temperature: 0.1,
		Timeout:     timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("chairman call: %w", err)
	}

	raw, err := ExtractJSONObject(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedChairmanOutput, err)
	}

	var verdict rawVerdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrMalformedChairmanOutput, err)
	}
	return &verdict, nil
}
