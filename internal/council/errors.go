package council

import "errors"

var (
	// ErrInvalidRequest is the only error class surfaced to callers: the
	// request itself is unusable (missing topic, unknown gate).
	ErrInvalidRequest = errors.New("council: invalid deliberation request")

	// ErrInsufficientEnsemble means fewer than two usable Stage1 results
	// remained. Escalates the fallback ladder, never reaches the caller.
	ErrInsufficientEnsemble = errors.New("council: fewer than two usable stage1 results")

	// ErrMalformedChairmanOutput means the chairman's output yielded no
	// parseable verdict. Escalates the fallback ladder.
	ErrMalformedChairmanOutput = errors.New("council: malformed chairman output")

	// ErrNoJSONObject means no well-formed JSON object could be recovered
	// from free text within the attempt budget.
	ErrNoJSONObject = errors.New("council: no JSON object found in text")
)
