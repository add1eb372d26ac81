package council

import (
	"fmt"
	"strings"
)

// LabelOpinions anonymizes Stage1 results: sequential labels ("Response A",
// "Response B", ...) in collection order plus the diagnostic label→model map.
// Labels are fixed for one invocation and never reused across calls.
func LabelOpinions(opinions []ModelOpinion) ([]LabeledOpinion, LabelMap) {
	labeled := make([]LabeledOpinion, 0, len(opinions))
	labels := make(LabelMap, len(opinions))

	for i, op := range opinions {
		label := fmt.Sprintf("Response %c", 'A'+i)
		labeled = append(labeled, LabeledOpinion{
			Label:   label,
			Model:   op.Model,
			Content: op.Content,
		})
		labels[label] = op.Model
	}
	return labeled, labels
}

// AnonymizedBlock concatenates labeled opinions into the block shown to
// ranking models and the chairman. Model identities never appear here.
func AnonymizedBlock(labeled []LabeledOpinion) string {
	var b strings.Builder
	for _, lo := range labeled {
		fmt.Fprintf(&b, "%s:\n%s\n\n", lo.Label, lo.Content)
	}
	return b.String()
}
