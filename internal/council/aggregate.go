package council

import "sort"

// AggregateRanks computes the mean 1-based position per label across all
// parsed rankings that mention it. Labels never mentioned by any ranking are
// omitted entirely; absence is not scored as a penalty, so a response is not
// punished because peers failed to format their ranking. Labels outside the
// known set (hallucinated letters) are ignored.
//
// Results are sorted by average rank ascending, ties broken by label.
func AggregateRanks(rankings []PeerRanking, labels LabelMap) []AggregateRank {
	known := make(map[string]bool, len(labels))
	for label := range labels {
		known[label] = true
	}

	positions := make(map[string][]int)
	for _, r := range rankings {
		for pos, label := range r.ParsedOrder {
			if !known[label] {
				continue
			}
			positions[label] = append(positions[label], pos+1)
		}
	}

	out := make([]AggregateRank, 0, len(positions))
	for label, ps := range positions {
		sum := 0
		for _, p := range ps {
			sum += p
		}
		out = append(out, AggregateRank{
			Label:         label,
			Model:         labels[label],
			AverageRank:   float64(sum) / float64(len(ps)),
			RankingsCount: len(ps),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AverageRank != out[j].AverageRank {
			return out[i].AverageRank < out[j].AverageRank
		}
		return out[i].Label < out[j].Label
	})
	return out
}
