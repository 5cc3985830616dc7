package suggest

import (
	"sort"

	"github.com/mkoval/suggestd/internal/similarity"
)

// mergeCandidates concatenates the per-source candidate lists, applies the
// per-source score multipliers from the profile table, and removes
// case-insensitive text duplicates.
//
// Inputs are sorted by dispatch priority before dedup, so the winner of a
// text collision is determined by the fixed source order (blocks →
// categories → users → topics → popular → personal), never by concurrent
// completion order — and deliberately not by score. Output order is
// unspecified; ranking is the aggregator's job.
func mergeCandidates(lists [][]Candidate) []Candidate {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	if total == 0 {
		return nil
	}

	flat := make([]Candidate, 0, total)
	for _, l := range lists {
		flat = append(flat, l...)
	}

	// Stable keeps each source's own ordering intact within its priority
	// band.
	sort.SliceStable(flat, func(i, j int) bool {
		return flat[i].SourceType.priority() < flat[j].SourceType.priority()
	})

	seen := make(map[string]struct{}, len(flat))
	merged := make([]Candidate, 0, len(flat))
	for _, c := range flat {
		key := similarity.Normalize(c.Text)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		c.Score *= c.SourceType.multiplier()
		if c.CategoryLabel == "" {
			c.CategoryLabel = c.SourceType.Label()
		}
		merged = append(merged, c)
	}
	return merged
}

// rankCandidates orders candidates by score descending, usage count
// descending, then text ascending as a final stable tie-break.
func rankCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].UsageCount != candidates[j].UsageCount {
			return candidates[i].UsageCount > candidates[j].UsageCount
		}
		return similarity.Normalize(candidates[i].Text) < similarity.Normalize(candidates[j].Text)
	})
}
