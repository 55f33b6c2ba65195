// Package rank holds the ranking primitives shared by the dense and sparse
// indexes.
package rank

import "sort"

// Hit is a corpus position with its similarity score.
type Hit struct {
	Position int
	Score    float64
}

// Keep decides whether a position takes part in a ranking. A nil Keep
// accepts every position.
type Keep func(position int) bool

// TopK ranks scores descending and returns at most k hits. Equal scores
// keep corpus order, so earlier positions win ties. Positions rejected by
// keep never occupy a slot. When positive is set, hits scoring zero or less
// are dropped.
func TopK(scores []float64, k int, keep Keep, positive bool) []Hit {
	if k <= 0 || len(scores) == 0 {
		return nil
	}
	hits := make([]Hit, 0, len(scores))
	for pos, s := range scores {
		if positive && s <= 0 {
			continue
		}
		if keep != nil && !keep(pos) {
			continue
		}
		hits = append(hits, Hit{Position: pos, Score: s})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
