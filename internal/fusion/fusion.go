// Package fusion merges the two classification sources into one ranked,
// deduplicated list. Merge is a pure function: deterministic, idempotent,
// no side effects.
package fusion

import (
	"sort"

	"go-photo-insight/pkg/models"
)

const (
	// agreementBonus is the multiplicative boost applied when both sources
	// report the same normalized label. Models agree, so trust rises.
	agreementBonus = 1.2
	// maxResults caps the fused list.
	maxResults = 15
)

// Merge combines the classification lists from the two sources. Labels are
// matched case-insensitively after whitespace trimming. A label present in
// both sources keeps the higher confidence boosted by agreementBonus (capped
// at 1.0); single-source labels keep their original confidence. The output
// is deduplicated by normalized label and sorted by descending confidence,
// ties broken by first appearance (sourceA before sourceB).
func Merge(sourceA, sourceB []models.ClassificationResult) []models.ClassificationResult {
	type slot struct {
		result models.ClassificationResult
		order  int
		fromA  bool
		both   bool
	}

	slots := make(map[string]*slot, len(sourceA)+len(sourceB))
	order := 0

	for _, r := range sourceA {
		key := r.NormalizedLabel()
		if key == "" {
			continue
		}
		if s, ok := slots[key]; ok {
			// Duplicate within a single source: keep the higher confidence.
			if r.Confidence > s.result.Confidence {
				s.result.Confidence = r.Confidence
			}
			continue
		}
		slots[key] = &slot{result: r, order: order, fromA: true}
		order++
	}

	for _, r := range sourceB {
		key := r.NormalizedLabel()
		if key == "" {
			continue
		}
		s, ok := slots[key]
		if !ok {
			slots[key] = &slot{result: r, order: order}
			order++
			continue
		}
		if r.Confidence > s.result.Confidence {
			s.result.Confidence = r.Confidence
		}
		// Agreement means both sources reported the label; a repeat within
		// sourceB is still a single-source dedup.
		if s.fromA {
			s.both = true
		}
	}

	merged := make([]slot, 0, len(slots))
	for _, s := range slots {
		if s.both {
			s.result.Confidence *= agreementBonus
			if s.result.Confidence > 1.0 {
				s.result.Confidence = 1.0
			}
			s.result.Source = models.SourceFused
		}
		merged = append(merged, *s)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].result.Confidence != merged[j].result.Confidence {
			return merged[i].result.Confidence > merged[j].result.Confidence
		}
		return merged[i].order < merged[j].order
	})

	if len(merged) > maxResults {
		merged = merged[:maxResults]
	}

	out := make([]models.ClassificationResult, len(merged))
	for i, s := range merged {
		out[i] = s.result
	}
	return out
}
