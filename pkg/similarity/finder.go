package similarity

import "sort"

// Default thresholds used by the CLI and web surfaces.
const (
	DefaultSimilarThreshold   = 0.6
	DefaultDuplicateThreshold = 0.7
)

// Record is anything with an identifier and comparable text. The identifier
// orders records for deterministic tie-breaking and grouping.
type Record interface {
	SimilarityID() int64
	SimilarityTitle() string
	SimilarityDescription() string
}

// Match pairs a record with its similarity score against some reference text.
type Match struct {
	Record Record  `json:"record"`
	Score  float64 `json:"score"`
}

// combineText builds a record's comparable text: the title, plus the
// description when present, space-joined.
func combineText(r Record) string {
	if desc := r.SimilarityDescription(); desc != "" {
		return r.SimilarityTitle() + " " + desc
	}
	return r.SimilarityTitle()
}

// clampThreshold forces a threshold into [0, 1]. NaN maps to 0.
func clampThreshold(t float64) float64 {
	if t < 0 || t != t { // NaN compares false to itself
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// FindSimilar scores a query against every record and returns the matches at
// or above the threshold, sorted by score descending with ID ascending as
// the tie-break.
func FindSimilar(query string, records []Record, threshold float64) []Match {
	threshold = clampThreshold(threshold)

	var results []Match
	for _, r := range records {
		score := Calculate(query, combineText(r))
		if score >= threshold {
			results = append(results, Match{Record: r, Score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Record.SimilarityID() < results[j].Record.SimilarityID()
	})

	return results
}

// FindDuplicateGroups greedily partitions records into non-overlapping
// groups of near-duplicates. The first entry of each group is the primary
// with score 1.0; the rest carry their similarity to the primary.
//
// Records are compared only against group primaries, never against other
// members, so the grouping is deliberately non-transitive: two
// near-duplicates can land in different groups when a third record absorbs
// one of them first. Sorting by ID up front makes the outcome independent
// of input order. Records without any duplicate do not produce singleton
// groups.
func FindDuplicateGroups(records []Record, threshold float64) [][]Match {
	if len(records) == 0 {
		return nil
	}
	threshold = clampThreshold(threshold)

	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].SimilarityID() < sorted[j].SimilarityID()
	})

	grouped := make(map[int64]bool, len(sorted))
	var groups [][]Match

	for i, primary := range sorted {
		if grouped[primary.SimilarityID()] {
			continue
		}

		primaryText := combineText(primary)
		group := []Match{{Record: primary, Score: 1.0}}

		for _, other := range sorted[i+1:] {
			if grouped[other.SimilarityID()] {
				continue
			}
			score := Calculate(primaryText, combineText(other))
			if score >= threshold {
				group = append(group, Match{Record: other, Score: score})
				grouped[other.SimilarityID()] = true
			}
		}

		if len(group) > 1 {
			grouped[primary.SimilarityID()] = true
			groups = append(groups, group)
		}
	}

	return groups
}
