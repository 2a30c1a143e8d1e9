package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecord struct {
	id    int64
	title string
	desc  string
}

func (r fakeRecord) SimilarityID() int64           { return r.id }
func (r fakeRecord) SimilarityTitle() string       { return r.title }
func (r fakeRecord) SimilarityDescription() string { return r.desc }

func TestFindSimilar(t *testing.T) {
	records := []Record{
		fakeRecord{id: 1, title: "Fix login bug", desc: "Users cannot login"},
		fakeRecord{id: 2, title: "Update documentation", desc: "Add API docs"},
		fakeRecord{id: 3, title: "Login broken", desc: "Cannot login to app"},
	}

	matches := FindSimilar("users cannot login to the app", records, 0.3)
	require.NotEmpty(t, matches)

	// Sorted by score descending.
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
	// Every match clears the threshold.
	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Score, 0.3)
	}
	// The documentation issue should not rank above the login ones.
	assert.NotEqual(t, int64(2), matches[0].Record.SimilarityID())
}

func TestFindSimilarThresholdMonotonic(t *testing.T) {
	records := []Record{
		fakeRecord{id: 1, title: "Fix login bug", desc: ""},
		fakeRecord{id: 2, title: "Login broken", desc: ""},
		fakeRecord{id: 3, title: "Something else entirely", desc: ""},
	}

	loose := FindSimilar("login bug", records, 0.1)
	tight := FindSimilar("login bug", records, 0.8)
	assert.LessOrEqual(t, len(tight), len(loose))

	// Everything in the tight set appears in the loose set.
	looseIDs := map[int64]bool{}
	for _, m := range loose {
		looseIDs[m.Record.SimilarityID()] = true
	}
	for _, m := range tight {
		assert.True(t, looseIDs[m.Record.SimilarityID()])
	}
}

func TestFindSimilarEmpty(t *testing.T) {
	assert.Empty(t, FindSimilar("anything", nil, 0.5))
	records := []Record{fakeRecord{id: 1, title: "hello", desc: ""}}
	assert.Empty(t, FindSimilar("completely unrelated query words", records, 0.99))
}

func TestFindSimilarClampsThreshold(t *testing.T) {
	records := []Record{fakeRecord{id: 1, title: "exact match", desc: ""}}
	// Threshold above 1 clamps to 1, so an exact match still qualifies.
	matches := FindSimilar("exact match", records, 5.0)
	require.Len(t, matches, 1)
	assert.Equal(t, 1.0, matches[0].Score)

	// Negative clamps to 0: everything qualifies.
	matches = FindSimilar("zzz", records, -3.0)
	assert.Len(t, matches, 1)
}

func TestFindDuplicateGroups(t *testing.T) {
	records := []Record{
		fakeRecord{id: 1, title: "Fix login bug", desc: "Users cannot login"},
		fakeRecord{id: 2, title: "Fix login bug", desc: "Users cannot login"},
		fakeRecord{id: 3, title: "Unrelated task", desc: "Write release notes"},
	}

	groups := FindDuplicateGroups(records, 0.7)
	require.Len(t, groups, 1)
	require.Len(t, groups[0], 2)

	// Lowest ID is the primary, with score 1.0.
	assert.Equal(t, int64(1), groups[0][0].Record.SimilarityID())
	assert.Equal(t, 1.0, groups[0][0].Score)
	assert.Equal(t, int64(2), groups[0][1].Record.SimilarityID())
	assert.GreaterOrEqual(t, groups[0][1].Score, 0.7)
}

func TestFindDuplicateGroupsDisjoint(t *testing.T) {
	records := []Record{
		fakeRecord{id: 1, title: "Fix login bug", desc: ""},
		fakeRecord{id: 2, title: "Fix login bug", desc: ""},
		fakeRecord{id: 3, title: "Fix login bug now", desc: ""},
		fakeRecord{id: 4, title: "Update the docs", desc: ""},
		fakeRecord{id: 5, title: "Update the docs", desc: ""},
	}

	groups := FindDuplicateGroups(records, 0.6)
	seen := map[int64]bool{}
	for _, g := range groups {
		require.GreaterOrEqual(t, len(g), 2, "no singleton groups")
		for _, m := range g {
			assert.False(t, seen[m.Record.SimilarityID()], "record appears in two groups")
			seen[m.Record.SimilarityID()] = true
		}
	}
}

func TestFindDuplicateGroupsGreedy(t *testing.T) {
	// B clears the threshold against both A and C, but A and C do not
	// clear it against each other. B joins A's group because A has the
	// lower ID, and C is left ungrouped rather than pulled in
	// transitively through B.
	records := []Record{
		fakeRecord{id: 1, title: "fix the database connection timeout", desc: ""},
		fakeRecord{id: 2, title: "database connection timeout", desc: ""},
		fakeRecord{id: 3, title: "database connection", desc: ""},
	}

	require.GreaterOrEqual(t, Calculate(records[1].SimilarityTitle(), records[2].SimilarityTitle()), 0.6)
	require.Less(t, Calculate(records[0].SimilarityTitle(), records[2].SimilarityTitle()), 0.6)

	groups := FindDuplicateGroups(records, 0.6)
	require.Len(t, groups, 1)
	require.Len(t, groups[0], 2)
	assert.Equal(t, int64(1), groups[0][0].Record.SimilarityID())
	assert.Equal(t, int64(2), groups[0][1].Record.SimilarityID())
}

func TestFindDuplicateGroupsDeterministic(t *testing.T) {
	ordered := []Record{
		fakeRecord{id: 1, title: "Fix login bug", desc: ""},
		fakeRecord{id: 2, title: "Fix login bug", desc: ""},
		fakeRecord{id: 3, title: "Other work", desc: ""},
	}
	shuffled := []Record{ordered[2], ordered[0], ordered[1]}

	a := FindDuplicateGroups(ordered, 0.7)
	b := FindDuplicateGroups(shuffled, 0.7)
	require.Equal(t, len(a), len(b))
	for i := range a {
		require.Equal(t, len(a[i]), len(b[i]))
		for j := range a[i] {
			assert.Equal(t, a[i][j].Record.SimilarityID(), b[i][j].Record.SimilarityID())
		}
	}
}

func TestFindDuplicateGroupsHighThreshold(t *testing.T) {
	records := []Record{
		fakeRecord{id: 1, title: "Fix login bug", desc: ""},
		fakeRecord{id: 2, title: "Login page broken", desc: ""},
	}
	assert.Empty(t, FindDuplicateGroups(records, 0.9))
}

func TestFindDuplicateGroupsEmpty(t *testing.T) {
	assert.Empty(t, FindDuplicateGroups(nil, 0.7))
	assert.Empty(t, FindDuplicateGroups([]Record{fakeRecord{id: 1, title: "solo", desc: ""}}, 0.7))
}
