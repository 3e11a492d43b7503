package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"AUScraper/internal/models"
)

func TestPageState_MergeIsPure(t *testing.T) {
	s0 := NewPageState()
	s1, added := s0.Merge([]models.Candidate{
		{URL: "https://x/class/a", Title: "A"},
		{URL: "https://x/class/b", Title: "B"},
		{URL: "https://x/class/a", Title: "A again"},
	}, true)

	assert.Equal(t, 2, added)
	assert.Equal(t, 0, s0.Len(), "receiver must not change")
	assert.Equal(t, 2, s1.Len())
	assert.True(t, s1.NextAvailable)

	s2, added := s1.Merge([]models.Candidate{
		{URL: "https://x/class/b", Title: "B renamed"},
		{URL: "https://x/class/c", Title: "C"},
	}, false)
	assert.Equal(t, 1, added)
	assert.Equal(t, 2, s1.Len())
	assert.Equal(t, []models.Candidate{
		{URL: "https://x/class/a", Title: "A"},
		{URL: "https://x/class/b", Title: "B"},
		{URL: "https://x/class/c", Title: "C"},
	}, s2.Candidates())
}

func TestPageState_Advance(t *testing.T) {
	s, _ := NewPageState().Merge([]models.Candidate{{URL: "u", Title: "t"}}, true)
	next := s.Advance()
	assert.Equal(t, 2, next.PageNum)
	assert.False(t, next.NextAvailable)
	assert.Equal(t, 1, next.Len())
	assert.Equal(t, 1, s.PageNum)
}

func TestAssessPage(t *testing.T) {
	p := retryPolicy{MinItems: 15, MaxRetries: 3, ReloadOnRetry: 2}
	tests := []struct {
		name    string
		count   int
		next    bool
		retries int
		want    verdict
	}{
		{"full page", 16, true, 0, verdictAccept},
		{"exactly the threshold", 15, true, 0, verdictAccept},
		{"last page may be short", 3, false, 0, verdictAccept},
		{"empty last page", 0, false, 0, verdictAccept},
		{"short page first pass", 10, true, 0, verdictRetry},
		{"short page second pass", 10, true, 1, verdictRetry},
		{"short page third pass", 10, true, 2, verdictGiveUp},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, assessPage(tc.count, tc.next, tc.retries, p))
		})
	}
}

func TestRetryPolicy_ReloadBefore(t *testing.T) {
	p := retryPolicy{MinItems: 15, MaxRetries: 3, ReloadOnRetry: 2}
	assert.False(t, p.reloadBefore(1))
	assert.True(t, p.reloadBefore(2))
	assert.False(t, p.reloadBefore(3))

	assert.False(t, retryPolicy{ReloadOnRetry: -1}.reloadBefore(-1))
}
