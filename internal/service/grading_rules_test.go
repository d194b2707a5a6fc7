package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/repository"
)

func TestValidateGradeDistribution(t *testing.T) {
	cases := []struct {
		name   string
		grades []int
		valid  bool
	}{
		{name: "permutation", grades: []int{3, 1, 2}, valid: true},
		{name: "empty batch", grades: nil, valid: true},
		{name: "single", grades: []int{1}, valid: true},
		{name: "wrong sum", grades: []int{3, 3, 1}},
		{name: "same sum but repeated", grades: []int{2, 2, 2}},
		{name: "out of range", grades: []int{1, 1, 4}},
		{name: "zero", grades: []int{0, 1}},
		{name: "negative", grades: []int{-1, 2}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateGradeDistribution(tc.grades)
			if tc.valid {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidGradeDistribution)
		})
	}
}

func TestSelectForReviewPrefersLeastReviewed(t *testing.T) {
	pool := []repository.ReviewCandidate{
		{SubmissionID: 1, ReviewCount: 2},
		{SubmissionID: 2, ReviewCount: 0},
		{SubmissionID: 3, ReviewCount: 1},
		{SubmissionID: 4, ReviewCount: 0},
	}

	selected := selectForReview(pool, 3)
	require.Len(t, selected, 3)
	require.Equal(t, uint(2), selected[0].SubmissionID)
	require.Equal(t, uint(4), selected[1].SubmissionID)
	require.Equal(t, uint(3), selected[2].SubmissionID)

	// the input keeps its order
	require.Equal(t, uint(1), pool[0].SubmissionID)
}

func TestSelectForReviewCoverageBound(t *testing.T) {
	pool := []repository.ReviewCandidate{{SubmissionID: 7}, {SubmissionID: 5}}

	require.Len(t, selectForReview(pool, 5), 2)
	require.Len(t, selectForReview(pool, 1), 1)
	require.Empty(t, selectForReview(pool, 0))
	require.Empty(t, selectForReview(nil, 3))
}

func TestTotalScoreIgnoresUngraded(t *testing.T) {
	grade := func(v int) *int { return &v }
	grades := []models.SubmissionGrade{
		{Status: models.SubmissionGradeDone, Grade: grade(3)},
		{Status: models.SubmissionGradeDone, Grade: grade(1)},
		{Status: models.SubmissionGradeDone, Grade: grade(2)},
		{Status: models.SubmissionGradeInProgress},
	}

	require.Equal(t, 6, totalScore(grades))
	require.Zero(t, totalScore(nil))
}
