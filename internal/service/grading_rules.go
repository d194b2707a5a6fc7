package service

import (
	"sort"

	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/repository"
)

// validateGradeDistribution accepts a batch of M grades only when it is exactly {1..M}.
// Checking the sum alone would admit batches such as [2,2,2].
func validateGradeDistribution(grades []int) error {
	m := len(grades)
	seen := make([]bool, m+1)
	for _, grade := range grades {
		if grade < 1 || grade > m || seen[grade] {
			return ErrInvalidGradeDistribution
		}
		seen[grade] = true
	}
	return nil
}

// selectForReview picks up to n candidates, least reviewed first, breaking ties by submission id.
func selectForReview(pool []repository.ReviewCandidate, n int) []repository.ReviewCandidate {
	if n <= 0 || len(pool) == 0 {
		return nil
	}

	ranked := append([]repository.ReviewCandidate(nil), pool...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].ReviewCount != ranked[j].ReviewCount {
			return ranked[i].ReviewCount < ranked[j].ReviewCount
		}
		return ranked[i].SubmissionID < ranked[j].SubmissionID
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// totalScore sums DONE grades; unscored assignments contribute nothing.
func totalScore(grades []models.SubmissionGrade) int {
	total := 0
	for _, grade := range grades {
		if !grade.IsDone() || grade.Grade == nil {
			continue
		}
		total += *grade.Grade
	}
	return total
}
