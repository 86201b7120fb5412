package patterns

import (
	"math"

	"github.com/google/uuid"
	"github.com/quietgrove/intently/internal/models"
)

// MaxPreferredDays is how many weekday names a pattern keeps
const MaxPreferredDays = 3

// Compute derives a BehaviorPattern snapshot from commitment history.
// completed holds the user's completed commitments; all holds every
// commitment (completed or not) and is the denominator of the completion
// rate. It is a pure function of its inputs.
//
// Tie-breaks for the modal hour and preferred days are first-encountered in
// input order, which keeps the result deterministic for a given snapshot.
func Compute(userID uuid.UUID, completed, all []*models.Commitment) *models.BehaviorPattern {
	return &models.BehaviorPattern{
		UserID:                userID,
		TypicalCompletionHour: typicalHour(completed),
		PreferredDays:         preferredDays(completed),
		AvgCompletionRate:     completionRate(all),
	}
}

// typicalHour buckets completed commitments by the hour component of their
// due time and returns the fullest bucket. Returns 0 with no valid input.
func typicalHour(completed []*models.Commitment) int {
	counts := make(map[int]int)
	var order []int

	for _, c := range completed {
		hour, err := c.DueHour()
		if err != nil {
			continue
		}
		if counts[hour] == 0 {
			order = append(order, hour)
		}
		counts[hour]++
	}

	best := 0
	bestCount := 0
	for _, hour := range order {
		if counts[hour] > bestCount {
			best = hour
			bestCount = counts[hour]
		}
	}
	return best
}

// preferredDays returns up to three weekday names ranked by how often
// completed commitments fall on them, descending.
func preferredDays(completed []*models.Commitment) []string {
	counts := make(map[string]int)
	var order []string

	for _, c := range completed {
		day, err := c.DueWeekday()
		if err != nil {
			continue
		}
		if counts[day] == 0 {
			order = append(order, day)
		}
		counts[day]++
	}

	var days []string
	picked := make(map[string]bool)
	for len(days) < MaxPreferredDays && len(days) < len(order) {
		best := ""
		bestCount := 0
		for _, day := range order {
			if picked[day] {
				continue
			}
			if counts[day] > bestCount {
				best = day
				bestCount = counts[day]
			}
		}
		if best == "" {
			break
		}
		picked[best] = true
		days = append(days, best)
	}
	return days
}

// completionRate is completed/total over all commitments, rounded to two
// decimal places. Zero commitments yields 0, never a division by zero.
func completionRate(all []*models.Commitment) float64 {
	if len(all) == 0 {
		return 0
	}
	done := 0
	for _, c := range all {
		if c.Completed {
			done++
		}
	}
	rate := float64(done) / float64(len(all))
	return math.Round(rate*100) / 100
}
