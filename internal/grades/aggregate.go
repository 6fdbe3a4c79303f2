// Package grades computes the derived per-class figures cached by the sync
// engine: the final-grade total and the content summary.
package grades

import (
	"math"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/brightspace"
)

// gradeTypeCalculated marks roll-up items that must not count toward the
// final-grade total.
const gradeTypeCalculated = "Calculated"

// ComputeFinalGrade sums MaxPoints over every grade item that counts toward
// the final grade: not calculated, positive points, not bonus, not excluded
// individually nor through its category. The result is rounded to 2 decimal
// places; an empty item list yields exactly 0. The reduction is pure and
// order-independent.
func ComputeFinalGrade(items []brightspace.GradeItem, categories []brightspace.GradeCategory) float64 {
	if len(items) == 0 {
		return 0
	}

	excludedCategories := make(map[int64]struct{})
	for _, cat := range categories {
		if cat.ExcludeFromFinalGrade {
			excludedCategories[cat.ID] = struct{}{}
		}
	}

	var total float64
	for _, item := range items {
		if item.GradeType == gradeTypeCalculated {
			continue
		}
		if item.MaxPoints <= 0 {
			continue
		}
		if item.IsBonus || item.ExcludeFromFinalGradeCalculation {
			continue
		}
		if _, excluded := excludedCategories[item.CategoryID]; excluded {
			continue
		}
		total += item.MaxPoints
	}

	return math.Round(total*100) / 100
}
