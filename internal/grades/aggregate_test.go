package grades

import (
	"testing"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/brightspace"
)

func TestComputeFinalGrade(t *testing.T) {
	cases := []struct {
		name       string
		items      []brightspace.GradeItem
		categories []brightspace.GradeCategory
		want       float64
	}{
		{
			name: "empty item list",
			want: 0,
		},
		{
			name: "plain sum",
			items: []brightspace.GradeItem{
				{MaxPoints: 10, GradeType: "Numeric"},
				{MaxPoints: 20.5, GradeType: "Numeric"},
			},
			want: 30.5,
		},
		{
			name: "calculated items skipped",
			items: []brightspace.GradeItem{
				{MaxPoints: 10, GradeType: "Numeric"},
				{MaxPoints: 100, GradeType: "Calculated"},
			},
			want: 10,
		},
		{
			name: "zero and negative points skipped",
			items: []brightspace.GradeItem{
				{MaxPoints: 0, GradeType: "Numeric"},
				{MaxPoints: -5, GradeType: "Numeric"},
				{MaxPoints: 15, GradeType: "Numeric"},
			},
			want: 15,
		},
		{
			name: "bonus and item-level exclusion skipped",
			items: []brightspace.GradeItem{
				{MaxPoints: 10, GradeType: "Numeric", IsBonus: true},
				{MaxPoints: 10, GradeType: "Numeric", ExcludeFromFinalGradeCalculation: true},
				{MaxPoints: 10, GradeType: "Numeric"},
			},
			want: 10,
		},
		{
			name: "excluded category skipped",
			items: []brightspace.GradeItem{
				{MaxPoints: 10, GradeType: "Numeric", CategoryID: 1},
				{MaxPoints: 20, GradeType: "Numeric", CategoryID: 2},
			},
			categories: []brightspace.GradeCategory{
				{ID: 1, ExcludeFromFinalGrade: true},
				{ID: 2},
			},
			want: 20,
		},
		{
			name: "rounded to two decimals",
			items: []brightspace.GradeItem{
				{MaxPoints: 0.1, GradeType: "Numeric"},
				{MaxPoints: 0.2, GradeType: "Numeric"},
			},
			want: 0.3,
		},
		{
			name: "all items filtered out",
			items: []brightspace.GradeItem{
				{MaxPoints: 50, GradeType: "Calculated"},
				{MaxPoints: 10, GradeType: "Numeric", IsBonus: true},
			},
			want: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComputeFinalGrade(tc.items, tc.categories); got != tc.want {
				t.Errorf("ComputeFinalGrade() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestComputeFinalGradeOrderIndependent(t *testing.T) {
	items := []brightspace.GradeItem{
		{MaxPoints: 12.5, GradeType: "Numeric"},
		{MaxPoints: 30, GradeType: "Numeric", IsBonus: true},
		{MaxPoints: 7.25, GradeType: "Numeric", CategoryID: 1},
		{MaxPoints: 50, GradeType: "Calculated"},
		{MaxPoints: 20, GradeType: "Numeric"},
	}
	categories := []brightspace.GradeCategory{{ID: 1}}

	want := ComputeFinalGrade(items, categories)
	reversed := make([]brightspace.GradeItem, len(items))
	for i, item := range items {
		reversed[len(items)-1-i] = item
	}
	if got := ComputeFinalGrade(reversed, categories); got != want {
		t.Errorf("reversed input = %v, want %v", got, want)
	}
}
