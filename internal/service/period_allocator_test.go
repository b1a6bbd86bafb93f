package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func TestAllocateWeeklyPeriods(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		expected []int
	}{
		{name: "even split", total: 25, expected: []int{5, 5, 5, 5, 5}},
		{name: "remainder goes to earliest days", total: 27, expected: []int{6, 6, 5, 5, 5}},
		{name: "single remainder", total: 26, expected: []int{6, 5, 5, 5, 5}},
		{name: "less than a week", total: 3, expected: []int{1, 1, 1, 0, 0}},
		{name: "zero", total: 0, expected: []int{0, 0, 0, 0, 0}},
		{name: "negative treated as zero", total: -4, expected: []int{0, 0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AllocateWeeklyPeriods(tt.total))
		})
	}
}

func TestAllocateWeeklyPeriodsSumInvariant(t *testing.T) {
	for total := 1; total <= 60; total++ {
		allocation := AllocateWeeklyPeriods(total)
		require.Len(t, allocation, len(models.SchoolDays))

		sum := 0
		for i, periods := range allocation {
			sum += periods
			if i > 0 {
				assert.LessOrEqual(t, allocation[i], allocation[i-1], "total %d: later day exceeds earlier day", total)
			}
		}
		assert.Equal(t, total, sum, "total %d: allocation must sum back", total)
	}
}

func TestSchoolGridUsesLargestGrade(t *testing.T) {
	plans := models.StudyPlan{}
	g10 := models.GradePlan{}
	g10.SetSubject("Math", 10)
	g10.SetSubject("Science", 7)
	plans["Grade 10"] = g10

	g11 := models.GradePlan{}
	g11.SetSubject("Math", 6)
	plans["Grade 11"] = g11

	assert.Equal(t, []int{4, 4, 3, 3, 3}, SchoolGrid(plans))
}

func TestGradeTargetsWithoutPlan(t *testing.T) {
	plans := models.StudyPlan{}
	assert.Equal(t, []int{0, 0, 0, 0, 0}, GradeTargets(plans, "Grade 12"))
}
