package service

import (
	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// AllocateWeeklyPeriods splits a weekly period total across the school week,
// Sunday-first. Day i receives base+1 while the remainder lasts, so the five
// allocations always sum back to the input. A zero total yields all zeros.
func AllocateWeeklyPeriods(totalWeekly int) []int {
	days := len(models.SchoolDays)
	allocation := make([]int, days)
	if totalWeekly <= 0 {
		return allocation
	}

	base := totalWeekly / days
	extra := totalWeekly % days
	for i := 0; i < days; i++ {
		allocation[i] = base
		if i < extra {
			allocation[i]++
		}
	}
	return allocation
}

// SchoolGrid sizes the shared daily period grid: the allocation of the
// largest weekly total across all grades.
func SchoolGrid(plans models.StudyPlan) []int {
	return AllocateWeeklyPeriods(plans.MaxWeeklyTotal())
}

// GradeTargets returns how many of the day's slots the grade uses, per day.
// A grade without a study plan gets an all-zero target and is skipped by the
// generation run.
func GradeTargets(plans models.StudyPlan, stage string) []int {
	plan, ok := plans[stage]
	if !ok {
		return make([]int, len(models.SchoolDays))
	}
	return AllocateWeeklyPeriods(plan.Total)
}
