package oracle

import (
	"context"
	"errors"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// ErrNoResult signals that the oracle could not produce a feasible set of
// placements for the requested grade and day.
var ErrNoResult = errors.New("oracle: no feasible assignment")

// Request carries the full generation context for one (day, grade) pair.
type Request struct {
	Day      string
	DayIndex int
	Stage    string
	// Classes are the class-sections of this grade.
	Classes []models.ClassData
	// TodaysPrior holds the periods already filled by earlier grades today.
	// The oracle must not double-book a teacher against them.
	TodaysPrior []models.SchedulePeriod
	Roster      []models.Teacher
	StudyPlans  models.StudyPlan
	// TotalPeriods is the shared grid height for the day; TargetPeriods is
	// how many of those slots this grade actually uses.
	TotalPeriods  int
	TargetPeriods int
	SchoolLevel   string
	// PriorDays is the schedule for the days generated earlier this week,
	// used to spread subjects evenly.
	PriorDays      models.ScheduleData
	AllClasses     []models.ClassData
	Unavailability models.TeacherUnavailability
}

// Generator proposes subject/teacher placements for one grade on one day.
// Implementations may be heuristic, constraint-based, or remote; callers
// never trust the output and re-validate it before merging.
type Generator interface {
	GenerateDay(ctx context.Context, req Request) ([]models.SchedulePeriod, error)
}
