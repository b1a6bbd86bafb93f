package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func heuristicRequest() Request {
	plan := models.GradePlan{}
	plan.SetSubject("Math", 5)
	plan.SetSubject("Arabic", 5)

	return Request{
		Day:      "Sunday",
		DayIndex: 0,
		Stage:    "Grade 10",
		Classes: []models.ClassData{
			{ID: "c1", Stage: "Grade 10", Section: "A"},
		},
		Roster: []models.Teacher{
			{ID: "t1", FullName: "Ahmed", Assignments: []models.TeacherAssignment{
				{TeacherID: "t1", Subject: "Math", ClassKey: "Grade_10-A"},
			}},
			{ID: "t2", FullName: "Huda", Assignments: []models.TeacherAssignment{
				{TeacherID: "t2", Subject: "Arabic", ClassKey: "Grade_10-A"},
			}},
		},
		StudyPlans:     models.StudyPlan{"Grade 10": plan},
		TotalPeriods:   2,
		TargetPeriods:  2,
		SchoolLevel:    "secondary",
		PriorDays:      models.ScheduleData{},
		Unavailability: models.TeacherUnavailability{},
	}
}

func TestGenerateDayFillsEverySlot(t *testing.T) {
	h := NewHeuristic(nil)
	req := heuristicRequest()

	periods, err := h.GenerateDay(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, periods, 2)

	subjects := map[string]int{}
	for _, period := range periods {
		a, ok := period.Assignments["Grade_10-A"]
		require.True(t, ok, "period %d must be filled", period.Period)
		assert.NotEmpty(t, a.Teacher)
		subjects[a.Subject]++
	}

	// Equal weekly demand spread over five days caps each subject at one
	// placement today.
	assert.Equal(t, map[string]int{"Math": 1, "Arabic": 1}, subjects)
}

func TestGenerateDayHonorsPriorPlacements(t *testing.T) {
	h := NewHeuristic(nil)
	req := heuristicRequest()
	req.TodaysPrior = []models.SchedulePeriod{
		{Period: 1, Assignments: map[string]models.Assignment{
			"Grade_11-A": {Subject: "Math", Teacher: "Ahmed"},
		}},
	}

	periods, err := h.GenerateDay(context.Background(), req)
	require.NoError(t, err)

	for _, period := range periods {
		a := period.Assignments["Grade_10-A"]
		if period.Period == 1 {
			assert.NotEqual(t, "Ahmed", a.Teacher, "Ahmed is already booked in period 1")
		}
	}
}

func TestGenerateDayRespectsUnavailability(t *testing.T) {
	h := NewHeuristic(nil)
	req := heuristicRequest()
	req.Unavailability = models.TeacherUnavailability{"Ahmed": {"Sunday"}}

	plan := models.GradePlan{}
	plan.SetSubject("Math", 5)
	req.StudyPlans = models.StudyPlan{"Grade 10": plan}
	req.TargetPeriods = 1

	_, err := h.GenerateDay(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestGenerateDayFailsWithoutTeacher(t *testing.T) {
	h := NewHeuristic(nil)
	req := heuristicRequest()
	req.Roster = nil

	_, err := h.GenerateDay(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestGenerateDaySkipsSatisfiedDemand(t *testing.T) {
	h := NewHeuristic(nil)
	req := heuristicRequest()
	req.DayIndex = 4
	req.Day = "Thursday"
	req.TargetPeriods = 2

	// Math has been fully taught earlier in the week; only Arabic remains.
	prior := models.ScheduleData{}
	for _, day := range models.SchoolDays[:4] {
		prior[day] = []models.SchedulePeriod{
			{Period: 1, Assignments: map[string]models.Assignment{
				"Grade_10-A": {Subject: "Math", Teacher: "Ahmed"},
			}},
		}
	}
	prior["Sunday"] = append(prior["Sunday"], models.SchedulePeriod{
		Period: 2, Assignments: map[string]models.Assignment{
			"Grade_10-A": {Subject: "Math", Teacher: "Ahmed"},
		},
	})
	req.PriorDays = prior

	periods, err := h.GenerateDay(context.Background(), req)
	require.NoError(t, err)

	for _, period := range periods {
		assert.Equal(t, "Arabic", period.Assignments["Grade_10-A"].Subject)
	}
}

func TestGenerateDayZeroTarget(t *testing.T) {
	h := NewHeuristic(nil)
	req := heuristicRequest()
	req.TargetPeriods = 0

	periods, err := h.GenerateDay(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, periods)
}
