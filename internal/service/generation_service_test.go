package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/oracle"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type fakeClassReader struct {
	classes []models.ClassData
	err     error
}

func (f fakeClassReader) List(ctx context.Context) ([]models.ClassData, error) {
	return f.classes, f.err
}

type fakeRosterReader struct {
	roster         []models.Teacher
	unavailability models.TeacherUnavailability
	err            error
}

func (f fakeRosterReader) Roster(ctx context.Context) ([]models.Teacher, error) {
	return f.roster, f.err
}

func (f fakeRosterReader) Unavailability(ctx context.Context) (models.TeacherUnavailability, error) {
	return f.unavailability, nil
}

type fakePlanReader struct {
	plans models.StudyPlan
	err   error
}

func (f fakePlanReader) ByLevel(ctx context.Context, schoolLevel string) (models.StudyPlan, error) {
	return f.plans, f.err
}

// scriptedOracle fills every slot of the requested grade with a fixed subject
// and teacher per stage, and can be told to fail on a given day.
type scriptedOracle struct {
	subjectByStage map[string]string
	teacherByStage map[string]string
	failOn         map[string]error
	calls          int
}

func (o *scriptedOracle) GenerateDay(ctx context.Context, req oracle.Request) ([]models.SchedulePeriod, error) {
	o.calls++
	if err, ok := o.failOn[req.Day]; ok {
		return nil, err
	}

	periods := make([]models.SchedulePeriod, 0, req.TargetPeriods)
	for p := 1; p <= req.TargetPeriods; p++ {
		assignments := make(map[string]models.Assignment, len(req.Classes))
		for _, class := range req.Classes {
			assignments[class.Ref().Key()] = models.Assignment{
				Subject: o.subjectByStage[req.Stage],
				Teacher: o.teacherByStage[req.Stage],
			}
		}
		periods = append(periods, models.SchedulePeriod{Period: p, Assignments: assignments})
	}
	return periods, nil
}

func generationFixture(gen oracle.Generator) *GenerationService {
	classes := []models.ClassData{
		{ID: "c1", Stage: "Grade 10", Section: "A"},
		{ID: "c2", Stage: "Grade 11", Section: "A"},
	}

	g10 := models.GradePlan{}
	g10.SetSubject("Math", 5)
	g11 := models.GradePlan{}
	g11.SetSubject("Biology", 5)
	plans := models.StudyPlan{"Grade 10": g10, "Grade 11": g11}

	roster := []models.Teacher{
		{ID: "t1", FullName: "Ahmed", Assignments: []models.TeacherAssignment{
			{TeacherID: "t1", Subject: "Math", ClassKey: "Grade_10-A"},
		}},
		{ID: "t2", FullName: "Sara", Assignments: []models.TeacherAssignment{
			{TeacherID: "t2", Subject: "Biology", ClassKey: "Grade_11-A"},
		}},
	}

	sessions := NewSessionRegistry(0)
	svc := NewGenerationService(
		sessions,
		gen,
		fakeClassReader{classes: classes},
		fakeRosterReader{roster: roster, unavailability: models.TeacherUnavailability{}},
		fakePlanReader{plans: plans},
		nil,
		nil,
		nil,
		config.TimetableConfig{},
	)
	return svc
}

func TestRunGeneratesFullWeek(t *testing.T) {
	gen := &scriptedOracle{
		subjectByStage: map[string]string{"Grade 10": "Math", "Grade 11": "Biology"},
		teacherByStage: map[string]string{"Grade 10": "Ahmed", "Grade 11": "Sara"},
	}
	svc := generationFixture(gen)

	result, err := svc.Run(context.Background(), dto.GenerateTimetableRequest{
		OwnerID:     "owner-1",
		SchoolLevel: "secondary",
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.DaysDone)
	assert.Equal(t, []int{1, 1, 1, 1, 1}, result.Grid)
	for _, day := range models.SchoolDays {
		assert.Equal(t, models.DayStatusDone, result.Statuses[day])
	}
	// One call per (day, grade) pair.
	assert.Equal(t, 10, gen.calls)

	state, err := svc.State(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Len(t, state.Schedule, 5)
	assert.True(t, state.Publication.HasUnpublishedChanges)
	assert.Equal(t, 5, state.HistoryDepth)
	assert.Equal(t, "Ahmed", state.Schedule["Monday"][0].Assignments["Grade_10-A"].Teacher)
}

func TestRunRejectsCrossGradeDoubleBooking(t *testing.T) {
	gen := &scriptedOracle{
		subjectByStage: map[string]string{"Grade 10": "Math", "Grade 11": "Biology"},
		teacherByStage: map[string]string{"Grade 10": "Ahmed", "Grade 11": "Ahmed"},
	}
	svc := generationFixture(gen)

	_, err := svc.Run(context.Background(), dto.GenerateTimetableRequest{
		OwnerID:     "owner-1",
		SchoolLevel: "secondary",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrHardConflict.Code, appErrors.FromError(err).Code)

	state, err := svc.State(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, models.DayStatusFailed, state.Statuses["Sunday"])
	for _, day := range models.SchoolDays[1:] {
		assert.Equal(t, models.DayStatusPending, state.Statuses[day])
	}
}

func TestRunHaltsOnOracleFailureAndResumes(t *testing.T) {
	gen := &scriptedOracle{
		subjectByStage: map[string]string{"Grade 10": "Math", "Grade 11": "Biology"},
		teacherByStage: map[string]string{"Grade 10": "Ahmed", "Grade 11": "Sara"},
		failOn:         map[string]error{"Tuesday": oracle.ErrNoResult},
	}
	svc := generationFixture(gen)

	_, err := svc.Run(context.Background(), dto.GenerateTimetableRequest{
		OwnerID:     "owner-1",
		SchoolLevel: "secondary",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOracleFailure.Code, appErrors.FromError(err).Code)

	state, err := svc.State(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, models.DayStatusDone, state.Statuses["Sunday"])
	assert.Equal(t, models.DayStatusDone, state.Statuses["Monday"])
	assert.Equal(t, models.DayStatusFailed, state.Statuses["Tuesday"])
	assert.Equal(t, models.DayStatusPending, state.Statuses["Wednesday"])
	assert.Equal(t, models.DayStatusPending, state.Statuses["Thursday"])
	assert.NotContains(t, state.Schedule, "Tuesday")

	// Resuming from the failed index regenerates only Tuesday onward.
	gen.failOn = nil
	result, err := svc.Run(context.Background(), dto.GenerateTimetableRequest{
		OwnerID:     "owner-1",
		SchoolLevel: "secondary",
		StartDay:    2,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, result.DaysDone)

	state, err = svc.State(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Len(t, state.Schedule, 5)
	assert.Equal(t, "Ahmed", state.Schedule["Sunday"][0].Assignments["Grade_10-A"].Teacher)
}

func TestRunRequiresClasses(t *testing.T) {
	sessions := NewSessionRegistry(0)
	svc := NewGenerationService(
		sessions,
		&scriptedOracle{},
		fakeClassReader{},
		fakeRosterReader{},
		fakePlanReader{},
		nil, nil, nil,
		config.TimetableConfig{},
	)

	_, err := svc.Run(context.Background(), dto.GenerateTimetableRequest{
		OwnerID:     "owner-1",
		SchoolLevel: "secondary",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRunWrapsRepositoryFailure(t *testing.T) {
	sessions := NewSessionRegistry(0)
	svc := NewGenerationService(
		sessions,
		&scriptedOracle{},
		fakeClassReader{err: errors.New("connection refused")},
		fakeRosterReader{},
		fakePlanReader{},
		nil, nil, nil,
		config.TimetableConfig{},
	)

	_, err := svc.Run(context.Background(), dto.GenerateTimetableRequest{
		OwnerID:     "owner-1",
		SchoolLevel: "secondary",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestAllocationPreview(t *testing.T) {
	g10 := models.GradePlan{}
	g10.SetSubject("Math", 17)
	plans := models.StudyPlan{"Grade 10": g10}

	svc := NewGenerationService(
		NewSessionRegistry(0),
		&scriptedOracle{},
		fakeClassReader{},
		fakeRosterReader{},
		fakePlanReader{plans: plans},
		nil, nil, nil,
		config.TimetableConfig{},
	)

	result, err := svc.Allocation(context.Background(), "secondary")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4, 3, 3, 3}, result.Grid)
	assert.Equal(t, []int{4, 4, 3, 3, 3}, result.GradeTargets["Grade 10"])
}
