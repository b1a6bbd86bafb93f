package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/oracle"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type classReader interface {
	List(ctx context.Context) ([]models.ClassData, error)
}

type rosterReader interface {
	Roster(ctx context.Context) ([]models.Teacher, error)
	Unavailability(ctx context.Context) (models.TeacherUnavailability, error)
}

type studyPlanReader interface {
	ByLevel(ctx context.Context, schoolLevel string) (models.StudyPlan, error)
}

// GenerationService drives the day-by-day generation run: it sequences
// per-grade oracle calls, re-validates every untrusted oracle result, merges
// grades into each day and commits finished days through the session.
type GenerationService struct {
	sessions  *SessionRegistry
	oracle    oracle.Generator
	classes   classReader
	teachers  rosterReader
	plans     studyPlanReader
	validator *validator.Validate
	conflicts ConflictValidator
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       config.TimetableConfig
}

// NewGenerationService wires the generation run dependencies.
func NewGenerationService(
	sessions *SessionRegistry,
	gen oracle.Generator,
	classes classReader,
	teachers rosterReader,
	plans studyPlanReader,
	validate *validator.Validate,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg config.TimetableConfig,
) *GenerationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationService{
		sessions:  sessions,
		oracle:    gen,
		classes:   classes,
		teachers:  teachers,
		plans:     plans,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run executes a generation run from the requested day index. Days before
// the index keep their schedule and status; days at or after are cleared and
// regenerated. The first failure halts the run and leaves the failed day
// marked; completed days stay populated so the caller can fix inputs and
// resume from the failed index.
func (s *GenerationService) Run(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}

	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class list")
	}
	if len(classes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no classes defined for this school")
	}
	roster, err := s.teachers.Roster(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher roster")
	}
	unavailability, err := s.teachers.Unavailability(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher unavailability")
	}
	plans, err := s.plans.ByLevel(ctx, req.SchoolLevel)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study plans")
	}
	if len(plans) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("no study plan defined for level %s", req.SchoolLevel))
	}

	grid := SchoolGrid(plans)
	byStage := models.ClassesByStage(classes)
	stages := make([]string, 0, len(byStage))
	for stage := range byStage {
		stages = append(stages, stage)
	}
	sort.Strings(stages)

	targets := make(map[string][]int, len(stages))
	for _, stage := range stages {
		targets[stage] = GradeTargets(plans, stage)
	}

	session := s.sessions.Get(req.OwnerID)
	session.Lock()
	defer session.Unlock()

	session.SetSchoolLevel(req.SchoolLevel)
	session.ClearDaysFrom(req.StartDay)

	runID := uuid.NewString()
	s.logger.Info("generation run started",
		zap.String("run_id", runID),
		zap.String("owner_id", req.OwnerID),
		zap.Int("start_day", req.StartDay),
	)

	for i := req.StartDay; i < len(models.SchoolDays); i++ {
		day := models.SchoolDays[i]
		session.SetDayStatus(day, models.DayStatusGenerating)

		working := make([]models.SchedulePeriod, 0, grid[i])
		for _, stage := range stages {
			target := targets[stage][i]
			if target == 0 {
				continue
			}

			result, oracleErr := s.callOracle(ctx, oracle.Request{
				Day:            day,
				DayIndex:       i,
				Stage:          stage,
				Classes:        byStage[stage],
				TodaysPrior:    clonePeriods(working),
				Roster:         roster,
				StudyPlans:     plans,
				TotalPeriods:   grid[i],
				TargetPeriods:  target,
				SchoolLevel:    req.SchoolLevel,
				PriorDays:      priorDays(session.Schedule(), i),
				AllClasses:     classes,
				Unavailability: unavailability,
			})
			if oracleErr != nil {
				session.SetDayStatus(day, models.DayStatusFailed)
				s.metrics.CountRun("failed")
				s.metrics.CountOracleFailure()
				s.logger.Warn("generation halted",
					zap.String("run_id", runID),
					zap.String("day", day),
					zap.String("stage", stage),
					zap.Error(oracleErr),
				)
				return nil, appErrors.Wrap(oracleErr, appErrors.ErrOracleFailure.Code, appErrors.ErrOracleFailure.Status,
					fmt.Sprintf("generation failed on %s for %s", day, stage))
			}

			merged, report := s.mergeGrade(working, result)
			if report != nil {
				session.SetDayStatus(day, models.DayStatusFailed)
				s.metrics.CountRun("failed")
				s.logger.Warn("oracle result rejected",
					zap.String("run_id", runID),
					zap.String("day", day),
					zap.String("stage", stage),
					zap.String("teacher", report.Teacher),
				)
				return nil, appErrors.Clone(appErrors.ErrHardConflict, fmt.Sprintf("%s on %s", report.Message, day))
			}
			working = merged
		}

		sort.Slice(working, func(a, b int) bool { return working[a].Period < working[b].Period })
		session.CommitDay(day, working)
		session.SetDayStatus(day, models.DayStatusDone)
	}

	s.metrics.CountRun("completed")
	return &dto.GenerateTimetableResponse{
		RunID:    runID,
		Statuses: session.Status().Clone(),
		DaysDone: session.Status().DoneCount(),
		Grid:     grid,
	}, nil
}

// State returns the current schedule, statuses and publication state.
func (s *GenerationService) State(ctx context.Context, ownerID string) (*dto.TimetableStateResponse, error) {
	if ownerID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "ownerId is required")
	}
	session := s.sessions.Get(ownerID)
	session.Lock()
	defer session.Unlock()
	return &dto.TimetableStateResponse{
		Schedule:     session.Schedule().Clone(),
		Statuses:     session.Status().Clone(),
		Publication:  *session.Publication(),
		HistoryDepth: session.HistoryDepth(),
	}, nil
}

// Allocation previews the school grid and per-grade day targets for a level.
func (s *GenerationService) Allocation(ctx context.Context, schoolLevel string) (*dto.AllocationResponse, error) {
	if schoolLevel == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schoolLevel is required")
	}
	plans, err := s.plans.ByLevel(ctx, schoolLevel)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study plans")
	}
	if len(plans) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no study plan defined for level %s", schoolLevel))
	}
	targets := make(map[string][]int, len(plans))
	for stage := range plans {
		targets[stage] = GradeTargets(plans, stage)
	}
	return &dto.AllocationResponse{
		SchoolLevel:  schoolLevel,
		Grid:         SchoolGrid(plans),
		GradeTargets: targets,
	}, nil
}

// callOracle is the run's only suspend point; a configured timeout bounds it.
func (s *GenerationService) callOracle(ctx context.Context, req oracle.Request) ([]models.SchedulePeriod, error) {
	if s.cfg.OracleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.OracleTimeout)
		defer cancel()
	}
	result, err := s.oracle.GenerateDay(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, oracle.ErrNoResult
	}
	return result, nil
}

// mergeGrade folds one grade's oracle output into the day being built,
// re-checking the hard rule placement by placement so a double-booked
// teacher is caught whether the clash is cross-grade or inside the result.
func (s *GenerationService) mergeGrade(working, result []models.SchedulePeriod) ([]models.SchedulePeriod, *ConflictReport) {
	out := working
	for _, period := range result {
		keys := make([]string, 0, len(period.Assignments))
		for key := range period.Assignments {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, classKey := range keys {
			assignment := period.Assignments[classKey]
			if report := s.conflicts.CheckPlacement(out, period.Period, classKey, assignment.Teacher); report != nil {
				return nil, report
			}
			out = setPeriodAssignment(out, period.Period, classKey, assignment)
		}
	}
	return out, nil
}

func setPeriodAssignment(periods []models.SchedulePeriod, periodNo int, classKey string, a models.Assignment) []models.SchedulePeriod {
	for i := range periods {
		if periods[i].Period == periodNo {
			periods[i].Assignments[classKey] = a
			return periods
		}
	}
	return append(periods, models.SchedulePeriod{
		Period:      periodNo,
		Assignments: map[string]models.Assignment{classKey: a},
	})
}

func clonePeriods(periods []models.SchedulePeriod) []models.SchedulePeriod {
	out := make([]models.SchedulePeriod, 0, len(periods))
	for _, p := range periods {
		out = append(out, p.Clone())
	}
	return out
}

// priorDays clones the already-generated part of the week, days [0, before).
func priorDays(schedule models.ScheduleData, before int) models.ScheduleData {
	out := make(models.ScheduleData, before)
	for i := 0; i < before; i++ {
		day := models.SchoolDays[i]
		if periods, ok := schedule[day]; ok {
			out[day] = clonePeriods(periods)
		}
	}
	return out
}
