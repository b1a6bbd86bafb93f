package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type editRosterReader interface {
	Roster(ctx context.Context) ([]models.Teacher, error)
}

// EditService applies interactive edits to a session's schedule. Every
// operation is all-or-nothing: it is simulated on a clone, validated, and
// only then swapped in behind a history snapshot.
type EditService struct {
	sessions  *SessionRegistry
	teachers  editRosterReader
	validator *validator.Validate
	conflicts ConflictValidator
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewEditService wires the edit engine dependencies.
func NewEditService(
	sessions *SessionRegistry,
	teachers editRosterReader,
	validate *validator.Validate,
	metrics *MetricsService,
	logger *zap.Logger,
) *EditService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditService{
		sessions:  sessions,
		teachers:  teachers,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
	}
}

// Move relocates the source cell's lesson to the target cell, swapping when
// the target is occupied. Both resulting placements must pass the hard rule
// or the whole operation is rejected with no effect.
func (s *EditService) Move(ctx context.Context, req dto.MoveAssignmentRequest) (*dto.EditResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}
	if req.From == req.To {
		return nil, appErrors.Clone(appErrors.ErrValidation, "source and target are the same cell")
	}
	if models.DayIndex(req.From.Day) < 0 || models.DayIndex(req.To.Day) < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day is not a teaching day")
	}

	session := s.sessions.Get(req.OwnerID)
	session.Lock()
	defer session.Unlock()

	schedule := session.Schedule()
	source, ok := cellAssignment(schedule, req.From)
	if !ok {
		s.metrics.CountEdit("move", "rejected")
		return nil, appErrors.Clone(appErrors.ErrNotFound, "source cell is empty")
	}
	target, swapped := cellAssignment(schedule, req.To)

	next := schedule.Clone()
	clearCell(next, req.From)
	if swapped {
		setCell(next, req.From, target)
	}
	setCell(next, req.To, source)

	if report := s.conflicts.CheckPlacement(next[req.To.Day], req.To.Period, req.To.ClassKey, source.Teacher); report != nil {
		s.metrics.CountEdit("move", "rejected")
		return nil, appErrors.Clone(appErrors.ErrHardConflict, report.Message)
	}
	if swapped {
		if report := s.conflicts.CheckPlacement(next[req.From.Day], req.From.Period, req.From.ClassKey, target.Teacher); report != nil {
			s.metrics.CountEdit("move", "rejected")
			return nil, appErrors.Clone(appErrors.ErrHardConflict, report.Message)
		}
	}

	warning := ""
	if report := s.conflicts.CheckSubjectRepeat(next[req.To.Day], req.To.ClassKey, source.Subject, req.To.Period); report != nil {
		warning = report.Message
	}
	if warning == "" && swapped {
		if report := s.conflicts.CheckSubjectRepeat(next[req.From.Day], req.From.ClassKey, target.Subject, req.From.Period); report != nil {
			warning = report.Message
		}
	}

	session.PushHistory()
	session.ReplaceSchedule(next)
	session.Publication().HasUnpublishedChanges = true
	s.metrics.CountEdit("move", "applied")

	return &dto.EditResult{
		Applied:      true,
		Swapped:      swapped,
		Warning:      warning,
		HistoryDepth: session.HistoryDepth(),
	}, nil
}

// Add places a subject into an empty cell, resolving a teacher who is
// assigned to that subject for the class and free in the period.
func (s *EditService) Add(ctx context.Context, req dto.AddAssignmentRequest) (*dto.EditResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid add payload")
	}
	if models.DayIndex(req.Cell.Day) < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day is not a teaching day")
	}

	roster, err := s.teachers.Roster(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher roster")
	}

	session := s.sessions.Get(req.OwnerID)
	session.Lock()
	defer session.Unlock()

	schedule := session.Schedule()
	if _, occupied := cellAssignment(schedule, req.Cell); occupied {
		s.metrics.CountEdit("add", "rejected")
		return nil, appErrors.Clone(appErrors.ErrConflict, "cell is already occupied")
	}

	eligible := make([]models.Teacher, 0, 2)
	for _, teacher := range roster {
		if teacher.Teaches(req.Subject, req.Cell.ClassKey) {
			eligible = append(eligible, teacher)
		}
	}
	if len(eligible) == 0 {
		s.metrics.CountEdit("add", "rejected")
		return nil, appErrors.Clone(appErrors.ErrMissingTeacher,
			fmt.Sprintf("no teacher assigned to %s for %s", req.Subject, req.Cell.ClassKey))
	}

	chosen := ""
	var lastReport *ConflictReport
	for _, teacher := range eligible {
		report := s.conflicts.CheckPlacement(schedule[req.Cell.Day], req.Cell.Period, req.Cell.ClassKey, teacher.FullName)
		if report == nil {
			chosen = teacher.FullName
			break
		}
		lastReport = report
	}
	if chosen == "" {
		s.metrics.CountEdit("add", "rejected")
		return nil, appErrors.Clone(appErrors.ErrHardConflict, lastReport.Message)
	}

	next := schedule.Clone()
	setCell(next, req.Cell, models.Assignment{Subject: req.Subject, Teacher: chosen})

	warning := ""
	if report := s.conflicts.CheckSubjectRepeat(next[req.Cell.Day], req.Cell.ClassKey, req.Subject, req.Cell.Period); report != nil {
		warning = report.Message
	}

	session.PushHistory()
	session.ReplaceSchedule(next)
	session.Publication().HasUnpublishedChanges = true
	s.metrics.CountEdit("add", "applied")

	return &dto.EditResult{
		Applied:      true,
		Warning:      warning,
		HistoryDepth: session.HistoryDepth(),
	}, nil
}

// Undo restores the newest snapshot. An empty history is a no-op, not an
// error.
func (s *EditService) Undo(ctx context.Context, req dto.UndoRequest) (*dto.EditResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid undo payload")
	}

	session := s.sessions.Get(req.OwnerID)
	session.Lock()
	defer session.Unlock()

	snapshot, ok := session.PopHistory()
	if !ok {
		return &dto.EditResult{Applied: false, HistoryDepth: 0}, nil
	}
	session.ReplaceSchedule(snapshot)
	session.Publication().HasUnpublishedChanges = true
	s.metrics.CountEdit("undo", "applied")

	return &dto.EditResult{Applied: true, HistoryDepth: session.HistoryDepth()}, nil
}

func cellAssignment(schedule models.ScheduleData, cell dto.CellRef) (models.Assignment, bool) {
	period := schedule.Period(cell.Day, cell.Period)
	if period == nil {
		return models.Assignment{}, false
	}
	a, ok := period.Assignments[cell.ClassKey]
	return a, ok
}

func setCell(schedule models.ScheduleData, cell dto.CellRef, a models.Assignment) {
	period := schedule.Period(cell.Day, cell.Period)
	if period == nil {
		schedule[cell.Day] = append(schedule[cell.Day], models.SchedulePeriod{
			Period:      cell.Period,
			Assignments: make(map[string]models.Assignment),
		})
		sort.Slice(schedule[cell.Day], func(i, j int) bool {
			return schedule[cell.Day][i].Period < schedule[cell.Day][j].Period
		})
		period = schedule.Period(cell.Day, cell.Period)
	}
	period.Assignments[cell.ClassKey] = a
}

func clearCell(schedule models.ScheduleData, cell dto.CellRef) {
	if period := schedule.Period(cell.Day, cell.Period); period != nil {
		delete(period.Assignments, cell.ClassKey)
	}
}
