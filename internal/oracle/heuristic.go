package oracle

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// Heuristic is the in-process default Generator. It fills each class's slots
// greedily, core subjects (largest weekly count) first, spreading every
// subject's remaining demand across the days left in the week.
type Heuristic struct {
	logger *zap.Logger
}

// NewHeuristic constructs the default oracle.
func NewHeuristic(logger *zap.Logger) *Heuristic {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Heuristic{logger: logger}
}

// GenerateDay builds this grade's periods for the day, honoring prior
// placements and teacher unavailability. Returns ErrNoResult when any class
// slot cannot be filled.
func (h *Heuristic) GenerateDay(ctx context.Context, req Request) ([]models.SchedulePeriod, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.TargetPeriods <= 0 {
		return nil, nil
	}

	state := newDayState(req)

	classes := make([]models.ClassData, len(req.Classes))
	copy(classes, req.Classes)
	sort.Slice(classes, func(i, j int) bool {
		return classes[i].Ref().Key() < classes[j].Ref().Key()
	})

	periods := make([]models.SchedulePeriod, 0, req.TargetPeriods)
	for p := 1; p <= req.TargetPeriods; p++ {
		periods = append(periods, models.SchedulePeriod{
			Period:      p,
			Assignments: make(map[string]models.Assignment),
		})
	}

	for _, class := range classes {
		classKey := class.Ref().Key()
		needs := state.subjectNeeds(classKey)
		for p := 1; p <= req.TargetPeriods; p++ {
			assignment, ok := state.pick(needs, classKey, p)
			if !ok {
				h.logger.Debug("no feasible assignment",
					zap.String("day", req.Day),
					zap.String("stage", req.Stage),
					zap.String("class", classKey),
					zap.Int("period", p),
				)
				return nil, ErrNoResult
			}
			periods[p-1].Assignments[classKey] = assignment
		}
	}

	return periods, nil
}

// subjectNeed tracks remaining weekly demand for one subject of one class.
type subjectNeed struct {
	subject   string
	weekly    int
	remaining int
	today     int
	maxToday  int
}

// dayState mirrors the placement bookkeeping of a single oracle call:
// which teacher is busy in which period, and how much demand is left.
type dayState struct {
	req  Request
	busy map[int]map[string]bool
}

func newDayState(req Request) *dayState {
	state := &dayState{req: req, busy: make(map[int]map[string]bool)}
	for _, period := range req.TodaysPrior {
		for _, a := range period.Assignments {
			state.reserve(period.Period, a.Teacher)
		}
	}
	return state
}

func (s *dayState) reserve(period int, teacher string) {
	if s.busy[period] == nil {
		s.busy[period] = make(map[string]bool)
	}
	s.busy[period][teacher] = true
}

func (s *dayState) teacherFree(teacher string, period int) bool {
	if s.req.Unavailability.IsUnavailable(teacher, s.req.Day) {
		return false
	}
	return !s.busy[period][teacher]
}

// subjectNeeds computes how much of each subject the class still needs this
// week and caps today's share so demand spreads over the remaining days.
// Ordered core-first: larger weekly counts come before smaller ones.
func (s *dayState) subjectNeeds(classKey string) []*subjectNeed {
	plan, ok := s.req.StudyPlans[s.req.Stage]
	if !ok {
		return nil
	}

	daysLeft := len(models.SchoolDays) - s.req.DayIndex
	if daysLeft < 1 {
		daysLeft = 1
	}

	needs := make([]*subjectNeed, 0, len(plan.Subjects))
	for subject, weekly := range plan.Subjects {
		used := 0
		for _, periods := range s.req.PriorDays {
			for _, period := range periods {
				if a, ok := period.Assignments[classKey]; ok && a.Subject == subject {
					used++
				}
			}
		}
		remaining := weekly - used
		if remaining <= 0 {
			continue
		}
		maxToday := (remaining + daysLeft - 1) / daysLeft
		needs = append(needs, &subjectNeed{
			subject:   subject,
			weekly:    weekly,
			remaining: remaining,
			maxToday:  maxToday,
		})
	}

	sort.Slice(needs, func(i, j int) bool {
		if needs[i].weekly == needs[j].weekly {
			return needs[i].subject < needs[j].subject
		}
		return needs[i].weekly > needs[j].weekly
	})
	return needs
}

// pick selects the next subject and a free teacher for the class at the
// period. The per-day cap is a fairness target, not a constraint: when every
// capped subject is exhausted the cap is ignored before giving up.
func (s *dayState) pick(needs []*subjectNeed, classKey string, period int) (models.Assignment, bool) {
	for _, relaxed := range []bool{false, true} {
		for _, need := range needs {
			if need.remaining <= 0 {
				continue
			}
			if !relaxed && need.today >= need.maxToday {
				continue
			}
			teacher, ok := s.freeTeacherFor(need.subject, classKey, period)
			if !ok {
				continue
			}
			need.remaining--
			need.today++
			s.reserve(period, teacher)
			return models.Assignment{Subject: need.subject, Teacher: teacher}, true
		}
	}
	return models.Assignment{}, false
}

func (s *dayState) freeTeacherFor(subject, classKey string, period int) (string, bool) {
	for _, teacher := range s.req.Roster {
		if !teacher.Teaches(subject, classKey) {
			continue
		}
		if s.teacherFree(teacher.FullName, period) {
			return teacher.FullName, true
		}
	}
	return "", false
}
