package service

import (
	"fmt"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// ConflictKind classifies a validation finding.
type ConflictKind int

const (
	// ConflictHard placements must always be rejected.
	ConflictHard ConflictKind = iota
	// ConflictSoft findings are surfaced as warnings and never block.
	ConflictSoft
)

// ConflictReport carries enough context for the caller to present a message.
type ConflictReport struct {
	Kind     ConflictKind `json:"-"`
	Teacher  string       `json:"teacher,omitempty"`
	ClassKey string       `json:"classKey,omitempty"`
	Subject  string       `json:"subject,omitempty"`
	Message  string       `json:"message"`
}

// ConflictValidator is the stateless rule-checker shared by the generation
// run (to vet oracle output) and the edit engine (to vet manual edits). It
// never mutates schedule data.
type ConflictValidator struct{}

// CheckPlacement applies the hard rule: placing teacher into (period,
// classKey) is rejected when any other class in the same period already has
// that teacher. The rule is per-period; other days are irrelevant.
func (ConflictValidator) CheckPlacement(periods []models.SchedulePeriod, periodNo int, classKey, teacher string) *ConflictReport {
	if teacher == "" {
		return nil
	}
	for _, period := range periods {
		if period.Period != periodNo {
			continue
		}
		for otherKey, a := range period.Assignments {
			if otherKey == classKey {
				continue
			}
			if a.Teacher == teacher {
				return &ConflictReport{
					Kind:     ConflictHard,
					Teacher:  teacher,
					ClassKey: otherKey,
					Subject:  a.Subject,
					Message:  fmt.Sprintf("teacher %s already teaches %s in period %d", teacher, otherKey, periodNo),
				}
			}
		}
	}
	return nil
}

// CheckSubjectRepeat applies the soft rule: the same subject twice for the
// same class on the same day yields a warning, never a rejection. The cell
// being written is excluded via excludePeriod.
func (ConflictValidator) CheckSubjectRepeat(periods []models.SchedulePeriod, classKey, subject string, excludePeriod int) *ConflictReport {
	if subject == "" {
		return nil
	}
	for _, period := range periods {
		if period.Period == excludePeriod {
			continue
		}
		if a, ok := period.Assignments[classKey]; ok && a.Subject == subject {
			return &ConflictReport{
				Kind:     ConflictSoft,
				ClassKey: classKey,
				Subject:  subject,
				Message:  fmt.Sprintf("%s already has %s in period %d on this day", classKey, subject, period.Period),
			}
		}
	}
	return nil
}
