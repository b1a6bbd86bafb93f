package models

// SchoolDays lists the teaching days of the week, Sunday-first. Day indexes
// throughout the engine are positions in this slice.
var SchoolDays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday"}

// DayIndex returns the position of the named day, or -1 when it is not a
// teaching day.
func DayIndex(day string) int {
	for i, name := range SchoolDays {
		if name == day {
			return i
		}
	}
	return -1
}

// Assignment is one taught lesson: a subject and the teacher delivering it.
type Assignment struct {
	Subject string `json:"subject"`
	Teacher string `json:"teacher"`
}

// SchedulePeriod holds every class assignment for one period of one day,
// keyed by class key.
type SchedulePeriod struct {
	Period      int                   `json:"period"`
	Assignments map[string]Assignment `json:"assignments"`
}

// Clone deep-copies the period.
func (p SchedulePeriod) Clone() SchedulePeriod {
	out := SchedulePeriod{Period: p.Period, Assignments: make(map[string]Assignment, len(p.Assignments))}
	for key, a := range p.Assignments {
		out.Assignments[key] = a
	}
	return out
}

// ScheduleData maps a day name to its ordered period sequence. Period numbers
// within one day are unique; no teacher appears twice inside one period.
type ScheduleData map[string][]SchedulePeriod

// Clone deep-copies the whole schedule. Undo snapshots and publication copies
// rely on clones never sharing maps with the live schedule.
func (s ScheduleData) Clone() ScheduleData {
	if s == nil {
		return nil
	}
	out := make(ScheduleData, len(s))
	for day, periods := range s {
		cloned := make([]SchedulePeriod, 0, len(periods))
		for _, p := range periods {
			cloned = append(cloned, p.Clone())
		}
		out[day] = cloned
	}
	return out
}

// Period returns a pointer to the named day's period entry, or nil.
func (s ScheduleData) Period(day string, period int) *SchedulePeriod {
	periods := s[day]
	for i := range periods {
		if periods[i].Period == period {
			return &periods[i]
		}
	}
	return nil
}

// DayStatus tracks one day's progress through a generation run.
type DayStatus string

const (
	DayStatusPending    DayStatus = "pending"
	DayStatusGenerating DayStatus = "generating"
	DayStatusDone       DayStatus = "done"
	DayStatusFailed     DayStatus = "failed"
)

// GenerationStatus maps each school day to its generation state.
type GenerationStatus map[string]DayStatus

// NewGenerationStatus returns an all-pending status map.
func NewGenerationStatus() GenerationStatus {
	status := make(GenerationStatus, len(SchoolDays))
	for _, day := range SchoolDays {
		status[day] = DayStatusPending
	}
	return status
}

// Clone copies the status map.
func (g GenerationStatus) Clone() GenerationStatus {
	out := make(GenerationStatus, len(g))
	for day, st := range g {
		out[day] = st
	}
	return out
}

// DoneCount reports how many days finished successfully.
func (g GenerationStatus) DoneCount() int {
	count := 0
	for _, st := range g {
		if st == DayStatusDone {
			count++
		}
	}
	return count
}

// PublicationChannel names one of the two independent read audiences.
type PublicationChannel string

const (
	ChannelStaff   PublicationChannel = "staff"
	ChannelStudent PublicationChannel = "student"
)

// PublicationState tracks drift between the in-memory schedule and the
// persisted channels. The flag follows the staff channel only.
type PublicationState struct {
	HasUnpublishedChanges bool    `json:"hasUnpublishedChanges"`
	StaffPublishedAt      *string `json:"staffPublishedAt,omitempty"`
	StudentPublishedAt    *string `json:"studentPublishedAt,omitempty"`
}
