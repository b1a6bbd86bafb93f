package service

import (
	"sync"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// ScheduleSession owns the in-memory editing state for one owner: the live
// schedule, the undo stack, per-day generation status and publication drift.
// The model is single-active-editor; every operation runs under the session
// mutex so edits and generation never interleave mid-mutation.
type ScheduleSession struct {
	mu sync.Mutex

	ownerID      string
	schoolLevel  string
	schedule     models.ScheduleData
	history      []models.ScheduleData
	historyLimit int
	status       models.GenerationStatus
	publication  models.PublicationState
}

func newScheduleSession(ownerID string, historyLimit int) *ScheduleSession {
	return &ScheduleSession{
		ownerID:      ownerID,
		schedule:     make(models.ScheduleData),
		historyLimit: historyLimit,
		status:       models.NewGenerationStatus(),
	}
}

// Lock acquires the session mutex. Callers hold it for the full operation,
// including a generation run's oracle calls.
func (s *ScheduleSession) Lock() { s.mu.Lock() }

// Unlock releases the session mutex.
func (s *ScheduleSession) Unlock() { s.mu.Unlock() }

// The accessors and mutators below assume the caller holds the lock.

// OwnerID returns the owning account identifier.
func (s *ScheduleSession) OwnerID() string { return s.ownerID }

// Schedule returns the live schedule. Callers must not retain it across an
// unlock; use Clone for stable copies.
func (s *ScheduleSession) Schedule() models.ScheduleData { return s.schedule }

// ReplaceSchedule swaps in a new schedule without touching history.
func (s *ScheduleSession) ReplaceSchedule(data models.ScheduleData) {
	if data == nil {
		data = make(models.ScheduleData)
	}
	s.schedule = data
}

// SchoolLevel returns the level the session was last generated for.
func (s *ScheduleSession) SchoolLevel() string { return s.schoolLevel }

// SetSchoolLevel records the level of the current generation run.
func (s *ScheduleSession) SetSchoolLevel(level string) { s.schoolLevel = level }

// Status returns the live per-day generation status.
func (s *ScheduleSession) Status() models.GenerationStatus { return s.status }

// SetDayStatus updates one day's generation state.
func (s *ScheduleSession) SetDayStatus(day string, status models.DayStatus) {
	s.status[day] = status
}

// Publication returns the mutable publication state.
func (s *ScheduleSession) Publication() *models.PublicationState { return &s.publication }

// PushHistory snapshots the current schedule onto the undo stack. When a
// history limit is configured the oldest snapshot is dropped.
func (s *ScheduleSession) PushHistory() {
	s.history = append(s.history, s.schedule.Clone())
	if s.historyLimit > 0 && len(s.history) > s.historyLimit {
		s.history = s.history[1:]
	}
}

// PopHistory removes and returns the newest snapshot.
func (s *ScheduleSession) PopHistory() (models.ScheduleData, bool) {
	if len(s.history) == 0 {
		return nil, false
	}
	last := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	return last, true
}

// HistoryDepth reports the undo stack size.
func (s *ScheduleSession) HistoryDepth() int { return len(s.history) }

// CommitDay is the history-tracked commit used at the end of each generated
// day: snapshot, write the day, flag unpublished drift.
func (s *ScheduleSession) CommitDay(day string, periods []models.SchedulePeriod) {
	s.PushHistory()
	s.schedule[day] = periods
	s.publication.HasUnpublishedChanges = true
}

// ClearDaysFrom drops schedule entries and resets statuses for days at or
// after the given index; earlier days keep both. Not history-tracked.
func (s *ScheduleSession) ClearDaysFrom(index int) {
	for i := index; i < len(models.SchoolDays); i++ {
		day := models.SchoolDays[i]
		delete(s.schedule, day)
		s.status[day] = models.DayStatusPending
	}
}

// Reset clears every piece of in-memory state. Irreversible: the undo stack
// is discarded with everything else.
func (s *ScheduleSession) Reset() {
	s.schedule = make(models.ScheduleData)
	s.history = nil
	s.status = models.NewGenerationStatus()
	s.publication = models.PublicationState{}
}

// SessionRegistry hands out one session per owner, creating it on demand.
type SessionRegistry struct {
	mu           sync.RWMutex
	historyLimit int
	items        map[string]*ScheduleSession
}

// NewSessionRegistry constructs the registry. historyLimit of zero means an
// unbounded undo stack.
func NewSessionRegistry(historyLimit int) *SessionRegistry {
	return &SessionRegistry{
		historyLimit: historyLimit,
		items:        make(map[string]*ScheduleSession),
	}
}

// Get returns the owner's session, creating it when absent.
func (r *SessionRegistry) Get(ownerID string) *ScheduleSession {
	r.mu.RLock()
	session, ok := r.items[ownerID]
	r.mu.RUnlock()
	if ok {
		return session
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok = r.items[ownerID]; ok {
		return session
	}
	session = newScheduleSession(ownerID, r.historyLimit)
	r.items[ownerID] = session
	return session
}
