package dto

import (
	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// GenerateTimetableRequest starts or resumes a generation run. StartDay is a
// Sunday-first day index; resuming from a failed day leaves earlier days
// untouched.
type GenerateTimetableRequest struct {
	OwnerID     string `json:"ownerId" validate:"required"`
	SchoolLevel string `json:"schoolLevel" validate:"required"`
	StartDay    int    `json:"startDay" validate:"min=0,max=4"`
}

// GenerateTimetableResponse summarises a completed run.
type GenerateTimetableResponse struct {
	RunID    string                  `json:"runId"`
	Statuses models.GenerationStatus `json:"statuses"`
	DaysDone int                     `json:"daysDone"`
	Grid     []int                   `json:"periodsPerDay"`
}

// CellRef addresses one timetable cell.
type CellRef struct {
	Day      string `json:"day" validate:"required"`
	Period   int    `json:"period" validate:"required,min=1,max=16"`
	ClassKey string `json:"classKey" validate:"required"`
}

// MoveAssignmentRequest relocates the source cell's lesson; when the target
// is occupied the two lessons swap.
type MoveAssignmentRequest struct {
	OwnerID string  `json:"ownerId" validate:"required"`
	From    CellRef `json:"from" validate:"required"`
	To      CellRef `json:"to" validate:"required"`
}

// AddAssignmentRequest places a subject into an empty cell; the teacher is
// resolved from the roster.
type AddAssignmentRequest struct {
	OwnerID string  `json:"ownerId" validate:"required"`
	Cell    CellRef `json:"cell" validate:"required"`
	Subject string  `json:"subject" validate:"required"`
}

// UndoRequest rolls back the most recent committed edit.
type UndoRequest struct {
	OwnerID string `json:"ownerId" validate:"required"`
}

// EditResult reports the outcome of an edit operation. Warning carries the
// advisory soft-rule message when one fired.
type EditResult struct {
	Applied      bool   `json:"applied"`
	Swapped      bool   `json:"swapped,omitempty"`
	Warning      string `json:"warning,omitempty"`
	HistoryDepth int    `json:"historyDepth"`
}

// PublishRequest pushes the in-memory schedule to one channel.
type PublishRequest struct {
	OwnerID string `json:"ownerId" validate:"required"`
}

// PublishResult confirms a channel publication.
type PublishResult struct {
	Channel     models.PublicationChannel `json:"channel"`
	PublishedAt string                    `json:"publishedAt"`
}

// ResetRequest clears the in-memory and persisted schedule state.
type ResetRequest struct {
	OwnerID string `json:"ownerId" validate:"required"`
}

// ExportRequest queues a render of the owner's current schedule.
type ExportRequest struct {
	OwnerID string `json:"ownerId" validate:"required"`
	Format  string `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportResult hands back the download token for a queued export. The file
// is rendered asynchronously; downloading before it is ready yields 404.
type ExportResult struct {
	JobID     string `json:"jobId"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

// TimetableStateResponse is the read model for the editing UI.
type TimetableStateResponse struct {
	Schedule     models.ScheduleData     `json:"schedule"`
	Statuses     models.GenerationStatus `json:"statuses"`
	Publication  models.PublicationState `json:"publication"`
	HistoryDepth int                     `json:"historyDepth"`
}

// AllocationResponse previews the period grid for a school level.
type AllocationResponse struct {
	SchoolLevel  string           `json:"schoolLevel"`
	Grid         []int            `json:"periodsPerDay"`
	GradeTargets map[string][]int `json:"gradeTargets"`
}
