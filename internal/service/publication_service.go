package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type publicationStore interface {
	PublishSchedule(ctx context.Context, channel models.PublicationChannel, ownerID string, schedule models.ScheduleData) error
	MarkPublished(ctx context.Context, channel models.PublicationChannel, ownerID string, publishedAt time.Time) error
	RemoveSchedule(ctx context.Context, channel models.PublicationChannel, ownerID string) error
	RemovePublicationMeta(ctx context.Context, ownerID string) error
}

// PublicationService pushes the in-memory schedule to the two independent
// read channels. Publishing replaces the channel's persisted copy wholesale;
// the unpublished-changes flag tracks the staff channel only and is cleared
// solely after a confirmed successful staff publish.
type PublicationService struct {
	sessions  *SessionRegistry
	store     publicationStore
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewPublicationService wires the publication dependencies.
func NewPublicationService(
	sessions *SessionRegistry,
	store publicationStore,
	validate *validator.Validate,
	metrics *MetricsService,
	logger *zap.Logger,
) *PublicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicationService{
		sessions:  sessions,
		store:     store,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Publish replaces the channel's persisted copy with the current in-memory
// schedule. Requires at least one generated day; a store failure propagates
// and never flips the publication state.
func (s *PublicationService) Publish(ctx context.Context, req dto.PublishRequest, channel models.PublicationChannel) (*dto.PublishResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid publish payload")
	}
	if channel != models.ChannelStaff && channel != models.ChannelStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown publication channel")
	}

	session := s.sessions.Get(req.OwnerID)
	session.Lock()
	defer session.Unlock()

	if session.Status().DoneCount() == 0 {
		return nil, appErrors.Clone(appErrors.ErrPublicationPrecond, "")
	}

	snapshot := session.Schedule().Clone()
	if err := s.store.PublishSchedule(ctx, channel, req.OwnerID, snapshot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status, "failed to write published schedule")
	}
	at := s.now().UTC()
	if err := s.store.MarkPublished(ctx, channel, req.OwnerID, at); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status, "failed to record publication marker")
	}

	stamp := at.Format(time.RFC3339)
	publication := session.Publication()
	switch channel {
	case models.ChannelStaff:
		publication.HasUnpublishedChanges = false
		publication.StaffPublishedAt = &stamp
	case models.ChannelStudent:
		publication.StudentPublishedAt = &stamp
	}
	s.metrics.CountPublish(channel)
	s.logger.Info("schedule published",
		zap.String("owner_id", req.OwnerID),
		zap.String("channel", string(channel)),
	)

	return &dto.PublishResult{Channel: channel, PublishedAt: stamp}, nil
}
