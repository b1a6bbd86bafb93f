package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// ResetService irreversibly clears the session and both persisted channels.
// Callers are expected to have confirmed the action with the user.
type ResetService struct {
	sessions  *SessionRegistry
	store     publicationStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResetService wires the reset dependencies.
func NewResetService(
	sessions *SessionRegistry,
	store publicationStore,
	validate *validator.Validate,
	logger *zap.Logger,
) *ResetService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResetService{
		sessions:  sessions,
		store:     store,
		validator: validate,
		logger:    logger,
	}
}

// Reset clears the in-memory schedule, undo history and generation statuses,
// then deletes both persisted channels. The in-memory state is always
// cleared; a store failure is still surfaced so the caller never mistakes a
// partial reset for success.
func (s *ResetService) Reset(ctx context.Context, req dto.ResetRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset payload")
	}

	session := s.sessions.Get(req.OwnerID)
	session.Lock()
	defer session.Unlock()

	session.Reset()

	var firstErr error
	for _, channel := range []models.PublicationChannel{models.ChannelStaff, models.ChannelStudent} {
		if err := s.store.RemoveSchedule(ctx, channel, req.OwnerID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.store.RemovePublicationMeta(ctx, req.OwnerID); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		s.logger.Error("reset store cleanup failed", zap.String("owner_id", req.OwnerID), zap.Error(firstErr))
		return appErrors.Wrap(firstErr, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status, "failed to clear persisted schedule")
	}

	s.logger.Info("schedule reset", zap.String("owner_id", req.OwnerID))
	return nil
}
