package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type fakeStore struct {
	published map[models.PublicationChannel]models.ScheduleData
	marked    map[models.PublicationChannel]time.Time
	removed   []string
	failWith  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		published: make(map[models.PublicationChannel]models.ScheduleData),
		marked:    make(map[models.PublicationChannel]time.Time),
	}
}

func (f *fakeStore) PublishSchedule(ctx context.Context, channel models.PublicationChannel, ownerID string, schedule models.ScheduleData) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.published[channel] = schedule
	return nil
}

func (f *fakeStore) MarkPublished(ctx context.Context, channel models.PublicationChannel, ownerID string, publishedAt time.Time) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.marked[channel] = publishedAt
	return nil
}

func (f *fakeStore) RemoveSchedule(ctx context.Context, channel models.PublicationChannel, ownerID string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.removed = append(f.removed, string(channel))
	return nil
}

func (f *fakeStore) RemovePublicationMeta(ctx context.Context, ownerID string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.removed = append(f.removed, "meta")
	return nil
}

func publicationFixture(t *testing.T, store *fakeStore) (*PublicationService, *ScheduleSession) {
	t.Helper()

	sessions := NewSessionRegistry(0)
	session := sessions.Get("owner-1")
	session.Lock()
	session.CommitDay("Sunday", []models.SchedulePeriod{
		{Period: 1, Assignments: map[string]models.Assignment{
			"Grade_10-A": {Subject: "Math", Teacher: "Ahmed"},
		}},
	})
	session.SetDayStatus("Sunday", models.DayStatusDone)
	session.Unlock()

	svc := NewPublicationService(sessions, store, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC) }
	return svc, session
}

func TestPublishStaffClearsUnpublishedFlag(t *testing.T) {
	store := newFakeStore()
	svc, session := publicationFixture(t, store)

	result, err := svc.Publish(context.Background(), dto.PublishRequest{OwnerID: "owner-1"}, models.ChannelStaff)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelStaff, result.Channel)
	assert.Equal(t, "2026-02-01T08:00:00Z", result.PublishedAt)

	assert.Contains(t, store.published, models.ChannelStaff)
	assert.NotContains(t, store.published, models.ChannelStudent)

	session.Lock()
	defer session.Unlock()
	assert.False(t, session.Publication().HasUnpublishedChanges)
	require.NotNil(t, session.Publication().StaffPublishedAt)
	assert.Nil(t, session.Publication().StudentPublishedAt)
}

func TestPublishStudentKeepsUnpublishedFlag(t *testing.T) {
	store := newFakeStore()
	svc, session := publicationFixture(t, store)

	_, err := svc.Publish(context.Background(), dto.PublishRequest{OwnerID: "owner-1"}, models.ChannelStudent)
	require.NoError(t, err)

	session.Lock()
	defer session.Unlock()
	// Student publications never settle staff drift.
	assert.True(t, session.Publication().HasUnpublishedChanges)
	require.NotNil(t, session.Publication().StudentPublishedAt)
	assert.Nil(t, session.Publication().StaffPublishedAt)
}

func TestPublishRequiresCompletedDay(t *testing.T) {
	sessions := NewSessionRegistry(0)
	svc := NewPublicationService(sessions, newFakeStore(), nil, nil, nil)

	_, err := svc.Publish(context.Background(), dto.PublishRequest{OwnerID: "owner-1"}, models.ChannelStaff)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPublicationPrecond.Code, appErrors.FromError(err).Code)
}

func TestPublishStoreFailureKeepsState(t *testing.T) {
	store := newFakeStore()
	store.failWith = errors.New("redis: connection refused")
	svc, session := publicationFixture(t, store)

	_, err := svc.Publish(context.Background(), dto.PublishRequest{OwnerID: "owner-1"}, models.ChannelStaff)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStoreFailure.Code, appErrors.FromError(err).Code)

	session.Lock()
	defer session.Unlock()
	assert.True(t, session.Publication().HasUnpublishedChanges)
	assert.Nil(t, session.Publication().StaffPublishedAt)
}

func TestPublishedCopyIsDetached(t *testing.T) {
	store := newFakeStore()
	svc, session := publicationFixture(t, store)

	_, err := svc.Publish(context.Background(), dto.PublishRequest{OwnerID: "owner-1"}, models.ChannelStaff)
	require.NoError(t, err)

	session.Lock()
	session.Schedule()["Sunday"][0].Assignments["Grade_10-A"] = models.Assignment{Subject: "Science", Teacher: "Sara"}
	session.Unlock()

	assert.Equal(t, "Math", store.published[models.ChannelStaff]["Sunday"][0].Assignments["Grade_10-A"].Subject)
}
