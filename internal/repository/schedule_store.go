package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// ScheduleStore persists published schedules as JSON documents under
// hierarchical path keys. The staff and student channels are independent
// documents so publishing one never disturbs the other.
type ScheduleStore struct {
	client *redis.Client
}

// NewScheduleStore creates a redis-backed schedule store.
func NewScheduleStore(client *redis.Client) *ScheduleStore {
	return &ScheduleStore{client: client}
}

func channelPath(channel models.PublicationChannel, ownerID string) string {
	if channel == models.ChannelStudent {
		return fmt.Sprintf("student_schedules/%s", ownerID)
	}
	return fmt.Sprintf("schedules/%s", ownerID)
}

func metaPath(ownerID string) string {
	return fmt.Sprintf("schedule_meta/%s", ownerID)
}

// Get reads the document at path into dest. Missing keys map to a not-found
// error.
func (s *ScheduleStore) Get(ctx context.Context, path string, dest any) error {
	raw, err := s.client.Get(ctx, path).Bytes()
	if err == redis.Nil {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no document at %s", path))
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Set writes value at path, replacing any existing document.
func (s *ScheduleStore) Set(ctx context.Context, path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, path, raw, 0).Err()
}

// Update merges partial into the object document at path, creating the
// document when absent.
func (s *ScheduleStore) Update(ctx context.Context, path string, partial map[string]any) error {
	doc := make(map[string]any)
	raw, err := s.client.Get(ctx, path).Bytes()
	if err != nil && err != redis.Nil {
		return err
	}
	if err == nil {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return err
		}
	}
	for key, value := range partial {
		doc[key] = value
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, path, merged, 0).Err()
}

// Remove deletes the document at path. Deleting a missing key is not an
// error.
func (s *ScheduleStore) Remove(ctx context.Context, path string) error {
	return s.client.Del(ctx, path).Err()
}

// PublishSchedule replaces the channel's persisted schedule document.
func (s *ScheduleStore) PublishSchedule(ctx context.Context, channel models.PublicationChannel, ownerID string, schedule models.ScheduleData) error {
	return s.Set(ctx, channelPath(channel, ownerID), schedule)
}

// MarkPublished records the channel's publication timestamp in the owner's
// metadata document.
func (s *ScheduleStore) MarkPublished(ctx context.Context, channel models.PublicationChannel, ownerID string, publishedAt time.Time) error {
	field := "staffPublishedAt"
	if channel == models.ChannelStudent {
		field = "studentPublishedAt"
	}
	return s.Update(ctx, metaPath(ownerID), map[string]any{
		field: publishedAt.Format(time.RFC3339),
	})
}

// RemoveSchedule deletes the channel's persisted schedule document.
func (s *ScheduleStore) RemoveSchedule(ctx context.Context, channel models.PublicationChannel, ownerID string) error {
	return s.Remove(ctx, channelPath(channel, ownerID))
}

// RemovePublicationMeta deletes the owner's publication metadata.
func (s *ScheduleStore) RemovePublicationMeta(ctx context.Context, ownerID string) error {
	return s.Remove(ctx, metaPath(ownerID))
}

// PublishedSchedule reads back the channel's persisted schedule.
func (s *ScheduleStore) PublishedSchedule(ctx context.Context, channel models.PublicationChannel, ownerID string) (models.ScheduleData, error) {
	var schedule models.ScheduleData
	if err := s.Get(ctx, channelPath(channel, ownerID), &schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}
