package service

import (
	"context"
	"encoding/csv"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

func exportFixture(t *testing.T, schedule models.ScheduleData) *ExportService {
	t.Helper()

	sessions := NewSessionRegistry(0)
	session := sessions.Get("owner-1")
	session.Lock()
	session.ReplaceSchedule(schedule)
	session.Unlock()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	svc := NewExportService(sessions, store, signer, nil, nil, nil, jobs.QueueConfig{Workers: 1})
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)
	return svc
}

func TestExportRendersCSV(t *testing.T) {
	svc := exportFixture(t, models.ScheduleData{
		"Sunday": {
			{Period: 1, Assignments: map[string]models.Assignment{
				"Grade_10-A": {Subject: "Math", Teacher: "Ahmed"},
			}},
		},
	})

	result, err := svc.Request(context.Background(), dto.ExportRequest{OwnerID: "owner-1", Format: "csv"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)

	var path string
	require.Eventually(t, func() bool {
		p, err := svc.Resolve(result.Token)
		if err != nil {
			return false
		}
		path = p
		return true
	}, 2*time.Second, 10*time.Millisecond, "render worker should produce the file")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(raw))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Day", "Period", "Class", "Subject", "Teacher"}, records[0])
	assert.Equal(t, []string{"Sunday", "1", "Grade_10-A", "Math", "Ahmed"}, records[1])
}

func TestExportRejectsEmptySchedule(t *testing.T) {
	svc := exportFixture(t, models.ScheduleData{})

	_, err := svc.Request(context.Background(), dto.ExportRequest{OwnerID: "owner-1", Format: "csv"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := exportFixture(t, models.ScheduleData{})

	_, err := svc.Request(context.Background(), dto.ExportRequest{OwnerID: "owner-1", Format: "xlsx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResolveRejectsBadToken(t *testing.T) {
	svc := exportFixture(t, models.ScheduleData{})

	_, err := svc.Resolve("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFlattenScheduleOrdering(t *testing.T) {
	schedule := models.ScheduleData{
		"Monday": {
			{Period: 1, Assignments: map[string]models.Assignment{
				"Grade_10-B": {Subject: "Science", Teacher: "Sara"},
				"Grade_10-A": {Subject: "Math", Teacher: "Ahmed"},
			}},
		},
		"Sunday": {
			{Period: 1, Assignments: map[string]models.Assignment{
				"Grade_10-A": {Subject: "Arabic", Teacher: "Huda"},
			}},
		},
	}

	dataset := flattenSchedule(schedule)
	require.Len(t, dataset.Rows, 3)

	// Sunday first, then Monday with class keys sorted.
	assert.Equal(t, "Sunday", dataset.Rows[0]["Day"])
	assert.Equal(t, "Grade_10-A", dataset.Rows[1]["Class"])
	assert.Equal(t, "Grade_10-B", dataset.Rows[2]["Class"])
}
