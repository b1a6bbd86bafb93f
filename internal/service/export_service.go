package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

type exportStorage interface {
	Save(filename string, data []byte) (string, error)
	Path(filename string) string
}

type exportPayload struct {
	ownerID  string
	format   string
	relPath  string
	schedule models.ScheduleData
}

// ExportService renders the owner's schedule to downloadable CSV or PDF
// files. Rendering runs on a background worker pool; the caller gets a
// signed download token immediately and polls the download endpoint until
// the file exists.
type ExportService struct {
	sessions  *SessionRegistry
	storage   exportStorage
	signer    *storage.SignedURLSigner
	queue     *jobs.Queue
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewExportService wires the export pipeline. The queue is created here and
// must be started via Start before requests are accepted.
func NewExportService(
	sessions *SessionRegistry,
	store exportStorage,
	signer *storage.SignedURLSigner,
	validate *validator.Validate,
	metrics *MetricsService,
	logger *zap.Logger,
	queueCfg jobs.QueueConfig,
) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &ExportService{
		sessions:  sessions,
		storage:   store,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		metrics:   metrics,
		logger:    logger,
	}
	queueCfg.Logger = logger
	s.queue = jobs.NewQueue("timetable-exports", s.render, queueCfg)
	return s
}

// Start launches the render workers.
func (s *ExportService) Start(ctx context.Context) { s.queue.Start(ctx) }

// Stop drains the render workers.
func (s *ExportService) Stop() { s.queue.Stop() }

// Request snapshots the owner's schedule and queues the render. The snapshot
// is taken now so later edits never leak into an already-requested export.
func (s *ExportService) Request(ctx context.Context, req dto.ExportRequest) (*dto.ExportResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}

	session := s.sessions.Get(req.OwnerID)
	session.Lock()
	snapshot := session.Schedule().Clone()
	session.Unlock()

	if len(snapshot) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no schedule to export")
	}

	jobID := uuid.NewString()
	relPath := fmt.Sprintf("%s/%s.%s", req.OwnerID, jobID, req.Format)

	token, expiresAt, err := s.signer.Generate(jobID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}

	err = s.queue.Enqueue(jobs.Job{
		ID:   jobID,
		Type: req.Format,
		Payload: exportPayload{
			ownerID:  req.OwnerID,
			format:   req.Format,
			relPath:  relPath,
			schedule: snapshot,
		},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}

	return &dto.ExportResult{
		JobID:     jobID,
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// Resolve validates a download token and returns the absolute file path.
// A valid token for a file that is not rendered yet maps to not-found.
func (s *ExportService) Resolve(token string) (string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "invalid or expired download token")
	}

	path := s.storage.Path(relPath)
	if _, err := os.Stat(path); err != nil {
		return "", appErrors.Clone(appErrors.ErrNotFound, "export is not ready")
	}
	return path, nil
}

func (s *ExportService) render(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(exportPayload)
	if !ok {
		return fmt.Errorf("unexpected export payload type %T", job.Payload)
	}

	dataset := flattenSchedule(payload.schedule)

	var raw []byte
	var err error
	switch payload.format {
	case "pdf":
		raw, err = s.pdf.Render(dataset, fmt.Sprintf("Weekly Timetable %s", payload.ownerID))
	default:
		raw, err = s.csv.Render(dataset)
	}
	if err != nil {
		s.metrics.CountExport(payload.format, "failed")
		return fmt.Errorf("render %s export: %w", payload.format, err)
	}

	if _, err := s.storage.Save(payload.relPath, raw); err != nil {
		s.metrics.CountExport(payload.format, "failed")
		return fmt.Errorf("store export: %w", err)
	}

	s.metrics.CountExport(payload.format, "completed")
	s.logger.Info("export rendered",
		zap.String("job_id", job.ID),
		zap.String("owner_id", payload.ownerID),
		zap.String("format", payload.format),
	)
	return nil
}

// flattenSchedule turns the nested schedule into one row per taught cell,
// ordered day, period, class.
func flattenSchedule(schedule models.ScheduleData) export.Dataset {
	headers := []string{"Day", "Period", "Class", "Subject", "Teacher"}
	rows := make([]map[string]string, 0)

	for _, day := range models.SchoolDays {
		for _, period := range schedule[day] {
			keys := make([]string, 0, len(period.Assignments))
			for key := range period.Assignments {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			for _, classKey := range keys {
				a := period.Assignments[classKey]
				rows = append(rows, map[string]string{
					"Day":     day,
					"Period":  strconv.Itoa(period.Period),
					"Class":   classKey,
					"Subject": a.Subject,
					"Teacher": a.Teacher,
				})
			}
		}
	}

	return export.Dataset{Headers: headers, Rows: rows}
}
