package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go-itam/internal/common/errs"
	common_models "go-itam/internal/common/models"
	"go-itam/internal/config"
	"go-itam/internal/export"
	"go-itam/internal/features/audit"
	"go-itam/internal/features/notification"
	"go-itam/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const queueSize = 64

var ErrQueueFull = errors.New("export queue is full, try again later")

type ExportService interface {
	// WriteTo streams a report export into w without persisting anything.
	WriteTo(ctx context.Context, reportID string, req ExportRequest, actor Actor, w io.Writer) (int64, error)
	Generate(ctx context.Context, reportID string, req ExportRequest, actor Actor) (*ReportFile, error)
	Queue(ctx context.Context, reportID string, req ExportRequest, actor Actor) (string, error)
	ListFiles(ctx context.Context, actor Actor) ([]ReportFile, error)
	Download(ctx context.Context, fileID string, actor Actor) (*ReportFile, error)
	CleanupExpired(ctx context.Context) (int, error)
}

type exportJob struct {
	id       string
	reportID string
	req      ExportRequest
	actor    Actor
}

type ExportServiceImpl struct {
	Reports       ReportService
	Data          DataService
	Files         FileRepository
	Audit         audit.AuditService
	Notifications notification.NotificationService

	cfg    config.ExportConfig
	logger *zap.Logger
	now    func() time.Time

	jobs   chan exportJob
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewExportService(cfg *config.Config, reports ReportService, data DataService, files FileRepository, auditService audit.AuditService, notifications notification.NotificationService, logger *zap.Logger) *ExportServiceImpl {
	return &ExportServiceImpl{
		Reports:       reports,
		Data:          data,
		Files:         files,
		Audit:         auditService,
		Notifications: notifications,
		cfg:           cfg.Export,
		logger:        logger.Named("export"),
		now:           time.Now,
		jobs:          make(chan exportJob, queueSize),
	}
}

// RegisterExportWorkers ties the background worker pool to the fx lifecycle.
func RegisterExportWorkers(lc fx.Lifecycle, s *ExportServiceImpl) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.Start()
			return nil
		},
		OnStop: s.Stop,
	})
}

func (s *ExportServiceImpl) Start() {
	base, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	workers := s.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.worker(base)
	}
	s.logger.Info("export workers started", zap.Int("workers", workers))
}

// Stop cancels running exports and waits for the workers to return.
func (s *ExportServiceImpl) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ExportServiceImpl) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.process(ctx, job)
		}
	}
}

func (s *ExportServiceImpl) process(ctx context.Context, job exportJob) {
	// audit entries written by the job are attributed to the requester
	ctx = context.WithValue(ctx, utils.UserClaimsKey, &utils.UserClaims{UserID: job.actor.UserID})
	log := s.logger.With(zap.String("job_id", job.id), zap.String("report_id", job.reportID), zap.String("user_id", job.actor.UserID))

	file, err := s.Generate(ctx, job.reportID, job.req, job.actor)
	if err != nil {
		log.Error("background export failed", zap.Error(err))
		s.notify(ctx, log, job.actor.UserID, "Report export failed", userMessage(err), notification.NotificationTypeError, "")
		return
	}

	log.Info("background export finished", zap.String("file", file.FileName), zap.Int64("rows", file.RowCount))
	s.notify(ctx, log, job.actor.UserID, "Report export ready",
		fmt.Sprintf("%s is ready to download (%d rows)", file.FileName, file.RowCount),
		notification.NotificationTypeSuccess, DownloadLink(file))
}

func (s *ExportServiceImpl) notify(ctx context.Context, log *zap.Logger, userID, title, message string, kind notification.NotificationType, link string) {
	if userID == "" {
		return
	}
	if err := s.Notifications.Notify(ctx, userID, title, message, kind, link); err != nil {
		log.Warn("export notification failed", zap.Error(err))
	}
}

// userMessage hides backend detail from failure notifications.
func userMessage(err error) string {
	if errs.IsValidation(err) || errs.IsTooManyResults(err) || errs.IsNotFound(err) || errs.IsForbidden(err) {
		return err.Error()
	}
	return "failed to generate report"
}

func DownloadLink(file *ReportFile) string {
	return "/api/reports/files/" + file.ID.Hex() + "/download"
}

func (s *ExportServiceImpl) WriteTo(ctx context.Context, reportID string, req ExportRequest, actor Actor, w io.Writer) (int64, error) {
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return 0, err
	}
	def, err := s.Reports.GetReport(ctx, reportID, actor)
	if err != nil {
		return 0, err
	}
	return s.write(ctx, def, format, req, actor, w)
}

func (s *ExportServiceImpl) write(ctx context.Context, def *ReportDefinition, format export.Format, req ExportRequest, actor Actor, w io.Writer) (int64, error) {
	writer, err := export.New(format, w, def.Name)
	if err != nil {
		return 0, err
	}
	rows, err := s.Data.Stream(ctx, def, req.Options(), actor.UserID, writer)
	closeErr := writer.Close()
	if err != nil {
		return rows, err
	}
	return rows, closeErr
}

func (s *ExportServiceImpl) fileName(def *ReportDefinition, format export.Format) string {
	base := utils.Slugify(def.Name)
	if base == "" {
		base = "report"
	}
	return fmt.Sprintf("%s_%s_%s%s", base, s.now().UTC().Format("20060102_150405"), uuid.NewString()[:8], format.Extension())
}

func (s *ExportServiceImpl) Generate(ctx context.Context, reportID string, req ExportRequest, actor Actor) (*ReportFile, error) {
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return nil, err
	}
	def, err := s.Reports.GetReport(ctx, reportID, actor)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	name := s.fileName(def, format)
	path := filepath.Join(s.cfg.Path, name)

	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create export file: %w", err)
	}
	rows, err := s.write(ctx, def, format, req, actor, out)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	file := &ReportFile{
		ReportID:    reportID,
		FileName:    name,
		FilePath:    path,
		Format:      string(format),
		Size:        info.Size(),
		RowCount:    rows,
		GeneratedBy: actor.UserID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.TTL),
	}
	if err := s.Files.Create(ctx, file); err != nil {
		os.Remove(path)
		return nil, err
	}

	if err := s.Audit.LogChange(ctx, common_models.AuditActionExport, "report_files", file.ID.Hex(), map[string]common_models.Change{
		"report_id": {New: reportID},
		"format":    {New: file.Format},
		"rows":      {New: rows},
	}); err != nil {
		s.logger.Warn("audit write failed", zap.String("file_id", file.ID.Hex()), zap.Error(err))
	}
	return file, nil
}

// Queue checks access up front, then hands the export to the worker pool.
func (s *ExportServiceImpl) Queue(ctx context.Context, reportID string, req ExportRequest, actor Actor) (string, error) {
	if _, err := export.ParseFormat(req.Format); err != nil {
		return "", err
	}
	if _, err := s.Reports.GetReport(ctx, reportID, actor); err != nil {
		return "", err
	}

	job := exportJob{id: uuid.NewString(), reportID: reportID, req: req, actor: actor}
	select {
	case s.jobs <- job:
		s.logger.Info("export queued", zap.String("job_id", job.id), zap.String("report_id", reportID), zap.String("user_id", actor.UserID))
		return job.id, nil
	default:
		return "", ErrQueueFull
	}
}

func (s *ExportServiceImpl) ListFiles(ctx context.Context, actor Actor) ([]ReportFile, error) {
	if actor.Admin {
		return s.Files.ListByUser(ctx, "", s.now().UTC())
	}
	return s.Files.ListByUser(ctx, actor.UserID, s.now().UTC())
}

func (s *ExportServiceImpl) Download(ctx context.Context, fileID string, actor Actor) (*ReportFile, error) {
	file, err := s.Files.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !file.ExpiresAt.After(s.now().UTC()) {
		return nil, errs.NotFoundError{Resource: "report file"}
	}
	if actor.Admin || (actor.UserID != "" && file.GeneratedBy == actor.UserID) {
		return file, nil
	}
	// readers of a public report may fetch its exports
	if _, err := s.Reports.GetReport(ctx, file.ReportID, actor); err != nil {
		if errs.IsNotFound(err) {
			return nil, errs.NotFoundError{Resource: "report file"}
		}
		return nil, err
	}
	return file, nil
}

// CleanupExpired removes expired exports from disk and from the file index.
// A file that is already gone from disk only loses its record.
func (s *ExportServiceImpl) CleanupExpired(ctx context.Context) (int, error) {
	expired, err := s.Files.ListExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, file := range expired {
		if err := os.Remove(file.FilePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to remove export file", zap.String("path", file.FilePath), zap.Error(err))
			continue
		}
		if err := s.Files.Delete(ctx, file.ID); err != nil {
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		if err := s.Audit.LogChange(ctx, common_models.AuditActionCleanup, "report_files", "", map[string]common_models.Change{
			"removed": {New: removed},
		}); err != nil {
			s.logger.Warn("audit write failed", zap.Error(err))
		}
	}
	s.logger.Info("expired exports cleaned up", zap.Int("removed", removed), zap.Int("expired", len(expired)))
	return removed, nil
}
