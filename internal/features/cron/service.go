package cron_feature

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go-itam/internal/common/errs"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type CronService interface {
	RegisterJob(job Job) error
	UnregisterJob(name string) error
	ListJobs() []JobInfo
	ExecuteJob(ctx context.Context, name string) error
	GetJobLogs(ctx context.Context, name string, limit int) ([]CronJobLog, error)
	InitializeScheduler(ctx context.Context) error
	StopScheduler() error
}

type registered struct {
	job     Job
	entry   cron.EntryID
	lastRun *time.Time
}

type CronServiceImpl struct {
	repo   CronRepository
	logger *zap.Logger

	scheduler *cron.Cron
	jobs      map[string]*registered
	mu        sync.RWMutex
}

func NewCronService(repo CronRepository, logger *zap.Logger) CronService {
	logger = logger.Named("cron")
	cronLog := cron.PrintfLogger(zap.NewStdLog(logger))

	return &CronServiceImpl{
		repo:   repo,
		logger: logger,
		scheduler: cron.New(cron.WithChain(
			cron.Recover(cronLog),
			cron.SkipIfStillRunning(cronLog),
		)),
		jobs: make(map[string]*registered),
	}
}

// RegisterScheduler starts the scheduler with the application and waits for
// running jobs on shutdown.
func RegisterScheduler(lc fx.Lifecycle, s CronService) {
	lc.Append(fx.Hook{
		OnStart: s.InitializeScheduler,
		OnStop: func(ctx context.Context) error {
			return s.StopScheduler()
		},
	})
}

func (s *CronServiceImpl) RegisterJob(job Job) error {
	if job.Name == "" || job.Run == nil {
		return fmt.Errorf("cron job needs a name and a run function")
	}
	if _, err := cron.ParseStandard(job.Schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, exists := s.jobs[job.Name]; exists {
		s.scheduler.Remove(old.entry)
	}

	name := job.Name
	entryID, err := s.scheduler.AddFunc(job.Schedule, func() {
		if err := s.execute(context.Background(), name, "schedule"); err != nil {
			s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job to scheduler: %w", err)
	}

	s.jobs[job.Name] = &registered{job: job, entry: entryID}
	s.logger.Info("cron job registered", zap.String("job", job.Name), zap.String("schedule", job.Schedule))
	return nil
}

func (s *CronServiceImpl) UnregisterJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, exists := s.jobs[name]; exists {
		s.scheduler.Remove(r.entry)
		delete(s.jobs, name)
	}
	return nil
}

func (s *CronServiceImpl) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, r := range s.jobs {
		info := JobInfo{
			Name:        r.job.Name,
			Description: r.job.Description,
			Schedule:    r.job.Schedule,
			LastRun:     r.lastRun,
		}
		if next := s.scheduler.Entry(r.entry).Next; !next.IsZero() {
			info.NextRun = &next
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *CronServiceImpl) ExecuteJob(ctx context.Context, name string) error {
	return s.execute(ctx, name, "manual")
}

func (s *CronServiceImpl) execute(ctx context.Context, name, trigger string) error {
	s.mu.RLock()
	r, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return errs.NotFoundError{Resource: "cron job"}
	}

	startTime := time.Now().UTC()
	logEntry := &CronJobLog{
		JobName:   name,
		Trigger:   trigger,
		StartTime: startTime,
		Status:    JobStatusRunning,
	}
	if err := s.repo.CreateLog(ctx, logEntry); err != nil {
		s.logger.Warn("failed to create cron log entry", zap.String("job", name), zap.Error(err))
	}

	affected, execError := r.job.Run(ctx)

	endTime := time.Now().UTC()
	logEntry.EndTime = &endTime
	logEntry.RecordsAffected = affected
	if execError != nil {
		logEntry.Status = JobStatusFailed
		logEntry.Error = execError.Error()
	} else {
		logEntry.Status = JobStatusSuccess
	}
	if err := s.repo.UpdateLog(ctx, logEntry); err != nil {
		s.logger.Warn("failed to update cron log entry", zap.String("job", name), zap.Error(err))
	}

	s.mu.Lock()
	r.lastRun = &startTime
	s.mu.Unlock()

	s.logger.Info("cron job finished",
		zap.String("job", name),
		zap.String("trigger", trigger),
		zap.String("status", string(logEntry.Status)),
		zap.Int("affected", affected),
		zap.Duration("took", endTime.Sub(startTime)),
	)
	return execError
}

func (s *CronServiceImpl) GetJobLogs(ctx context.Context, name string, limit int) ([]CronJobLog, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.GetLogs(ctx, name, limit)
}

func (s *CronServiceImpl) InitializeScheduler(ctx context.Context) error {
	s.logger.Info("starting cron scheduler", zap.Int("jobs", len(s.ListJobs())))
	s.scheduler.Start()
	return nil
}

func (s *CronServiceImpl) StopScheduler() error {
	ctx := s.scheduler.Stop()
	<-ctx.Done()
	return nil
}
