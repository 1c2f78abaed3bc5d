package cron_feature

import (
	"context"
	"errors"
	"testing"

	"go-itam/internal/common/errs"

	"go.uber.org/zap"
)

type mockCronRepo struct {
	logs []CronJobLog
}

func (m *mockCronRepo) CreateLog(ctx context.Context, log *CronJobLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockCronRepo) UpdateLog(ctx context.Context, log *CronJobLog) error {
	m.logs[len(m.logs)-1] = *log
	return nil
}

func (m *mockCronRepo) GetLogs(ctx context.Context, jobName string, limit int) ([]CronJobLog, error) {
	return m.logs, nil
}

func TestRegisterJobRejectsBadSchedule(t *testing.T) {
	svc := NewCronService(&mockCronRepo{}, zap.NewNop())

	err := svc.RegisterJob(Job{Name: "cleanup", Schedule: "every tuesday", Run: func(context.Context) (int, error) { return 0, nil }})
	if err == nil {
		t.Fatal("expected error for invalid schedule")
	}
	if len(svc.ListJobs()) != 0 {
		t.Error("invalid job was registered")
	}
}

func TestExecuteJobLogsOutcome(t *testing.T) {
	repo := &mockCronRepo{}
	svc := NewCronService(repo, zap.NewNop())
	boom := errors.New("disk full")

	fail := false
	job := Job{Name: "export-cleanup", Schedule: "@hourly", Run: func(context.Context) (int, error) {
		if fail {
			return 1, boom
		}
		return 3, nil
	}}
	if err := svc.RegisterJob(job); err != nil {
		t.Fatal(err)
	}

	if err := svc.ExecuteJob(context.Background(), "export-cleanup"); err != nil {
		t.Fatalf("ExecuteJob() error = %v", err)
	}
	fail = true
	if err := svc.ExecuteJob(context.Background(), "export-cleanup"); !errors.Is(err, boom) {
		t.Fatalf("ExecuteJob() error = %v, want %v", err, boom)
	}

	if len(repo.logs) != 2 {
		t.Fatalf("logs = %d, want 2", len(repo.logs))
	}
	if l := repo.logs[0]; l.Status != JobStatusSuccess || l.RecordsAffected != 3 || l.Trigger != "manual" || l.EndTime == nil {
		t.Errorf("first log = %+v", l)
	}
	if l := repo.logs[1]; l.Status != JobStatusFailed || l.Error != "disk full" {
		t.Errorf("second log = %+v", l)
	}

	jobs := svc.ListJobs()
	if len(jobs) != 1 || jobs[0].LastRun == nil {
		t.Errorf("ListJobs() = %+v", jobs)
	}
}

func TestExecuteUnknownJob(t *testing.T) {
	svc := NewCronService(&mockCronRepo{}, zap.NewNop())
	if err := svc.ExecuteJob(context.Background(), "nope"); !errs.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestSchedulerReportsNextRun(t *testing.T) {
	svc := NewCronService(&mockCronRepo{}, zap.NewNop())
	if err := svc.RegisterJob(Job{Name: "a", Schedule: "@every 1h", Run: func(context.Context) (int, error) { return 0, nil }}); err != nil {
		t.Fatal(err)
	}
	if err := svc.InitializeScheduler(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer svc.StopScheduler()

	jobs := svc.ListJobs()
	if len(jobs) != 1 || jobs[0].NextRun == nil {
		t.Errorf("ListJobs() = %+v, want a next run", jobs)
	}

	if err := svc.UnregisterJob("a"); err != nil {
		t.Fatal(err)
	}
	if len(svc.ListJobs()) != 0 {
		t.Error("job still listed after UnregisterJob")
	}
}
