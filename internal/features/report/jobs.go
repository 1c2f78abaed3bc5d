package report

import (
	"go-itam/internal/config"
	cron_feature "go-itam/internal/features/cron"
)

const CleanupJobName = "export-cleanup"

// RegisterCleanupJob schedules removal of expired export files.
func RegisterCleanupJob(cfg *config.Config, scheduler cron_feature.CronService, exports ExportService) error {
	return scheduler.RegisterJob(cron_feature.Job{
		Name:        CleanupJobName,
		Description: "Delete generated report files past their expiry",
		Schedule:    cfg.Export.CleanupSchedule,
		Run:         exports.CleanupExpired,
	})
}
