package report

import (
	"context"
	"strings"

	"go-itam/internal/common/errs"
	common_models "go-itam/internal/common/models"
	"go-itam/internal/features/audit"
	"go-itam/internal/query"
	"go-itam/pkg/condition"

	"go.uber.org/zap"
)

type ReportService interface {
	CreateReport(ctx context.Context, report *ReportDefinition, actor Actor) error
	GetReport(ctx context.Context, id string, actor Actor) (*ReportDefinition, error)
	ListReports(ctx context.Context, actor Actor) ([]ReportDefinition, error)
	UpdateReport(ctx context.Context, id string, report *ReportDefinition, actor Actor) error
	DeleteReport(ctx context.Context, id string, actor Actor) error
	RunReport(ctx context.Context, id string, opts QueryOptions, actor Actor) (*common_models.ResultPage, error)
	InvalidateCache(ctx context.Context, id string, actor Actor) (int, error)
}

type ReportServiceImpl struct {
	ReportRepo   ReportRepository
	Registry     *query.Registry
	DataService  DataService
	AuditService audit.AuditService
	logger       *zap.Logger
}

func NewReportService(reportRepo ReportRepository, registry *query.Registry, dataService DataService, auditService audit.AuditService, logger *zap.Logger) ReportService {
	return &ReportServiceImpl{
		ReportRepo:   reportRepo,
		Registry:     registry,
		DataService:  dataService,
		AuditService: auditService,
		logger:       logger.Named("report"),
	}
}

// validateDefinition checks everything a saved definition must satisfy
// before it can ever be run.
func (s *ReportServiceImpl) validateDefinition(report *ReportDefinition) error {
	report.Name = strings.TrimSpace(report.Name)
	if report.Name == "" {
		return errs.ValidationError{Code: errs.CodeInvalidValue, Field: "name", Msg: "report name is required"}
	}
	if _, err := s.Registry.Resolve(report.Type); err != nil {
		return err
	}
	if err := ValidateColumns(report.Columns); err != nil {
		return err
	}
	if report.PerPage < 0 {
		report.PerPage = 0
	}
	return condition.Validate(report.Filters)
}

func (s *ReportServiceImpl) audit(ctx context.Context, action common_models.AuditAction, recordID string, changes map[string]common_models.Change) {
	if err := s.AuditService.LogChange(ctx, action, "reports", recordID, changes); err != nil {
		s.logger.Warn("audit write failed", zap.String("report_id", recordID), zap.Error(err))
	}
}

func (s *ReportServiceImpl) CreateReport(ctx context.Context, report *ReportDefinition, actor Actor) error {
	if err := s.validateDefinition(report); err != nil {
		return err
	}
	report.CreatedBy = actor.UserID

	if err := s.ReportRepo.Create(ctx, report); err != nil {
		return err
	}
	s.audit(ctx, common_models.AuditActionCreate, report.ID.Hex(), map[string]common_models.Change{
		"report": {New: report},
	})
	return nil
}

func (s *ReportServiceImpl) GetReport(ctx context.Context, id string, actor Actor) (*ReportDefinition, error) {
	report, err := s.ReportRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanRead(report) {
		// private reports are invisible to other users
		return nil, errs.NotFoundError{Resource: "report"}
	}
	return report, nil
}

func (s *ReportServiceImpl) ListReports(ctx context.Context, actor Actor) ([]ReportDefinition, error) {
	if actor.Admin {
		return s.ReportRepo.List(ctx, "")
	}
	return s.ReportRepo.List(ctx, actor.UserID)
}

func (s *ReportServiceImpl) writable(ctx context.Context, id string, actor Actor) (*ReportDefinition, error) {
	existing, err := s.GetReport(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !actor.CanWrite(existing) {
		return nil, errs.ForbiddenError{Msg: "only the report owner can modify this report"}
	}
	return existing, nil
}

func (s *ReportServiceImpl) UpdateReport(ctx context.Context, id string, report *ReportDefinition, actor Actor) error {
	existing, err := s.writable(ctx, id, actor)
	if err != nil {
		return err
	}
	if err := s.validateDefinition(report); err != nil {
		return err
	}

	report.ID = existing.ID
	report.CreatedBy = existing.CreatedBy
	report.CreatedAt = existing.CreatedAt
	if err := s.ReportRepo.Update(ctx, id, report); err != nil {
		return err
	}

	s.invalidate(ctx, existing.ID.Hex())
	s.audit(ctx, common_models.AuditActionUpdate, id, map[string]common_models.Change{
		"report": {Old: existing, New: report},
	})
	return nil
}

func (s *ReportServiceImpl) DeleteReport(ctx context.Context, id string, actor Actor) error {
	existing, err := s.writable(ctx, id, actor)
	if err != nil {
		return err
	}
	if err := s.ReportRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, existing.ID.Hex())
	s.audit(ctx, common_models.AuditActionDelete, id, map[string]common_models.Change{
		"report": {Old: existing},
	})
	return nil
}

// invalidate drops cached results after a definition change. A cache outage
// only delays freshness until the entries expire.
func (s *ReportServiceImpl) invalidate(ctx context.Context, id string) {
	if _, err := s.DataService.Invalidate(ctx, id); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("report_id", id), zap.Error(err))
	}
}

func (s *ReportServiceImpl) RunReport(ctx context.Context, id string, opts QueryOptions, actor Actor) (*common_models.ResultPage, error) {
	report, err := s.GetReport(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return s.DataService.Run(ctx, report, opts, actor.UserID)
}

func (s *ReportServiceImpl) InvalidateCache(ctx context.Context, id string, actor Actor) (int, error) {
	existing, err := s.writable(ctx, id, actor)
	if err != nil {
		return 0, err
	}
	n, err := s.DataService.Invalidate(ctx, existing.ID.Hex())
	if err != nil {
		return 0, err
	}
	s.audit(ctx, common_models.AuditActionInvalidate, id, map[string]common_models.Change{
		"keys": {New: n},
	})
	return n, nil
}
