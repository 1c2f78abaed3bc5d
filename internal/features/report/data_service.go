package report

import (
	"context"
	"time"

	"go-itam/internal/cache"
	"go-itam/internal/common/errs"
	"go-itam/internal/common/models"
	"go-itam/internal/config"
	"go-itam/internal/format"
	"go-itam/internal/pager"
	"go-itam/internal/query"
	"go-itam/pkg/condition"

	"go.uber.org/zap"
)

// RowSink receives formatted rows during an export. export.Writer satisfies it.
type RowSink interface {
	WriteHeader(columns []models.ColumnSpec) error
	WriteRows(rows []models.Row) error
}

// DataService turns a report definition plus per-request options into
// formatted rows.
type DataService interface {
	Run(ctx context.Context, def *ReportDefinition, opts QueryOptions, userID string) (*models.ResultPage, error)
	// Stream writes every matching row to sink in chunks and returns the
	// number of rows written.
	Stream(ctx context.Context, def *ReportDefinition, opts QueryOptions, userID string, sink RowSink) (int64, error)
	Invalidate(ctx context.Context, reportID string) (int, error)
}

type DataServiceImpl struct {
	cfg       config.ReportConfig
	builder   *query.Builder
	source    query.DataSource
	cache     *cache.ResultCache
	formatter *format.Formatter
	logger    *zap.Logger
}

func NewDataService(cfg *config.Config, builder *query.Builder, source query.DataSource, resultCache *cache.ResultCache, formatter *format.Formatter, logger *zap.Logger) DataService {
	return &DataServiceImpl{
		cfg:       cfg.Report,
		builder:   builder,
		source:    source,
		cache:     resultCache,
		formatter: formatter,
		logger:    logger.Named("report"),
	}
}

// plan is a validated, built report read.
type plan struct {
	reportID string
	columns  []models.ColumnSpec
	filters  []models.Filter // unresolved, as supplied
	sorting  *models.Sorting
	query    query.Query
	scoped   bool
}

func (s *DataServiceImpl) prepare(def *ReportDefinition, opts QueryOptions, userID string) (*plan, error) {
	columns, err := SelectColumns(def.Columns, opts.Columns)
	if err != nil {
		return nil, err
	}
	if err := condition.Validate(def.Filters); err != nil {
		return nil, err
	}
	if err := condition.Validate(opts.Filters); err != nil {
		return nil, err
	}

	vars := map[string]any{"user.id": userID}
	base, baseScoped, err := condition.ResolveVariables(def.Filters, vars)
	if err != nil {
		return nil, err
	}
	runtime, runtimeScoped, err := condition.ResolveVariables(opts.Filters, vars)
	if err != nil {
		return nil, err
	}

	sorting := opts.Sorting
	if sorting == nil || sorting.Field == "" {
		sorting = def.Sorting
	}

	q, err := s.builder.Build(def.Type, base, runtime, sorting, columns)
	if err != nil {
		return nil, err
	}

	filters := make([]models.Filter, 0, len(def.Filters)+len(opts.Filters))
	filters = append(filters, def.Filters...)
	filters = append(filters, opts.Filters...)

	return &plan{
		reportID: def.ID.Hex(),
		columns:  columns,
		filters:  filters,
		sorting:  sorting,
		query:    q,
		scoped:   baseScoped || runtimeScoped,
	}, nil
}

// SelectColumns returns the definition columns named by ids, in the order
// requested. An empty selection keeps every column.
func SelectColumns(defined []models.ColumnSpec, ids []string) ([]models.ColumnSpec, error) {
	columns := defined
	if len(ids) > 0 {
		byID := make(map[string]models.ColumnSpec, len(defined))
		for _, c := range defined {
			byID[c.ID] = c
		}
		columns = make([]models.ColumnSpec, 0, len(ids))
		for _, id := range ids {
			c, ok := byID[id]
			if !ok {
				return nil, errs.InvalidField(id)
			}
			columns = append(columns, c)
		}
	}
	return columns, ValidateColumns(columns)
}

func ValidateColumns(columns []models.ColumnSpec) error {
	if len(columns) == 0 {
		return errs.ValidationError{Code: errs.CodeNoColumns}
	}
	if len(columns) > MaxColumns {
		return errs.ValidationError{Code: errs.CodeTooManyColumns, Value: "at most 50 columns are allowed"}
	}
	for _, c := range columns {
		if c.ID == "" || !condition.IsSafeField(c.ID) {
			return errs.InvalidField(c.ID)
		}
	}
	return nil
}

func (s *DataServiceImpl) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.QueryTimeout)
}

func (s *DataServiceImpl) Run(ctx context.Context, def *ReportDefinition, opts QueryOptions, userID string) (*models.ResultPage, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := s.prepare(def, opts, userID)
	if err != nil {
		return nil, err
	}

	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = def.PerPage
	}
	params := pager.Params{
		Page:       opts.Page,
		PerPage:    perPage,
		MaxPerPage: s.cfg.MaxPerPage,
	}.Normalize()
	params.MaxTotal = int64(params.MaxPerPage) * 10

	keyUser := ""
	if p.scoped {
		keyUser = userID
	}
	ttl := time.Duration(opts.CacheTTL) * time.Second

	pageEntry := cache.Entry{
		ReportID: p.reportID,
		Key: cache.Key(cache.KeyParts{
			ReportID: p.reportID,
			Kind:     "page",
			Filters:  p.filters,
			Sorting:  p.sorting,
			Page:     params.Page,
			PerPage:  params.PerPage,
			Columns:  columnIDs(p.columns),
			UserID:   keyUser,
		}),
		TTL:    ttl,
		Bypass: opts.BypassCache,
	}
	countEntry := cache.Entry{
		ReportID: p.reportID,
		Key: cache.Key(cache.KeyParts{
			ReportID: p.reportID,
			Kind:     "count",
			Filters:  p.filters,
			UserID:   keyUser,
		}),
		TTL:    ttl,
		Bypass: opts.BypassCache,
	}

	src := &countingSource{
		guardedSource: s.guard(p),
		count: func(ctx context.Context, inner func(context.Context) (int64, error)) (int64, error) {
			n, _, err := cache.GetOrCompute(ctx, s.cache, countEntry, inner)
			return n, err
		},
	}

	page, hit, err := cache.GetOrCompute(ctx, s.cache, pageEntry, func(ctx context.Context) (models.ResultPage, error) {
		raw, err := pager.Paginate(ctx, src, p.query, params)
		if err != nil {
			return models.ResultPage{}, err
		}
		rows, err := s.formatter.FormatRows(raw.Rows, p.columns)
		if err != nil {
			return models.ResultPage{}, err
		}
		return models.ResultPage{Data: rows, PageMeta: raw.PageMeta}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("report run",
		zap.String("report_id", p.reportID),
		zap.String("query", p.query.String()),
		zap.Int("page", params.Page),
		zap.Bool("cache_hit", hit),
	)
	return &page, nil
}

func (s *DataServiceImpl) Stream(ctx context.Context, def *ReportDefinition, opts QueryOptions, userID string, sink RowSink) (int64, error) {
	p, err := s.prepare(def, opts, userID)
	if err != nil {
		return 0, err
	}
	src := s.guard(p)

	countCtx, cancel := s.withTimeout(ctx)
	total, err := src.Count(countCtx, p.query)
	cancel()
	if err != nil {
		return 0, err
	}
	if s.cfg.MaxExportRows > 0 && total > s.cfg.MaxExportRows {
		return 0, errs.TooManyResultsError{Count: total, Limit: s.cfg.MaxExportRows}
	}

	if err := sink.WriteHeader(p.columns); err != nil {
		return 0, err
	}

	chunk := s.cfg.ExportChunk
	if chunk <= 0 {
		chunk = 1000
	}
	counted := &countingSource{
		guardedSource: src,
		count: func(context.Context, func(context.Context) (int64, error)) (int64, error) {
			return total, nil
		},
	}

	var written int64
	for page := 1; ; page++ {
		chunkCtx, cancel := s.withTimeout(ctx)
		raw, err := pager.Paginate(chunkCtx, counted, p.query, pager.Params{Page: page, PerPage: chunk, MaxPerPage: chunk})
		cancel()
		if err != nil {
			return written, err
		}
		if len(raw.Rows) == 0 {
			break
		}

		rows, err := s.formatter.FormatRows(raw.Rows, p.columns)
		if err != nil {
			return written, err
		}
		if err := sink.WriteRows(rows); err != nil {
			return written, err
		}
		written += int64(len(rows))

		if page >= raw.LastPage {
			break
		}
	}

	s.logger.Info("report streamed",
		zap.String("report_id", p.reportID),
		zap.String("user_id", userID),
		zap.Int64("rows", written),
	)
	return written, nil
}

func (s *DataServiceImpl) Invalidate(ctx context.Context, reportID string) (int, error) {
	n, err := s.cache.Invalidate(ctx, reportID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("report cache invalidated", zap.String("report_id", reportID), zap.Int("keys", n))
	return n, nil
}

func (s *DataServiceImpl) guard(p *plan) *guardedSource {
	return &guardedSource{
		inner: s.source,
		onError: func(op string, err error) error {
			s.logger.Error("report query failed",
				zap.String("report_id", p.reportID),
				zap.String("op", op),
				zap.Strings("filters", filterStrings(p.filters)),
				zap.Strings("columns", columnIDs(p.columns)),
				zap.String("query", p.query.String()),
				zap.Error(err),
			)
			return errs.QueryExecutionError{ReportID: p.reportID, Err: err}
		},
	}
}

// guardedSource wraps backend failures in QueryExecutionError.
type guardedSource struct {
	inner   query.DataSource
	onError func(op string, err error) error
}

func (g *guardedSource) Count(ctx context.Context, q query.Query) (int64, error) {
	n, err := g.inner.Count(ctx, q)
	if err != nil {
		return 0, g.onError("count", err)
	}
	return n, nil
}

func (g *guardedSource) Fetch(ctx context.Context, q query.Query, offset, limit int) ([]map[string]any, error) {
	rows, err := g.inner.Fetch(ctx, q, offset, limit)
	if err != nil {
		return nil, g.onError("fetch", err)
	}
	return rows, nil
}

// countingSource routes Count through a provider that can answer it without
// touching the backend.
type countingSource struct {
	*guardedSource
	count func(ctx context.Context, inner func(context.Context) (int64, error)) (int64, error)
}

func (c *countingSource) Count(ctx context.Context, q query.Query) (int64, error) {
	return c.count(ctx, func(ctx context.Context) (int64, error) {
		return c.guardedSource.Count(ctx, q)
	})
}

func columnIDs(columns []models.ColumnSpec) []string {
	ids := make([]string, len(columns))
	for i, c := range columns {
		ids[i] = c.ID
	}
	return ids
}

func filterStrings(filters []models.Filter) []string {
	out := make([]string, len(filters))
	for i, f := range filters {
		out[i] = f.String()
	}
	return out
}
