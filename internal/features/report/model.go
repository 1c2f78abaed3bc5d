package report

import (
	"time"

	"go-itam/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxColumns = 50

// ReportDefinition is a saved report: which entity it reads, which columns
// it shows and the filters that always apply.
type ReportDefinition struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Name        string              `json:"name" bson:"name"`
	Description string              `json:"description,omitempty" bson:"description,omitempty"`
	Type        models.ReportType   `json:"type" bson:"type"`
	Columns     []models.ColumnSpec `json:"columns" bson:"columns"`
	Filters     []models.Filter     `json:"filters" bson:"filters"`
	Sorting     *models.Sorting     `json:"sorting,omitempty" bson:"sorting,omitempty"`
	IsPublic    bool                `json:"is_public" bson:"is_public"`
	CreatedBy   string              `json:"created_by" bson:"created_by"`
	PerPage     int                 `json:"per_page,omitempty" bson:"per_page,omitempty"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" bson:"updated_at"`
}

// QueryOptions are the per-request knobs of a report run. They are never
// persisted.
type QueryOptions struct {
	Filters     []models.Filter `json:"filters"`
	Sorting     *models.Sorting `json:"sorting,omitempty"`
	Page        int             `json:"page"`
	PerPage     int             `json:"per_page"`
	Columns     []string        `json:"columns,omitempty"` // subset of the definition's column ids
	BypassCache bool            `json:"bypass_cache"`
	CacheTTL    int             `json:"cache_ttl"` // seconds
	IsExport    bool            `json:"-"`
}

type ExportRequest struct {
	Format  string          `json:"format"`
	Filters []models.Filter `json:"filters"`
	Sorting *models.Sorting `json:"sorting,omitempty"`
	Columns []string        `json:"columns,omitempty"`
}

func (r ExportRequest) Options() QueryOptions {
	return QueryOptions{
		Filters:  r.Filters,
		Sorting:  r.Sorting,
		Columns:  r.Columns,
		IsExport: true,
	}
}

// ReportFile is a generated export kept on disk until ExpiresAt.
type ReportFile struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ReportID    string             `json:"report_id" bson:"report_id"`
	FileName    string             `json:"file_name" bson:"file_name"`
	FilePath    string             `json:"-" bson:"file_path"`
	Format      string             `json:"format" bson:"format"`
	Size        int64              `json:"size" bson:"size"`
	RowCount    int64              `json:"row_count" bson:"row_count"`
	GeneratedBy string             `json:"generated_by" bson:"generated_by"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	ExpiresAt   time.Time          `json:"expires_at" bson:"expires_at"`
}

// Actor is the caller a report operation runs on behalf of.
type Actor struct {
	UserID string
	Admin  bool
}

// CanRead reports whether a can run or export def.
func (a Actor) CanRead(def *ReportDefinition) bool {
	return a.Admin || def.IsPublic || (a.UserID != "" && def.CreatedBy == a.UserID)
}

// CanWrite reports whether a can modify or delete def.
func (a Actor) CanWrite(def *ReportDefinition) bool {
	return a.Admin || (a.UserID != "" && def.CreatedBy == a.UserID)
}
