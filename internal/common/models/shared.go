package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContextKey string

const (
	UserIDKey ContextKey = "user_id"
)

type AuditAction string

const (
	AuditActionCreate     AuditAction = "CREATE"
	AuditActionUpdate     AuditAction = "UPDATE"
	AuditActionDelete     AuditAction = "DELETE"
	AuditActionExport     AuditAction = "EXPORT"
	AuditActionInvalidate AuditAction = "INVALIDATE"
	AuditActionCleanup    AuditAction = "CLEANUP"
)

type Change struct {
	Old interface{} `bson:"old" json:"old"`
	New interface{} `bson:"new" json:"new"`
}

type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action    AuditAction        `bson:"action" json:"action"`
	Module    string             `bson:"module" json:"module"`       // reports, report_files, report_cache
	RecordID  string             `bson:"record_id" json:"record_id"` // The ID of the affected document
	ActorID   string             `bson:"actor_id" json:"actor_id"`
	Changes   map[string]Change  `bson:"changes,omitempty" json:"changes,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

type Log struct {
	Message      string    `bson:"message" json:"message"`
	Caller       string    `bson:"caller,omitempty" json:"caller,omitempty"`
	ReportID     string    `bson:"report_id,omitempty" json:"report_id,omitempty"`
	UserID       string    `bson:"user_id,omitempty" json:"user_id,omitempty"`
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	AppId        string    `bson:"app_id" json:"app_id"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}

// ReportType names the entity a report reads from. Each type maps to exactly
// one data source.
type ReportType string

const (
	ReportTypeAsset       ReportType = "asset"
	ReportTypeUser        ReportType = "user"
	ReportTypeMaintenance ReportType = "maintenance"
	ReportTypeAccessory   ReportType = "accessory"
	ReportTypeConsumable  ReportType = "consumable"
	ReportTypeLicense     ReportType = "license"
	ReportTypeLocation    ReportType = "location"
	ReportTypeSupplier    ReportType = "supplier"
	ReportTypeDepartment  ReportType = "department"
	ReportTypeStatusLabel ReportType = "status_label"
)

// Column Definitions
type ColumnType string

const (
	ColumnTypeString     ColumnType = "string"
	ColumnTypeDate       ColumnType = "date"
	ColumnTypeDateTime   ColumnType = "datetime"
	ColumnTypeCurrency   ColumnType = "currency"
	ColumnTypeNumber     ColumnType = "number"
	ColumnTypeDecimal    ColumnType = "decimal"
	ColumnTypePercentage ColumnType = "percentage"
	ColumnTypeBoolean    ColumnType = "boolean"
	ColumnTypeArray      ColumnType = "array"
	ColumnTypeJSON       ColumnType = "json"
	ColumnTypeLink       ColumnType = "link"
)

const DefaultDecimals = 2

type ColumnSpec struct {
	ID       string     `json:"id" bson:"id"`
	Label    string     `json:"label,omitempty" bson:"label,omitempty"`
	Type     ColumnType `json:"type" bson:"type"`
	Decimals *int       `json:"decimals,omitempty" bson:"decimals,omitempty"`
	Currency string     `json:"currency,omitempty" bson:"currency,omitempty"`
	URL      string     `json:"url,omitempty" bson:"url,omitempty"` // link template, e.g. /hardware/{id}
}

// UnmarshalJSON accepts either a bare column id or a full column object.
func (c *ColumnSpec) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*c = ColumnSpec{ID: id, Type: ColumnTypeString}
		return nil
	}

	type plain ColumnSpec
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("invalid column: %w", err)
	}
	*c = ColumnSpec(p)
	if c.Type == "" {
		c.Type = ColumnTypeString
	}
	return nil
}

func (c ColumnSpec) Header() string {
	if c.Label != "" {
		return c.Label
	}
	return c.ID
}

func (c ColumnSpec) DecimalPlaces() int {
	if c.Decimals == nil || *c.Decimals < 0 {
		return DefaultDecimals
	}
	return *c.Decimals
}

var urlPlaceholder = regexp.MustCompile(`\{([A-Za-z0-9_.-]+)\}`)

// URLFields lists the row fields referenced by {placeholder} tokens in URL.
func (c ColumnSpec) URLFields() []string {
	matches := urlPlaceholder.FindAllStringSubmatch(c.URL, -1)
	fields := make([]string, 0, len(matches))
	for _, m := range matches {
		fields = append(fields, m[1])
	}
	return fields
}

// ResolveURL substitutes placeholders with lookup results. Tokens lookup
// cannot resolve stay in the output as written.
func (c ColumnSpec) ResolveURL(lookup func(field string) (any, bool)) string {
	return urlPlaceholder.ReplaceAllStringFunc(c.URL, func(token string) string {
		field := token[1 : len(token)-1]
		if v, ok := lookup(field); ok && v != nil {
			return fmt.Sprint(v)
		}
		return token
	})
}

// URLKey is the sibling field a link column writes its resolved URL to.
func (c ColumnSpec) URLKey() string {
	return c.ID + "_url"
}

type Filter struct {
	Field    string      `json:"field" bson:"field"`
	Operator string      `json:"operator" bson:"operator"`
	Value    interface{} `json:"value,omitempty" bson:"value,omitempty"`
}

func (f Filter) String() string {
	return fmt.Sprintf("%s %s %v", f.Field, strings.ToLower(f.Operator), f.Value)
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type Sorting struct {
	Field     string        `json:"field" bson:"field"`
	Direction SortDirection `json:"direction" bson:"direction"`
}

// PageMeta carries pagination metadata. From and To are 1-based inclusive
// bounds of the returned slice and are nil when the slice is empty.
type PageMeta struct {
	Total       int64  `json:"total"`
	PerPage     int    `json:"per_page"`
	CurrentPage int    `json:"current_page"`
	LastPage    int    `json:"last_page"`
	From        *int64 `json:"from"`
	To          *int64 `json:"to"`
}

type ResultPage struct {
	Data []Row `json:"data"`
	PageMeta
}
