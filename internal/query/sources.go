package query

import (
	"sort"

	"go-itam/internal/common/errs"
	"go-itam/internal/common/models"
)

type FieldKind string

const (
	KindString FieldKind = "string"
	KindNumber FieldKind = "number"
	KindDate   FieldKind = "date"
	KindBool   FieldKind = "bool"
)

// Source describes one tabular data source: its collection or table name, its
// primary key and the declared kind of the fields whose filter values need
// coercion. Fields not listed are compared as supplied.
type Source struct {
	Type       models.ReportType
	Name       string
	PrimaryKey string
	Fields     map[string]FieldKind
}

func (s Source) Kind(field string) FieldKind {
	if k, ok := s.Fields[field]; ok {
		return k
	}
	return KindString
}

type Registry struct {
	sources map[models.ReportType]Source
}

func NewRegistry(sources ...Source) *Registry {
	r := &Registry{sources: make(map[models.ReportType]Source, len(sources))}
	for _, s := range sources {
		if s.PrimaryKey == "" {
			s.PrimaryKey = "id"
		}
		r.sources[s.Type] = s
	}
	return r
}

func (r *Registry) Resolve(t models.ReportType) (Source, error) {
	s, ok := r.sources[t]
	if !ok {
		return Source{}, errs.UnknownReportType(string(t))
	}
	return s, nil
}

func (r *Registry) Types() []models.ReportType {
	out := make([]models.ReportType, 0, len(r.sources))
	for t := range r.sources {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var timestamps = map[string]FieldKind{
	"created_at": KindDate,
	"updated_at": KindDate,
	"deleted_at": KindDate,
}

func withTimestamps(fields map[string]FieldKind) map[string]FieldKind {
	for k, v := range timestamps {
		fields[k] = v
	}
	return fields
}

// DefaultRegistry knows every report type of the asset manager.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Source{Type: models.ReportTypeAsset, Name: "assets", Fields: withTimestamps(map[string]FieldKind{
			"id": KindNumber, "model_id": KindNumber, "category_id": KindNumber, "location_id": KindNumber,
			"supplier_id": KindNumber, "assigned_to": KindNumber, "status_id": KindNumber,
			"purchase_cost": KindNumber, "warranty_months": KindNumber, "purchase_date": KindDate,
			"eol_date": KindDate, "last_checkout": KindDate, "requestable": KindBool,
		})},
		Source{Type: models.ReportTypeUser, Name: "users", Fields: withTimestamps(map[string]FieldKind{
			"id": KindNumber, "department_id": KindNumber, "location_id": KindNumber, "manager_id": KindNumber,
			"activated": KindBool, "last_login": KindDate,
		})},
		Source{Type: models.ReportTypeMaintenance, Name: "asset_maintenances", Fields: withTimestamps(map[string]FieldKind{
			"id": KindNumber, "asset_id": KindNumber, "supplier_id": KindNumber, "cost": KindNumber,
			"start_date": KindDate, "completion_date": KindDate, "asset_maintenance_time": KindNumber,
			"is_warranty": KindBool,
		})},
		Source{Type: models.ReportTypeAccessory, Name: "accessories", Fields: withTimestamps(map[string]FieldKind{
			"id": KindNumber, "category_id": KindNumber, "location_id": KindNumber, "supplier_id": KindNumber,
			"qty": KindNumber, "min_amt": KindNumber, "purchase_cost": KindNumber, "purchase_date": KindDate,
		})},
		Source{Type: models.ReportTypeConsumable, Name: "consumables", Fields: withTimestamps(map[string]FieldKind{
			"id": KindNumber, "category_id": KindNumber, "location_id": KindNumber, "qty": KindNumber,
			"min_amt": KindNumber, "purchase_cost": KindNumber, "purchase_date": KindDate,
		})},
		Source{Type: models.ReportTypeLicense, Name: "licenses", Fields: withTimestamps(map[string]FieldKind{
			"id": KindNumber, "seats": KindNumber, "purchase_cost": KindNumber, "supplier_id": KindNumber,
			"purchase_date": KindDate, "expiration_date": KindDate, "termination_date": KindDate,
			"maintained": KindBool, "reassignable": KindBool,
		})},
		Source{Type: models.ReportTypeLocation, Name: "locations", Fields: withTimestamps(map[string]FieldKind{
			"id": KindNumber, "parent_id": KindNumber, "manager_id": KindNumber,
		})},
		Source{Type: models.ReportTypeSupplier, Name: "suppliers", Fields: withTimestamps(map[string]FieldKind{
			"id": KindNumber,
		})},
		Source{Type: models.ReportTypeDepartment, Name: "departments", Fields: withTimestamps(map[string]FieldKind{
			"id": KindNumber, "location_id": KindNumber, "manager_id": KindNumber,
		})},
		Source{Type: models.ReportTypeStatusLabel, Name: "status_labels", Fields: withTimestamps(map[string]FieldKind{
			"id": KindNumber, "deployable": KindBool, "pending": KindBool, "archived": KindBool,
		})},
	)
}
