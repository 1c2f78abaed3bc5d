package format

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go-itam/internal/common/errs"
	"go-itam/internal/common/models"
	"go-itam/pkg/condition"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

var (
	errNotNumeric = errors.New("not a number")
	errNotList    = errors.New("not a list")
)

// Formatter turns raw source values into presentation values. In strict mode
// a value that does not fit its column type fails the row; in lenient mode the
// raw value is stringified and a warning is logged.
type Formatter struct {
	lenient bool
	logger  *zap.Logger
}

func New(lenient bool, logger *zap.Logger) *Formatter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Formatter{lenient: lenient, logger: logger.Named("format")}
}

// Format converts one value. Nil stays nil for every column type.
func (f *Formatter) Format(value any, col models.ColumnSpec) (any, error) {
	if value == nil {
		return nil, nil
	}

	out, err := formatValue(value, col)
	if err == nil {
		return out, nil
	}

	ferr := errs.FormatError{Column: col.ID, Type: string(col.Type), Value: value, Err: err}
	if !f.lenient {
		return nil, ferr
	}
	f.logger.Warn("value does not match column type", zap.Error(ferr))
	return fmt.Sprint(value), nil
}

func formatValue(value any, col models.ColumnSpec) (any, error) {
	switch col.Type {
	case models.ColumnTypeDate:
		t, err := toTime(value)
		if err != nil {
			return nil, err
		}
		return t.Format(DateLayout), nil

	case models.ColumnTypeDateTime:
		t, err := toTime(value)
		if err != nil {
			return nil, err
		}
		return t.Format(DateTimeLayout), nil

	case models.ColumnTypeCurrency:
		n, err := toFloat(value)
		if err != nil {
			return nil, err
		}
		s := grouped(n, col.DecimalPlaces())
		if col.Currency != "" {
			s = col.Currency + " " + s
		}
		return s, nil

	case models.ColumnTypeNumber, models.ColumnTypeDecimal:
		n, err := toFloat(value)
		if err != nil {
			return nil, err
		}
		return strconv.FormatFloat(n, 'f', col.DecimalPlaces(), 64), nil

	case models.ColumnTypePercentage:
		n, err := toFloat(value)
		if err != nil {
			return nil, err
		}
		return strconv.FormatFloat(n*100, 'f', col.DecimalPlaces(), 64) + "%", nil

	case models.ColumnTypeBoolean:
		b, err := cast.ToBoolE(value)
		if err != nil {
			return nil, err
		}
		if b {
			return "Yes", nil
		}
		return "No", nil

	case models.ColumnTypeArray:
		if s, ok := value.(string); ok {
			return s, nil
		}
		items, ok := condition.AsSlice(value)
		if !ok {
			return nil, errNotList
		}
		parts := make([]string, 0, len(items))
		for _, it := range items {
			if it == nil {
				continue
			}
			parts = append(parts, stringify(it))
		}
		return strings.Join(parts, ", "), nil

	case models.ColumnTypeJSON:
		if s, ok := value.(string); ok {
			return s, nil
		}
		b, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return nil, err
		}
		return string(b), nil

	case models.ColumnTypeLink:
		return value, nil
	}

	return stringify(value), nil
}

func toTime(v any) (time.Time, error) {
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	return cast.ToTimeE(v)
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case bool:
		return 0, errNotNumeric
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return 0, errNotNumeric
		}
		v = t
	}
	n, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, errNotNumeric
	}
	return n, nil
}

// grouped renders n with a thousands separator and exactly decimals digits.
func grouped(n float64, decimals int) string {
	return humanize.FormatFloat("#,###."+strings.Repeat("#", decimals), n)
}

func stringify(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format(DateTimeLayout)
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err == nil {
			return string(b)
		}
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

// FormatRow builds a presentation row in column order. Link columns with a URL
// template also get a sibling <id>_url field resolved against the raw row.
func (f *Formatter) FormatRow(raw map[string]any, columns []models.ColumnSpec) (models.Row, error) {
	row := models.NewRow(len(columns))
	for _, col := range columns {
		v, err := f.Format(raw[col.ID], col)
		if err != nil {
			return models.Row{}, err
		}
		row.Set(col.ID, v)

		if col.Type == models.ColumnTypeLink && col.URL != "" {
			row.Set(col.URLKey(), col.ResolveURL(func(field string) (any, bool) {
				v, ok := raw[field]
				return v, ok
			}))
		}
	}
	return row, nil
}

func (f *Formatter) FormatRows(raws []map[string]any, columns []models.ColumnSpec) ([]models.Row, error) {
	rows := make([]models.Row, 0, len(raws))
	for _, raw := range raws {
		row, err := f.FormatRow(raw, columns)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
