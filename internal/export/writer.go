package export

import (
	"fmt"
	"io"
	"strings"

	"go-itam/internal/common/errs"
	"go-itam/internal/common/models"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	case "":
		return FormatCSV, nil
	}
	return "", errs.ValidationError{Code: errs.CodeInvalidFormat, Value: s, Msg: fmt.Sprintf("unsupported export format: %q", s)}
}

func (f Format) Extension() string {
	return "." + string(f)
}

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "text/csv"
}

// Writer streams formatted rows into a file format. WriteHeader is called
// once before any WriteRows; Close flushes whatever the format buffers.
type Writer interface {
	WriteHeader(columns []models.ColumnSpec) error
	WriteRows(rows []models.Row) error
	Close() error
}

func New(format Format, w io.Writer, title string) (Writer, error) {
	switch format {
	case FormatCSV:
		return newCSVWriter(w), nil
	case FormatXLSX:
		return newXLSXWriter(w, title)
	case FormatPDF:
		return newPDFWriter(w, title), nil
	}
	return nil, errs.ValidationError{Code: errs.CodeInvalidFormat, Value: string(format), Msg: fmt.Sprintf("unsupported export format: %q", format)}
}

// cells renders a row's column values as display text in column order.
func cells(row models.Row, columns []models.ColumnSpec) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		v, _ := row.Get(c.ID)
		out[i] = text(v)
	}
	return out
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	return fmt.Sprint(v)
}

func headers(columns []models.ColumnSpec) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Header()
	}
	return out
}
