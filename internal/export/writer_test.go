package export

import (
	"bytes"
	"strings"
	"testing"

	"go-itam/internal/common/errs"
	"go-itam/internal/common/models"

	"github.com/xuri/excelize/v2"
)

func sampleColumns() []models.ColumnSpec {
	return []models.ColumnSpec{
		{ID: "name", Label: "Name"},
		{ID: "asset_tag", Type: models.ColumnTypeLink, URL: "/hardware/{id}"},
		{ID: "purchase_cost", Label: "Cost", Type: models.ColumnTypeCurrency},
	}
}

func sampleRows() []models.Row {
	a := models.NewRow(4)
	a.Set("name", "MacBook, Pro")
	a.Set("asset_tag", "MBP-1")
	a.Set("asset_tag_url", "/hardware/1")
	a.Set("purchase_cost", "2,499.00")

	b := models.NewRow(4)
	b.Set("name", "Dock")
	b.Set("asset_tag", nil)
	b.Set("purchase_cost", "89.00")
	return []models.Row{a, b}
}

func write(t *testing.T, format Format) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := New(format, &buf, "Asset report")
	if err != nil {
		t.Fatalf("New(%s) error = %v", format, err)
	}
	if err := w.WriteHeader(sampleColumns()); err != nil {
		t.Fatalf("WriteHeader() error = %v", err)
	}
	rows := sampleRows()
	if err := w.WriteRows(rows[:1]); err != nil {
		t.Fatalf("WriteRows() error = %v", err)
	}
	if err := w.WriteRows(rows[1:]); err != nil {
		t.Fatalf("WriteRows() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return buf.Bytes()
}

func TestCSVWriter(t *testing.T) {
	got := string(write(t, FormatCSV))
	want := "Name,asset_tag,Cost\n\"MacBook, Pro\",MBP-1,\"2,499.00\"\nDock,,89.00\n"
	if got != want {
		t.Errorf("csv =\n%q\nwant\n%q", got, want)
	}
}

func TestXLSXWriter(t *testing.T) {
	f, err := excelize.OpenReader(bytes.NewReader(write(t, FormatXLSX)))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	want := [][]string{
		{"Name", "asset_tag", "Cost"},
		{"MacBook, Pro", "MBP-1", "2,499.00"},
		{"Dock", "", "89.00"},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %v, want %v", rows, want)
	}
	for i := range want {
		if strings.Join(rows[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("row %d = %v, want %v", i, rows[i], want[i])
		}
	}
}

func TestPDFWriter(t *testing.T) {
	out := write(t, FormatPDF)
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Errorf("output does not look like a PDF: %q", out[:min(len(out), 16)])
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{"XLSX", FormatXLSX, false},
		{" pdf ", FormatPDF, false},
		{"", FormatCSV, false},
		{"docx", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v", tt.in, err)
			continue
		}
		if tt.wantErr && !errs.IsValidation(err) {
			t.Errorf("ParseFormat(%q) error should be a ValidationError", tt.in)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
