package export

import (
	"io"

	"go-itam/internal/common/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Report"

type xlsxWriter struct {
	out     io.Writer
	file    *excelize.File
	stream  *excelize.StreamWriter
	columns []models.ColumnSpec
	header  int
	row     int
}

func newXLSXWriter(w io.Writer, title string) (*xlsxWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		f.Close()
		return nil, err
	}
	if title != "" {
		f.SetDocProps(&excelize.DocProperties{Title: title, Creator: "go-itam"})
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &xlsxWriter{out: w, file: f, stream: sw, header: headerStyle}, nil
}

func (x *xlsxWriter) WriteHeader(columns []models.ColumnSpec) error {
	x.columns = columns
	if len(columns) > 0 {
		if err := x.stream.SetColWidth(1, len(columns), 18); err != nil {
			return err
		}
	}

	values := make([]interface{}, len(columns))
	for i, h := range headers(columns) {
		values[i] = excelize.Cell{StyleID: x.header, Value: h}
	}
	return x.next(values)
}

func (x *xlsxWriter) WriteRows(rows []models.Row) error {
	for _, r := range rows {
		values := make([]interface{}, len(x.columns))
		for i, s := range cells(r, x.columns) {
			values[i] = s
		}
		if err := x.next(values); err != nil {
			return err
		}
	}
	return nil
}

func (x *xlsxWriter) next(values []interface{}) error {
	x.row++
	cell, err := excelize.CoordinatesToCellName(1, x.row)
	if err != nil {
		return err
	}
	return x.stream.SetRow(cell, values)
}

func (x *xlsxWriter) Close() error {
	defer x.file.Close()
	if err := x.stream.Flush(); err != nil {
		return err
	}
	return x.file.Write(x.out)
}
