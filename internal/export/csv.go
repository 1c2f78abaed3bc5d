package export

import (
	"encoding/csv"
	"io"

	"go-itam/internal/common/models"
)

type csvWriter struct {
	w       *csv.Writer
	columns []models.ColumnSpec
}

func newCSVWriter(w io.Writer) *csvWriter {
	return &csvWriter{w: csv.NewWriter(w)}
}

func (c *csvWriter) WriteHeader(columns []models.ColumnSpec) error {
	c.columns = columns
	return c.w.Write(headers(columns))
}

func (c *csvWriter) WriteRows(rows []models.Row) error {
	for _, r := range rows {
		if err := c.w.Write(cells(r, c.columns)); err != nil {
			return err
		}
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *csvWriter) Close() error {
	c.w.Flush()
	return c.w.Error()
}
