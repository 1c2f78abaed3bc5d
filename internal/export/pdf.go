package export

import (
	"io"

	"go-itam/internal/common/models"

	"github.com/phpdave11/gofpdf"
)

const (
	pdfMargin    = 10.0
	pdfRowHeight = 6.0
	pdfFontSize  = 8.0
)

// pdfWriter lays rows out as a landscape table. The header row repeats on
// every page.
type pdfWriter struct {
	out       io.Writer
	pdf       *gofpdf.Fpdf
	translate func(string) string
	columns   []models.ColumnSpec
	colWidth  float64
}

func newPDFWriter(w io.Writer, title string) *pdfWriter {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	if title != "" {
		pdf.SetTitle(title, true)
	}
	pdf.SetCreator("go-itam", true)
	pdf.AddPage()

	p := &pdfWriter{out: w, pdf: pdf, translate: pdf.UnicodeTranslatorFromDescriptor("")}
	if title != "" {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 10, p.translate(title), "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}
	return p
}

func (p *pdfWriter) WriteHeader(columns []models.ColumnSpec) error {
	p.columns = columns
	if len(columns) > 0 {
		pageWidth, _ := p.pdf.GetPageSize()
		p.colWidth = (pageWidth - 2*pdfMargin) / float64(len(columns))
	}
	p.header()
	return p.pdf.Error()
}

func (p *pdfWriter) header() {
	p.pdf.SetFont("Helvetica", "B", pdfFontSize)
	p.pdf.SetFillColor(224, 224, 224)
	for _, h := range headers(p.columns) {
		p.cell(h, true)
	}
	p.pdf.Ln(-1)
	p.pdf.SetFont("Helvetica", "", pdfFontSize)
}

func (p *pdfWriter) WriteRows(rows []models.Row) error {
	_, pageHeight := p.pdf.GetPageSize()
	for _, r := range rows {
		if p.pdf.GetY()+pdfRowHeight > pageHeight-pdfMargin {
			p.pdf.AddPage()
			p.header()
		}
		for _, s := range cells(r, p.columns) {
			p.cell(s, false)
		}
		p.pdf.Ln(-1)
	}
	return p.pdf.Error()
}

func (p *pdfWriter) cell(s string, fill bool) {
	s = p.fit(p.translate(s))
	p.pdf.CellFormat(p.colWidth, pdfRowHeight, s, "1", 0, "L", fill, 0, "")
}

// fit truncates s with an ellipsis until it fits the column. s is already in
// the single-byte font encoding.
func (p *pdfWriter) fit(s string) string {
	limit := p.colWidth - 2
	if p.pdf.GetStringWidth(s) <= limit {
		return s
	}
	for len(s) > 0 && p.pdf.GetStringWidth(s+"...") > limit {
		s = s[:len(s)-1]
	}
	return s + "..."
}

func (p *pdfWriter) Close() error {
	if err := p.pdf.Error(); err != nil {
		return err
	}
	return p.pdf.Output(p.out)
}
