package outwriter

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/huangsam/pulsecheck/schema"
)

const (
	pdfLineHeight = 6.0
	pdfCellHeight = 7.0
)

// writePDF renders an A4 document with one section per table.
func writePDF(w io.Writer, view schema.AnalysisSummary, tables []table) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle("pulsecheck health summary", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageWidth - left - right

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(usable, 10, "pulsecheck health summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.MultiCell(usable, pdfLineHeight, tr(headline(view)), "", "L", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	for _, t := range tables {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(usable, pdfCellHeight+1, tr(t.Title), "", 1, "L", false, 0, "")
		if t.Name == "recommendations" {
			writePDFRecommendations(pdf, tr, view.Recommendations, usable)
		} else if len(t.Rows) > 0 {
			writePDFTable(pdf, tr, t, usable)
		}
		if t.Note != "" {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.MultiCell(usable, pdfLineHeight, tr(t.Note), "", "L", false)
		}
		pdf.Ln(4)
	}

	if view.Metadata.DroppedRecords > 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(usable, pdfLineHeight, fmt.Sprintf("Skipped %d unusable records.", view.Metadata.DroppedRecords), "", 1, "L", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to build PDF: %w", err)
	}
	return pdf.Output(w)
}

// writePDFTable draws a bordered grid. The first column gets extra room for labels.
func writePDFTable(pdf *fpdf.Fpdf, tr func(string) string, t table, usable float64) {
	cols := len(t.Header)
	first := usable * 0.28
	other := (usable - first) / float64(max(cols-1, 1))
	width := func(i int) float64 {
		switch {
		case cols == 1:
			return usable
		case i == 0:
			return first
		default:
			return other
		}
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(235, 238, 241)
	for i, h := range t.Header {
		pdf.CellFormat(width(i), pdfCellHeight, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, row := range t.Rows {
		for i, cell := range row {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(width(i), pdfCellHeight, tr(cell), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// writePDFRecommendations lists recommendations as paragraphs.
func writePDFRecommendations(pdf *fpdf.Fpdf, tr func(string) string, recs []schema.Recommendation, usable float64) {
	for i, r := range recs {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(usable, pdfLineHeight, tr(fmt.Sprintf("%d. [%s] %s: %s", i+1, r.Priority, r.Category, r.Message)), "", "L", false)
		pdf.SetFont("Helvetica", "", 9)
		if r.Action != "" {
			pdf.MultiCell(usable, pdfLineHeight-1, tr("Action: "+r.Action), "", "L", false)
		}
		if r.Rationale != "" {
			pdf.SetTextColor(90, 90, 90)
			pdf.MultiCell(usable, pdfLineHeight-1, tr("Why: "+r.Rationale), "", "L", false)
			pdf.SetTextColor(0, 0, 0)
		}
		pdf.Ln(1)
	}
}
