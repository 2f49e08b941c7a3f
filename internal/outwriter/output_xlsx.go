package outwriter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/pulsecheck/schema"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Summary"
	maxSheetName  = 31 // Excel limit
	defaultColumn = 16.0
	firstColumn   = 28.0
)

// writeXLSX renders a workbook with a summary sheet and one sheet per table.
func writeXLSX(w io.Writer, view schema.AnalysisSummary, tables []table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	overview := [][]any{
		{"Range start", schema.FormatDay(view.Range.Start)},
		{"Range end", schema.FormatDay(view.Range.End)},
		{"As of", schema.FormatDay(view.AsOf)},
		{"Days", view.DayCount},
		{"Recent window (days)", view.Metadata.RecentWindowDays},
		{"Skipped records", view.Metadata.DroppedRecords},
		{"Recommendations", len(view.Recommendations)},
	}
	for i, row := range overview {
		if err := f.SetSheetRow(summarySheet, cellName(1, i+1), &row); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", firstColumn); err != nil {
		return err
	}

	used := map[string]bool{summarySheet: true}
	for _, t := range tables {
		name := sheetName(t.Name, used)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, t, headerStyle); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", name, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// writeSheet fills one sheet with a styled header row and the table body.
func writeSheet(f *excelize.File, sheet string, t table, headerStyle int) error {
	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", cellName(len(t.Header), 1), headerStyle); err != nil {
		return err
	}

	for r, row := range t.Rows {
		values := make([]any, len(row))
		for i, cell := range row {
			values[i] = cellValue(cell)
		}
		if err := f.SetSheetRow(sheet, cellName(1, r+2), &values); err != nil {
			return err
		}
	}
	if t.Note != "" {
		if err := f.SetCellValue(sheet, cellName(1, len(t.Rows)+3), t.Note); err != nil {
			return err
		}
	}

	last, err := excelize.ColumnNumberToName(max(len(t.Header), 1))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", last, defaultColumn); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", firstColumn); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// cellValue stores numeric cells as numbers so spreadsheets can chart them.
func cellValue(cell string) any {
	if v, err := strconv.ParseFloat(cell, 64); err == nil {
		return v
	}
	return cell
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// sheetName trims name to the Excel limit and keeps it unique.
func sheetName(name string, used map[string]bool) string {
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	candidate := name
	for i := 2; used[candidate]; i++ {
		suffix := "_" + strconv.Itoa(i)
		candidate = name[:min(len(name), maxSheetName-len(suffix))] + suffix
	}
	used[candidate] = true
	return candidate
}
