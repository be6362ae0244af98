package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary   = "Summary"
	sheetDetail    = "Matched"
	sheetUnmatched = "Unmatched"
)

// WriteWorkbook saves the summary, detail and unmatched tables as three
// sheets of one XLSX file.
func WriteWorkbook(path string, results []*CommuneResult) error {
	f := excelize.NewFile()
	defer f.Close()

	// the default sheet becomes the summary
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return err
	}

	sheets := []struct {
		name   string
		header []string
		rows   [][]string
		widths []float64
	}{
		{sheetSummary, summaryHeader, summaryRows(results), []float64{32, 12, 16, 14, 12, 14}},
		{sheetDetail, detailHeader, detailRows(results), []float64{24, 36, 60, 60, 60, 10}},
		{sheetUnmatched, unmatchedHeader, unmatchedRows(results), []float64{24, 36, 60, 60, 30, 60}},
	}

	for _, s := range sheets {
		if s.name != sheetSummary {
			if _, err := f.NewSheet(s.name); err != nil {
				return err
			}
		}
		if err := writeSheet(f, s.name, s.header, s.rows); err != nil {
			return fmt.Errorf("sheet %s: %w", s.name, err)
		}
		for i, width := range s.widths {
			col, _ := excelize.ColumnNumberToName(i + 1)
			_ = f.SetColWidth(s.name, col, col, width)
		}
	}

	idx, _ := f.GetSheetIndex(sheetSummary)
	f.SetActiveSheet(idx)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
