package api

import (
	"fmt"
	"time"

	"github.com/dennisdiepolder/dropboard/internal/coerce"
	"github.com/dennisdiepolder/dropboard/internal/dashboard"
	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/xuri/excelize/v2"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	recordsSheet    = "Records"
	summarySheet    = "Summary"
)

// buildWorkbook writes the view's table rows, in display order, and its KPI
// summary into a new workbook. The caller closes it.
func buildWorkbook(state dashboard.ViewState, rows []types.DropRecord, currency string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		f.Close()
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	columns := state.Table.Columns
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(recordsSheet, cell, col.Label)
	}
	if len(columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		f.SetCellStyle(recordsSheet, "A1", last, bold)
	}

	for r, row := range rows {
		for i, col := range columns {
			value := col.Value(row)
			if p, ok := value.(*float64); ok {
				if p == nil {
					continue
				}
				value = *p
			}
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			if err := f.SetCellValue(recordsSheet, cell, value); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		f.Close()
		return nil, err
	}
	s := state.Summary
	lines := [][2]any{
		{"Range", string(state.Range)},
		{"Records", s.RecordCount},
		{"Total Drops", s.TotalDrops},
		{"Single Drops", s.SingleDrops()},
		{"Multi Drops", s.MultiDrops},
		{"Heavy Drops", s.HeavyDrops},
		{"Walkup Drops", s.WalkupDrops},
		{"Double Drops", s.DoubleDrops},
		{"Active Employees", s.ActiveEmployees},
		{"Active Days", s.ActiveDays},
	}
	if s.Amount != nil {
		lines = append(lines, [2]any{"Total Amount", coerce.FormatAmount(*s.Amount, currency)})
	}
	for i, line := range lines {
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), line[0])
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), line[1])
	}
	f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(lines)), bold)

	return f, nil
}

func exportFilename(state dashboard.ViewState) string {
	stamp := state.FetchedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}
	return fmt.Sprintf("%s-%s-%s.xlsx", state.Kind, state.Range, stamp.Format("20060102"))
}
