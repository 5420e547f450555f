package source

import (
	"context"
	"fmt"

	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/xuri/excelize/v2"
)

// XLSXSource reads one worksheet of a local workbook
type XLSXSource struct {
	path  string
	sheet string
}

// NewXLSXSource reads sheet from the workbook at path. An empty sheet name
// selects the first worksheet.
func NewXLSXSource(path, sheet string) *XLSXSource {
	return &XLSXSource{path: path, sheet: sheet}
}

func (s *XLSXSource) Name() string {
	return "xlsx:" + s.path + "/" + s.sheet
}

func (s *XLSXSource) Fetch(ctx context.Context) (types.SheetPayload, error) {
	if err := ctx.Err(); err != nil {
		return types.SheetPayload{}, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return types.SheetPayload{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return types.SheetPayload{}, ErrNoData
		}
		sheet = list[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return types.SheetPayload{}, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}
		values = append(values, cells)
	}
	return types.SheetPayload{Values: values}, nil
}
