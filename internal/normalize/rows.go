package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dennisdiepolder/dropboard/internal/types"
)

// Rows flattens a payload into keyed rows. For the matrix form, row 0 is the
// header and header cell i keys value i of every later row. Blank cells are
// omitted and a blank header falls back to "col_i". Fully blank rows are
// skipped. No header or empty input yields an empty slice.
func Rows(payload types.SheetPayload) []types.Row {
	if len(payload.Objects) > 0 {
		return objectRows(payload.Objects)
	}
	return matrixRows(payload.Values)
}

func objectRows(objects []map[string]any) []types.Row {
	rows := make([]types.Row, 0, len(objects))
	for _, obj := range objects {
		row := make(types.Row, len(obj))
		for k, v := range obj {
			if isBlank(v) {
				continue
			}
			row[k] = v
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

func matrixRows(values [][]any) []types.Row {
	if len(values) == 0 {
		return []types.Row{}
	}

	headers := make([]string, len(values[0]))
	for i, cell := range values[0] {
		headers[i] = headerKey(cell, i)
	}

	rows := make([]types.Row, 0, len(values)-1)
	for _, cells := range values[1:] {
		row := make(types.Row, len(cells))
		for i, cell := range cells {
			if isBlank(cell) {
				continue
			}
			key := fmt.Sprintf("col_%d", i)
			if i < len(headers) {
				key = headers[i]
			}
			row[key] = cell
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

func headerKey(cell any, i int) string {
	if s := strings.TrimSpace(cellString(cell)); s != "" {
		return s
	}
	return fmt.Sprintf("col_%d", i)
}

func isBlank(v any) bool {
	switch c := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(c) == ""
	default:
		return false
	}
}

// cellString renders a cell as text. Whole numbers render without a
// fractional part so numeric ids survive the round trip.
func cellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(c), 'f', -1, 32)
	default:
		return fmt.Sprint(c)
	}
}
