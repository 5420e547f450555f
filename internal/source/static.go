package source

import (
	"context"

	"github.com/dennisdiepolder/dropboard/internal/types"
)

// StaticSource serves a fixed payload. It backs SOURCE_MODE=mock.
type StaticSource struct {
	payload types.SheetPayload
}

// NewStaticSource serves payload on every fetch
func NewStaticSource(payload types.SheetPayload) *StaticSource {
	return &StaticSource{payload: payload}
}

// NewMockSource serves the demo rows
func NewMockSource() *StaticSource {
	return NewStaticSource(types.SheetPayload{Objects: MockRows()})
}

func (s *StaticSource) Name() string {
	return "static"
}

func (s *StaticSource) Fetch(ctx context.Context) (types.SheetPayload, error) {
	if err := ctx.Err(); err != nil {
		return types.SheetPayload{}, err
	}
	return s.payload, nil
}

// MockRows returns a fresh copy of the demo rows
func MockRows() []map[string]any {
	type demo struct {
		timestamp, name, fin, date, photo, shift, email, month string
		total, multi, heavy, walkup, double, amount            float64
	}
	rows := []demo{
		{"2025-01-15T08:30:00Z", "Alice Johnson", "FIN001", "2025-01-15", "https://example.com/waybills/FIN001.jpg", "Morning", "alice.johnson@example.com", "Jan 2025", 45, 12, 6, 10, 4, 3250},
		{"2025-01-22T16:45:00Z", "Brian Lee", "FIN002", "2025-01-22", "https://example.com/waybills/FIN002.jpg", "Evening", "brian.lee@example.com", "Jan 2025", 52, 18, 9, 14, 6, 4120},
		{"2025-02-10T09:15:00Z", "Carla Mendes", "FIN003", "2025-02-10", "https://example.com/waybills/FIN003.jpg", "Morning", "carla.mendes@example.com", "Feb 2025", 48, 15, 7, 11, 5, 3585},
		{"2025-02-18T13:20:00Z", "Dev Patel", "FIN004", "2025-02-18", "https://example.com/waybills/FIN004.jpg", "Afternoon", "dev.patel@example.com", "Feb 2025", 55, 20, 11, 16, 7, 4390},
		{"2025-03-05T07:50:00Z", "Ella Martinez", "FIN005", "2025-03-05", "https://example.com/waybills/FIN005.jpg", "Morning", "ella.martinez@example.com", "Mar 2025", 61, 22, 13, 18, 8, 4685},
	}

	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, map[string]any{
			"Timestamp":              r.timestamp,
			"NAME":                   r.name,
			"FIN":                    r.fin,
			"DATE":                   r.date,
			"Total Drops":            r.total,
			"Multi Drops":            r.multi,
			"Heavy Drops":            r.heavy,
			"Upload Way Sheet Photo": r.photo,
			"Shift":                  r.shift,
			"Walkup Drop Count":      r.walkup,
			"Double Drop Count":      r.double,
			"Email Address":          r.email,
			"TotalDrops":             r.total,
			"Amount":                 r.amount,
			"Month":                  r.month,
		})
	}
	return out
}
