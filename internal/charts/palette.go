package charts

// AvatarPalette colors employees by rank
var AvatarPalette = []string{
	"#2563eb",
	"#16a34a",
	"#ea580c",
	"#9333ea",
	"#0ea5e9",
	"#f97316",
	"#dc2626",
	"#14b8a6",
}

// DropTypePalette colors the per-employee drop-type pie
var DropTypePalette = []string{
	"rgba(59, 130, 246, 0.8)",
	"rgba(16, 185, 129, 0.8)",
	"rgba(245, 158, 11, 0.8)",
	"rgba(239, 68, 68, 0.8)",
}

// DashboardPalette colors the dashboard-wide drop-type pie
var DashboardPalette = []string{
	"rgba(59, 130, 246, 0.8)",
	"rgba(126, 156, 146, 0.8)",
	"rgba(245, 158, 11, 0.8)",
	"rgba(239, 68, 68, 0.8)",
	"rgba(27, 244, 172, 0.9)",
}

// Line and bar fills
const (
	TrendColor    = "rgba(59, 130, 246, 1)"
	ShiftColor    = "rgba(22, 163, 74, 0.8)"
	EmployeeColor = "rgba(147, 51, 234, 0.8)"
	MonthlyColor  = "rgba(59, 130, 246, 0.8)"
)

// PaletteColor returns the palette entry for index i, wrapping around
func PaletteColor(palette []string, i int) string {
	if len(palette) == 0 {
		return ""
	}
	return palette[i%len(palette)]
}
