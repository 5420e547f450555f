package filter

import (
	"strings"

	"github.com/dennisdiepolder/dropboard/internal/types"
)

// Query holds the optional field filters accepted by the stateless endpoints
type Query struct {
	Month string `json:"month,omitempty"`
	Shift string `json:"shift,omitempty"`
	Email string `json:"email,omitempty"`
}

// Empty reports whether no field filter is set
func (q Query) Empty() bool {
	return q.Month == "" && q.Shift == "" && q.Email == ""
}

// ByQuery narrows records by month (substring), shift (exact) and email
// (substring). Matching is case-insensitive.
func ByQuery(records []types.DropRecord, q Query) []types.DropRecord {
	if q.Empty() {
		return records
	}

	month := strings.ToLower(strings.TrimSpace(q.Month))
	shift := strings.ToLower(strings.TrimSpace(q.Shift))
	email := strings.ToLower(strings.TrimSpace(q.Email))

	out := make([]types.DropRecord, 0, len(records))
	for _, r := range records {
		if month != "" && !strings.Contains(strings.ToLower(r.Month), month) {
			continue
		}
		if shift != "" && strings.ToLower(r.Shift) != shift {
			continue
		}
		if email != "" && !strings.Contains(strings.ToLower(r.Email), email) {
			continue
		}
		out = append(out, r)
	}
	return out
}
