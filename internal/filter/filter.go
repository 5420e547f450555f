package filter

import (
	"strings"
	"time"

	"github.com/dennisdiepolder/dropboard/internal/coerce"
	"github.com/dennisdiepolder/dropboard/internal/daterange"
	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/rs/zerolog"
)

// Scope selects which records a view may see
type Scope string

const (
	// ScopeAll shows every record (admin views)
	ScopeAll Scope = "all"
	// ScopeOwn shows only the signed-in user's records
	ScopeOwn Scope = "own"
)

// IdentityResult is the outcome of the identity stage
type IdentityResult struct {
	Records []types.DropRecord
	// FailOpen is set when no identity was available and every record passed
	FailOpen bool
}

// NormalizeEmail trims and lowercases an email for comparison
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ByIdentity keeps the records owned by email. With no email the stage is a
// no-op: all records pass and FailOpen is reported.
func ByIdentity(records []types.DropRecord, email string, logger zerolog.Logger) IdentityResult {
	want := NormalizeEmail(email)
	if want == "" {
		logger.Warn().
			Int("records", len(records)).
			Msg("identity unavailable, identity filter skipped")
		return IdentityResult{Records: records, FailOpen: true}
	}

	out := make([]types.DropRecord, 0, len(records))
	for _, r := range records {
		if NormalizeEmail(r.Email) == want {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		logger.Debug().Str("email", want).Msg("no records for identity")
	}
	return IdentityResult{Records: out}
}

// RecordDate resolves a record's day from Date, falling back to Timestamp
func RecordDate(r types.DropRecord, loc *time.Location) (time.Time, bool) {
	raw := r.Date
	if strings.TrimSpace(raw) == "" {
		raw = r.Timestamp
	}
	return coerce.ParseDate(raw, loc)
}

// ByRange keeps records whose date falls inside bounds. Records without a
// parseable date are dropped. Unbounded input is returned untouched.
func ByRange(records []types.DropRecord, bounds daterange.Bounds, loc *time.Location) []types.DropRecord {
	if bounds.Unbounded() {
		return records
	}

	out := make([]types.DropRecord, 0, len(records))
	for _, r := range records {
		d, ok := RecordDate(r, loc)
		if !ok {
			continue
		}
		if bounds.Contains(d) {
			out = append(out, r)
		}
	}
	return out
}

// Result is the outcome of Apply
type Result struct {
	Records          []types.DropRecord
	IdentityFailOpen bool
}

// Apply runs the identity stage (own scope only) and then the range stage
func Apply(records []types.DropRecord, scope Scope, email string, bounds daterange.Bounds, loc *time.Location, logger zerolog.Logger) Result {
	var res Result
	if scope == ScopeOwn {
		id := ByIdentity(records, email, logger)
		records = id.Records
		res.IdentityFailOpen = id.FailOpen
	}
	res.Records = ByRange(records, bounds, loc)
	return res
}
