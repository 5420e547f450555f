package types

import "time"

// Role is the access level resolved for an authenticated email
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// RoleConfig lists the emails granted each role
type RoleConfig struct {
	AdminEmails []string `json:"adminEmails" validate:"dive,required,email"`
	UserEmails  []string `json:"userEmails" validate:"dive,required,email"`
}

// RoleAssignment is a single persisted email -> role row
type RoleAssignment struct {
	Email string `json:"email" dynamodbav:"Email"`
	Role  Role   `json:"role" dynamodbav:"Role"`
}

// SheetPayload is the raw result of a data source fetch. Exactly one of
// Objects (rows already keyed by header) or Values (row 0 is the header) is
// expected to be set.
type SheetPayload struct {
	Objects []map[string]any `json:"objects,omitempty"`
	Values  [][]any          `json:"values,omitempty"`
}

// Empty reports whether the payload carries no rows at all
func (p SheetPayload) Empty() bool {
	return len(p.Objects) == 0 && len(p.Values) == 0
}

// Row is one spreadsheet row keyed by header
type Row map[string]any

// Severity represents alert severity levels
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is a data-quality or performance flag raised for an employee
type Alert struct {
	Rule        string   `json:"rule"`
	Severity    Severity `json:"severity"`
	EmployeeKey string   `json:"employeeKey"`
	Employee    string   `json:"employee"`
	Message     string   `json:"message"`
}

// RefreshNotice is pushed to websocket clients after the refresher reloads
// the data source
type RefreshNotice struct {
	Type        string    `json:"type"`
	FetchedAt   time.Time `json:"fetchedAt"`
	RecordCount int       `json:"recordCount"`
	TotalDrops  float64   `json:"totalDrops"`
	TotalAmount *float64  `json:"totalAmount,omitempty"`
	Error       string    `json:"error,omitempty"`

	// ByEmail holds the totals of each normalized employee email. It stays
	// server side and scopes the notice for non-admin clients.
	ByEmail map[string]NoticeTotals `json:"-"`
}

// NoticeTotals is the record count and drop total of one employee
type NoticeTotals struct {
	RecordCount int
	TotalDrops  float64
}

// NoticeTypeRefreshed is the RefreshNotice type for a completed reload
const NoticeTypeRefreshed = "records_refreshed"
