package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dennisdiepolder/dropboard/internal/types"
)

// Fallback messages shown when a fetch error carries no usable text
const (
	DashboardFallbackMessage   = "Unable to load dashboard data. Please try again later."
	PerformanceFallbackMessage = "Unable to load performance data. Please try again later."
)

// ErrNoData is returned when a source has nothing to read from
var ErrNoData = errors.New("source has no data")

// Source fetches the raw sheet payload
type Source interface {
	Fetch(ctx context.Context) (types.SheetPayload, error)
	// Name identifies the source in logs and cache keys
	Name() string
}

// Reloader is a source that can bypass its cache
type Reloader interface {
	Reload(ctx context.Context) (types.SheetPayload, error)
}

// Reload fetches src fresh, bypassing any cache it has
func Reload(ctx context.Context, src Source) (types.SheetPayload, error) {
	if r, ok := src.(Reloader); ok {
		return r.Reload(ctx)
	}
	return src.Fetch(ctx)
}

// FetchError is an upstream failure with a status code and optional message
type FetchError struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

func (e *FetchError) Error() string {
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return fmt.Sprintf("fetch failed with status %d", e.Code)
}

// ErrorMessage turns a fetch error into text for the user. A FetchError
// without a message, or an error with blank text, yields fallback.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}

	var fe *FetchError
	if errors.As(err, &fe) {
		if msg := strings.TrimSpace(fe.Message); msg != "" {
			return msg
		}
		return fallback
	}

	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}
