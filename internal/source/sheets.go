package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/dennisdiepolder/dropboard/internal/types"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsSource reads a range from a Google spreadsheet
type SheetsSource struct {
	svc           *sheets.Service
	spreadsheetID string
	readRange     string
}

// NewSheetsSource creates a source authenticated with an API key. Extra
// options are applied after the key.
func NewSheetsSource(ctx context.Context, apiKey, spreadsheetID, readRange string, opts ...option.ClientOption) (*SheetsSource, error) {
	if spreadsheetID == "" || readRange == "" {
		return nil, fmt.Errorf("sheets source needs a spreadsheet id and range")
	}

	all := make([]option.ClientOption, 0, len(opts)+1)
	if apiKey != "" {
		all = append(all, option.WithAPIKey(apiKey))
	}
	all = append(all, opts...)

	svc, err := sheets.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsSource{svc: svc, spreadsheetID: spreadsheetID, readRange: readRange}, nil
}

func (s *SheetsSource) Name() string {
	return "sheets:" + s.spreadsheetID + "/" + s.readRange
}

// Fetch returns the range as a header matrix
func (s *SheetsSource) Fetch(ctx context.Context) (types.SheetPayload, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return types.SheetPayload{}, &FetchError{Code: gerr.Code, Message: gerr.Message}
		}
		return types.SheetPayload{}, fmt.Errorf("sheets values get: %w", err)
	}

	values := make([][]any, 0, len(resp.Values))
	for _, row := range resp.Values {
		values = append(values, row)
	}
	return types.SheetPayload{Values: values}, nil
}
