package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dennisdiepolder/dropboard/internal/types"
)

// HTTPSource fetches rows from a JSON endpoint that returns either an array
// of row objects or {"values": [[...], ...]}
type HTTPSource struct {
	url        string
	httpClient *http.Client
}

// NewHTTPSource creates a source for url
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (s *HTTPSource) Name() string {
	return "http:" + s.url
}

func (s *HTTPSource) Fetch(ctx context.Context) (types.SheetPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return types.SheetPayload{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return types.SheetPayload{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.SheetPayload{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return types.SheetPayload{}, &FetchError{Code: resp.StatusCode, Message: errorText(body)}
	}

	return DecodePayload(body)
}

// DecodePayload parses either accepted payload shape. Numbers are kept as
// json.Number so large values survive.
func DecodePayload(body []byte) (types.SheetPayload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return types.SheetPayload{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	if trimmed[0] == '[' {
		var objects []map[string]any
		if err := dec.Decode(&objects); err != nil {
			return types.SheetPayload{}, fmt.Errorf("decode row objects: %w", err)
		}
		return types.SheetPayload{Objects: objects}, nil
	}

	var wrapped struct {
		Values [][]any `json:"values"`
	}
	if err := dec.Decode(&wrapped); err != nil {
		return types.SheetPayload{}, fmt.Errorf("decode values: %w", err)
	}
	return types.SheetPayload{Values: wrapped.Values}, nil
}

// errorText pulls a message out of an error body, if there is one
func errorText(body []byte) string {
	var obj struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &obj); err != nil {
		return ""
	}
	if strings.TrimSpace(obj.Message) != "" {
		return obj.Message
	}
	switch e := obj.Error.(type) {
	case string:
		return e
	case map[string]any:
		if m, ok := e["message"].(string); ok {
			return m
		}
	}
	return ""
}
