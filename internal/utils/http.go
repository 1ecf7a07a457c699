package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxDetailBytes = 64 << 10

// ResponseDetail extracts a human readable error from a failed response. It
// prefers the `detail` field of a JSON body, then the body text, then the
// status line.
func ResponseDetail(resp *http.Response) string {
	fallback := fmt.Sprintf("HTTP %d", resp.StatusCode)
	if resp.Body == nil {
		return fallback
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDetailBytes))
	if err != nil {
		return fallback
	}

	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != nil {
		switch detail := payload.Detail.(type) {
		case string:
			if strings.TrimSpace(detail) != "" {
				return detail
			}
		default:
			if encoded, err := json.Marshal(detail); err == nil {
				return string(encoded)
			}
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fallback
}
