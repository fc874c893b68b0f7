package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DecodeJSON decodes the first JSON object in model output into v.
// Models routinely wrap JSON in markdown fences or surround it with
// prose, so both are tolerated.
func DecodeJSON(output string, v any) error {
	text := strings.TrimSpace(output)
	if text == "" {
		return errors.New("empty model output")
	}

	if strings.HasPrefix(text, "```") {
		if idx := strings.IndexByte(text, '\n'); idx >= 0 {
			text = text[idx+1:]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	if !strings.HasPrefix(text, "{") {
		start := strings.IndexByte(text, '{')
		end := strings.LastIndexByte(text, '}')
		if start < 0 || end <= start {
			return errors.New("no JSON object in model output")
		}
		text = text[start : end+1]
	}

	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	return nil
}
