package verifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ShayCichocki/critiq/pkg/models"
)

// ErrUnparsable is returned when the judge output contains no usable
// JSON verdict.
var ErrUnparsable = errors.New("unparsable verification output")

// ParseVerdict extracts a VerificationVerdict from raw judge output.
// Models often wrap JSON in markdown fences or surround it with prose,
// so the parser strips fences and falls back to the outermost brace
// pair before giving up.
func ParseVerdict(raw string) (*models.VerificationVerdict, error) {
	text := stripFences(raw)

	candidate := text
	if !strings.HasPrefix(strings.TrimSpace(candidate), "{") {
		candidate = outermostObject(text)
		if candidate == "" {
			return nil, fmt.Errorf("%w: no JSON object found", ErrUnparsable)
		}
	}

	verdict := &models.VerificationVerdict{}
	if err := json.Unmarshal([]byte(candidate), verdict); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	// A verdict with no decision and no task entries is an empty shell,
	// not a judgment.
	if verdict.FinalDecision == "" && len(verdict.TaskVerifications) == 0 {
		return nil, fmt.Errorf("%w: JSON object carries no verdict fields", ErrUnparsable)
	}

	return verdict, nil
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// Drop the opening fence line (``` or ```json).
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		return s
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// outermostObject returns the substring from the first '{' to its
// matching '}' (tracking strings and escapes), or "" when unbalanced.
func outermostObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
