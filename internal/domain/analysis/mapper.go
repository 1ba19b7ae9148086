package analysis

import (
	"encoding/json"
	"errors"
	"strings"
)

// MapResponse parses a completion and checks it against schema. Nested values
// are returned exactly as the model produced them.
func MapResponse(raw string, schema Schema) (Result, error) {
	body := stripFence(strings.TrimSpace(raw))
	if body == "" {
		return nil, &MalformedResponseError{Err: errors.New("empty completion")}
	}

	var out Result
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}
	if out == nil {
		return nil, &MalformedResponseError{Err: errors.New("completion is not a JSON object")}
	}

	if missing := schema.Missing(out); len(missing) > 0 {
		return nil, &IncompleteResponseError{Missing: missing}
	}
	return out, nil
}

// stripFence removes a surrounding ```json ... ``` block some models add despite instructions.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
