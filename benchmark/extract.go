package benchmark

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedJSON  = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	answerShape = regexp.MustCompile(`(?s)(\{[^{}]*"path"[^{}]*"analysis"[^{}]*\})`)
)

// ExtractJSON recovers a JSON value from a model reply. The whole text is
// tried first, then fenced code blocks, then a flat object mentioning both
// "path" and "analysis", then the span from the first '{' to the last '}'.
// It returns nil when nothing decodes.
func ExtractJSON(text string) any {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil && v != nil {
		return v
	}

	for _, re := range []*regexp.Regexp{fencedJSON, answerShape} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			var obj map[string]any
			if err := json.Unmarshal([]byte(m[1]), &obj); err == nil {
				return obj
			}
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		var obj map[string]any
		if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err == nil {
			return obj
		}
	}

	return nil
}

// ValidateResponseFormat checks that v is {"path": string, "analysis": string}
// with a non-blank path. The returned message describes the first problem.
func ValidateResponseFormat(v any) (bool, string) {
	obj, ok := v.(map[string]any)
	if !ok {
		return false, "Response is not a valid JSON object"
	}

	path, hasPath := obj["path"]
	if !hasPath {
		return false, "Missing 'path' field in response"
	}
	analysis, hasAnalysis := obj["analysis"]
	if !hasAnalysis {
		return false, "Missing 'analysis' field in response"
	}

	pathStr, ok := path.(string)
	if !ok {
		return false, "'path' field must be a string"
	}
	if _, ok := analysis.(string); !ok {
		return false, "'analysis' field must be a string"
	}
	if strings.TrimSpace(pathStr) == "" {
		return false, "'path' field cannot be empty"
	}

	return true, "Valid response format"
}
