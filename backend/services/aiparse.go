package services

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrUnparsable is returned when every salvage strategy failed.
var ErrUnparsable = errors.New("response contains no parsable JSON array")

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// ExtractJSONArray pulls a JSON array out of free-form model output and
// unmarshals it into v (a pointer to a slice). The upstream text generator has
// no output-format guarantee, so strategies are tried in order:
//
//  1. parse the full text as-is
//  2. parse the first [...] substring
//  3. strip Markdown code fences and parse
//  4. sanitize (trailing commas, bare backslashes) and retry 1-3
func ExtractJSONArray(raw string, v interface{}) error {
	for _, candidate := range arrayCandidates(raw) {
		if json.Unmarshal([]byte(candidate), v) == nil {
			return nil
		}
	}

	sanitized := SanitizeJSON(raw)
	for _, candidate := range arrayCandidates(sanitized) {
		if json.Unmarshal([]byte(candidate), v) == nil {
			return nil
		}
	}

	return ErrUnparsable
}

func arrayCandidates(raw string) []string {
	candidates := []string{strings.TrimSpace(raw)}

	if slice := firstArraySlice(raw); slice != "" {
		candidates = append(candidates, slice)
	}

	unfenced := stripCodeFences(raw)
	if unfenced != raw {
		candidates = append(candidates, unfenced)
		if slice := firstArraySlice(unfenced); slice != "" {
			candidates = append(candidates, slice)
		}
	}

	return candidates
}

// firstArraySlice returns the substring from the first '[' to the last ']',
// or "" when no such span exists.
func firstArraySlice(raw string) string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

func stripCodeFences(raw string) string {
	out := strings.TrimSpace(raw)
	if !strings.HasPrefix(out, "```") {
		return raw
	}

	out = strings.TrimPrefix(out, "```")
	// Language tag on the opening fence ("```json").
	if idx := strings.Index(out, "\n"); idx != -1 {
		firstLine := strings.TrimSpace(out[:idx])
		if len(firstLine) <= 10 && !strings.ContainsAny(firstLine, "[{") {
			out = out[idx+1:]
		}
	}
	out = strings.TrimSuffix(strings.TrimSpace(out), "```")
	return strings.TrimSpace(out)
}

// SanitizeJSON repairs the two malformations models produce most often:
// trailing commas before a closing brace/bracket, and bare backslashes that
// do not form a valid JSON escape.
func SanitizeJSON(raw string) string {
	out := trailingCommaRe.ReplaceAllString(raw, "$1")
	return escapeBareBackslashes(out)
}

func escapeBareBackslashes(raw string) string {
	var sb strings.Builder
	sb.Grow(len(raw))

	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if ch != '\\' {
			sb.WriteByte(ch)
			continue
		}
		if i+1 < len(raw) && isJSONEscape(raw[i+1]) {
			sb.WriteByte(ch)
			sb.WriteByte(raw[i+1])
			i++
			continue
		}
		sb.WriteString(`\\`)
	}

	return sb.String()
}

func isJSONEscape(ch byte) bool {
	switch ch {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
		return true
	}
	return false
}
