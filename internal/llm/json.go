package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Model output rarely arrives as clean JSON: it gets wrapped in prose,
// fenced in markdown, or decorated with smart quotes. ExtractObject applies
// a fixed fallback ladder so downstream decoding only ever sees either a
// valid top-level object or nothing.

// Fenced code blocks: ```<lang>\n ... \n```
var fenceRe = regexp.MustCompile("(?s)(?:```|~~~)\\s*([a-zA-Z0-9_-]+)?\\s*\\n(.*?)(?:```|~~~)")

var smartQuotes = strings.NewReplacer(
	"“", `"`, // left double
	"”", `"`, // right double
	"‘", "'", // left single
	"’", "'", // right single
	" ", " ", // NBSP
)

// ExtractObject extracts the first top-level JSON object from raw model
// output. The ladder: direct parse, fenced blocks (json-labeled first),
// then a balanced-brace scan over the whole string. Returns ok=false when
// no valid object can be recovered; the caller falls back to its default.
func ExtractObject(raw string) (json.RawMessage, bool) {
	s := normalizeText(raw)
	if s == "" {
		return nil, false
	}

	// 1. The whole payload is JSON.
	if obj, ok := tryObject(s); ok {
		return obj, true
	}

	// 2. Fenced code blocks, json-labeled ones first.
	blocks := fenceRe.FindAllStringSubmatch(s, -1)
	for _, pass := range []bool{true, false} {
		for _, m := range blocks {
			labeled := strings.EqualFold(strings.TrimSpace(m[1]), "json")
			if labeled != pass {
				continue
			}
			content := normalizeText(m[2])
			if obj, ok := tryObject(content); ok {
				return obj, true
			}
			if inner := firstBalancedObject(content); inner != "" {
				if obj, ok := tryObject(inner); ok {
					return obj, true
				}
			}
		}
	}

	// 3. Balanced extraction on the whole string.
	if inner := firstBalancedObject(s); inner != "" {
		if obj, ok := tryObject(inner); ok {
			return obj, true
		}
	}

	return nil, false
}

func normalizeText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "\uFEFF")
	return smartQuotes.Replace(s)
}

func tryObject(s string) (json.RawMessage, bool) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &probe); err != nil {
		return nil, false
	}
	return json.RawMessage(s), true
}

// firstBalancedObject finds the first top-level {...} honoring string and
// escape rules, so braces inside string values do not confuse the depth.
func firstBalancedObject(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
