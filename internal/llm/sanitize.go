package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ParseObject turns a raw completion into a JSON object. Models wrap
// JSON in Markdown fences or surround it with prose often enough that
// recovery is part of the contract: strip fences, parse, and on failure
// extract the first balanced {...} substring and parse that.
func ParseObject(raw string) (map[string]any, error) {
	text := stripFences(strings.TrimSpace(raw))
	if text == "" {
		return nil, &ErrEmptyResponse{}
	}

	obj, err := decodeObject(text)
	if err == nil {
		return obj, nil
	}
	// Parsed but not an object: an invalid-data failure, not a format one.
	var invalid *ErrInvalidData
	if errors.As(err, &invalid) {
		return nil, err
	}

	candidate, ok := extractObject(text)
	if !ok {
		return nil, &ErrMalformedOutput{
			Raw: raw,
			Err: fmt.Errorf("no JSON object found in completion"),
		}
	}

	obj, err = decodeObject(candidate)
	if err != nil {
		return nil, &ErrMalformedOutput{Raw: raw, Err: err}
	}
	return obj, nil
}

func decodeObject(text string) (map[string]any, error) {
	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, err
	}
	obj, ok := parsed.(map[string]any)
	if !ok || obj == nil {
		return nil, &ErrInvalidData{
			Content: json.RawMessage(text),
			Err:     fmt.Errorf("completion is not a JSON object"),
		}
	}
	return obj, nil
}

// stripFences removes a wrapping Markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	body := s[3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		// Drop the fence line itself ("```json" etc).
		body = body[nl+1:]
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}

// extractObject returns the first balanced top-level {...} substring.
// Brace counting respects JSON string literals and escapes.
func extractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
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
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
