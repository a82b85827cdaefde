package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const fence = "```"

// StripCodeFence returns the content of the first markdown code block in raw,
// or raw itself (trimmed) when there is none. A fence only opens at the start
// of a line, so backticks quoted inside a JSON value are left alone. Handled
// variants:
//
//	{"risks": []}                    bare
//	```\n{"risks": []}\n```          fenced
//	```json\n{"risks": []}\n```      fenced with a language tag
//	```json {"risks": []}```         fenced on a single line
//	Here you go:\n```json ... ```    fenced block amid prose
//	```json\n{"risks": []}           unterminated opening fence
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)

	start := openingFence(s)
	if start < 0 {
		return s
	}

	rest := s[start+len(fence):]
	rest = rest[languageTagLen(rest):]

	if end := strings.Index(rest, "\n"+fence); end >= 0 {
		rest = rest[:end]
	} else if end := strings.LastIndex(rest, fence); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// openingFence returns the index of the first fence that starts a line, or -1.
func openingFence(s string) int {
	for off := 0; off < len(s); {
		i := strings.Index(s[off:], fence)
		if i < 0 {
			return -1
		}
		i += off
		if i == 0 || s[i-1] == '\n' {
			return i
		}
		off = i + len(fence)
	}
	return -1
}

// languageTagLen returns the length of an info string such as "json" at the
// start of s.
func languageTagLen(s string) int {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '+':
			continue
		default:
			return i
		}
	}
	return len(s)
}

// ParseRisks decodes the extraction response into risk records, preserving
// the model's order.
//
// It returns ErrEmptyResponse when raw holds no text and ErrMalformedResponse
// when the text is not a JSON object with a "risks" array of objects. A null
// or empty "risks" array is an empty, successful result. Missing keys become
// empty fields; non-string values are rendered as text.
func ParseRisks(raw string) ([]RiskRecord, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrEmptyResponse
	}

	// A response that already holds a complete object is decoded as is, so
	// backticks inside its values never reach the fence handling.
	body := outermostObject(trimmed)
	if !json.Valid([]byte(body)) {
		body = StripCodeFence(trimmed)
		if body == "" {
			return nil, ErrEmptyResponse
		}
		body = outermostObject(body)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	risksRaw, ok := doc["risks"]
	if !ok {
		return nil, fmt.Errorf("%w: missing \"risks\" key", ErrMalformedResponse)
	}
	if string(bytes.TrimSpace(risksRaw)) == "null" {
		return []RiskRecord{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(risksRaw, &items); err != nil {
		return nil, fmt.Errorf("%w: \"risks\" is not an array", ErrMalformedResponse)
	}

	records := make([]RiskRecord, 0, len(items))
	for i, item := range items {
		var obj map[string]any
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()
		if err := dec.Decode(&obj); err != nil || obj == nil {
			return nil, fmt.Errorf("%w: risk %d is not an object", ErrMalformedResponse, i)
		}

		records = append(records, RiskRecord{
			Category:      textField(obj, "risk_category"),
			Summary:       textField(obj, "risk_summary"),
			TriggerPhrase: textField(obj, "trigger_phrase"),
		})
	}

	return records, nil
}

// outermostObject trims prose before the first '{' and after the last '}'.
func outermostObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

func textField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
