// Package parse extracts structured payloads from free-text Oracle replies.
package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// fencePattern matches opening and closing markdown code fences.
	fencePattern = regexp.MustCompile("```(?:json)?")
	// objectPattern spans from the first '{' to the last '}' across lines.
	objectPattern = regexp.MustCompile(`(?s)\{.*\}`)
)

// ParseError reports an Oracle reply that did not contain a decodable object.
type ParseError struct {
	// Candidate is the substring that was handed to the JSON decoder.
	Candidate string
	// Err is the underlying decode error.
	Err error
}

func (e *ParseError) Error() string {
	preview := e.Candidate
	if runes := []rune(preview); len(runes) > 80 {
		preview = string(runes[:80]) + "..."
	}
	return fmt.Sprintf("parse oracle response %q: %v", preview, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Payload is a decoded JSON object from an Oracle reply.
type Payload map[string]any

// Candidate returns the substring of text that Extract would decode.
func Candidate(text string) string {
	cleaned := fencePattern.ReplaceAllString(text, "")
	if match := objectPattern.FindString(cleaned); match != "" {
		return match
	}
	return strings.TrimSpace(cleaned)
}

// Extract decodes the JSON object embedded in text. Code fences and any
// commentary around the outermost braces are ignored. Text without braces is
// decoded as a whole.
func Extract(text string) (Payload, error) {
	candidate := Candidate(text)

	var payload Payload
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil, &ParseError{Candidate: candidate, Err: err}
	}
	if payload == nil {
		return nil, &ParseError{Candidate: candidate, Err: errors.New("payload is not a JSON object")}
	}
	return payload, nil
}

// String returns the field as text. Scalar non-string values are formatted;
// objects and arrays are re-encoded as JSON.
func (p Payload) String(field string) (string, bool) {
	v, ok := p[field]
	if !ok || v == nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return "", false
		}
		return string(b), true
	default:
		return fmt.Sprint(val), true
	}
}

// Strings returns the non-empty string items of an array field.
// Non-string items are dropped.
func (p Payload) Strings(field string) []string {
	raw, ok := p[field].([]any)
	if !ok {
		return nil
	}
	items := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		items = append(items, s)
	}
	return items
}
