package parse

import (
	"regexp"
	"strings"
)

// listItemPattern matches "1. item", "* item" and "- item" lines.
var listItemPattern = regexp.MustCompile(`^(\d+\.\s*|\*\s*|-\s*)(.*)`)

// ListItems extracts enumerated or bulleted items from text, one per line.
func ListItems(text string) []string {
	var items []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		match := listItemPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		if item := strings.TrimSpace(match[2]); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// CommaSplit splits text on commas. Text without a comma yields nil.
func CommaSplit(text string) []string {
	if !strings.Contains(text, ",") {
		return nil
	}
	var items []string
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

// quotedFieldPatterns holds precompiled patterns for the reply fields.
var quotedFieldPatterns = map[string]*regexp.Regexp{
	FieldSolution:         quotedFieldPattern(FieldSolution),
	FieldDecision:         quotedFieldPattern(FieldDecision),
	FieldCombinedSolution: quotedFieldPattern(FieldCombinedSolution),
}

func quotedFieldPattern(field string) *regexp.Regexp {
	return regexp.MustCompile(`"` + regexp.QuoteMeta(field) + `":\s*"(.*?)"`)
}

// QuotedField captures the string value of "field": "value" from text that is
// not valid JSON. The value ends at the next double quote.
func QuotedField(text, field string) (string, bool) {
	pattern, ok := quotedFieldPatterns[field]
	if !ok {
		pattern = quotedFieldPattern(field)
	}
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return match[1], true
}
