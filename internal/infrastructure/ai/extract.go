package ai

import (
	"errors"
	"regexp"
	"strings"
)

var (
	jsonTagPattern   = regexp.MustCompile(`(?s)<json>(.*?)</json>`)
	jsonBracePattern = regexp.MustCompile(`\{[\s\S]+\}`)
)

var errNoJSONBlock = errors.New("no parseable JSON block in model response")

// extractJSONBlock pulls the structured payload out of model prose. The
// prompt asks for a <json> tag; a bare top-level object is accepted as a
// fallback for models that drop the tag.
func extractJSONBlock(text string) ([]byte, error) {
	if match := jsonTagPattern.FindStringSubmatch(text); match != nil {
		return []byte(strings.TrimSpace(match[1])), nil
	}
	if match := jsonBracePattern.FindString(text); match != "" {
		return []byte(match), nil
	}
	return nil, errNoJSONBlock
}
