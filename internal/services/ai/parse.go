package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/quietgrove/intently/internal/apperr"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// StripFences removes a markdown code fence wrapping s, if present. Content
// outside the first fenced block is discarded; unfenced input is returned
// trimmed and unchanged.
func StripFences(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}

// decodeLoose strips fences then JSON-decodes into v. A parse failure is a
// malformed-response error, never a guess. Used for the free-text advice
// modes where the model is only asked, not forced, to answer in JSON.
func decodeLoose(raw string, v any) error {
	cleaned := StripFences(raw)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return apperr.Malformed(err)
	}
	return nil
}

// decodeStrict JSON-decodes forced tool-call arguments into v. The schema
// constrains the shape upstream, but a decode failure is still surfaced as a
// malformed response rather than trusted.
func decodeStrict(arguments string, v any) error {
	if err := json.Unmarshal([]byte(arguments), v); err != nil {
		return apperr.Malformed(err)
	}
	return nil
}
