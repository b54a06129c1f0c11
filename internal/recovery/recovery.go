// Package recovery extracts structured data from free-form model output.
// It is deliberately forgiving: a parse failure never propagates to the
// caller, it produces a conservative fallback value instead.
package recovery

import (
	"encoding/json"
	"strings"
)

type Kind string

const (
	KindParsed   Kind = "parsed"
	KindFallback Kind = "fallback"
)

// StageResult is the outcome of one pipeline stage. Fallback results always
// carry a complete, conservative Value so downstream stages can proceed.
type StageResult[T any] struct {
	Kind   Kind   `json:"kind"`
	Value  T      `json:"value"`
	Reason string `json:"reason,omitempty"`
}

func (r StageResult[T]) Degraded() bool { return r.Kind == KindFallback }

// FallbackBuilder produces the conservative substitute for a stage. The
// reason describes why the model output was unusable.
type FallbackBuilder[T any] func(reason string) T

// Recover extracts one JSON object from raw model text. It strips markdown
// code fences wherever they occur (models sometimes wrap sub-sections in
// stray fences, not just the whole payload), slices from the first '{' to
// the last '}', and unmarshals the slice. On any failure the fallback
// builder supplies the value.
func Recover[T any](raw string, build FallbackBuilder[T]) StageResult[T] {
	slice, ok := ExtractJSON(raw)
	if !ok {
		return StageResult[T]{
			Kind:   KindFallback,
			Value:  build("no JSON object found"),
			Reason: "no JSON object found",
		}
	}

	var value T
	if err := json.Unmarshal([]byte(slice), &value); err != nil {
		reason := err.Error()
		// Unequal brace counts mean the first-{/last-} slice probably cut
		// through prose braces; say so instead of hiding it.
		if strings.Count(slice, "{") != strings.Count(slice, "}") {
			reason += " (unbalanced braces in extracted slice)"
		}
		return StageResult[T]{
			Kind:   KindFallback,
			Value:  build(reason),
			Reason: reason,
		}
	}

	return StageResult[T]{Kind: KindParsed, Value: value}
}

// Fallback wraps a pre-built value as a degraded StageResult. Used when the
// model call itself failed and there is no text to recover from.
func Fallback[T any](value T, reason string) StageResult[T] {
	return StageResult[T]{Kind: KindFallback, Value: value, Reason: reason}
}

// ExtractJSON returns the candidate JSON slice of raw text, or false when
// no object span exists.
func ExtractJSON(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	text = stripFences(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || start >= end {
		return "", false
	}
	return text[start : end+1], true
}

// stripFences removes every triple-backtick fence marker, including the
// optional "json" language tag, anywhere in the text.
func stripFences(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```JSON", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}
