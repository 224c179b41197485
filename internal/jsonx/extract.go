// Package jsonx provides JSON extraction utilities for parsing LLM output.
//
// Model output embeds JSON payloads in free text, and during streaming a
// payload may be truncated mid-object. This package extracts the usable
// JSON portion without guessing at incomplete content.
package jsonx

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LastCompleteObject returns the substring of s from the first '{' up to
// the last '}' that closes a syntactically valid JSON object. Returns
// false when s contains no complete object yet — typical while a streamed
// payload is still arriving.
func LastCompleteObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}

	// Walk closing braces from the end toward the start: the outermost
	// complete object wins.
	for end := strings.LastIndex(s, "}"); end > start; end = strings.LastIndex(s[:end], "}") {
		candidate := s[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	return "", false
}

// ExtractObject finds and returns the JSON object portion of a response
// string, handling markdown code fences and surrounding commentary.
func ExtractObject(response string) (string, error) {
	response = stripMarkdownCodeBlocks(response)

	var test any
	if err := json.Unmarshal([]byte(response), &test); err == nil {
		return response, nil
	}

	if obj, ok := LastCompleteObject(response); ok {
		return obj, nil
	}

	preview := response
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return "", fmt.Errorf("failed to extract valid JSON from response: %q", preview)
}

// Unmarshal extracts the JSON object from a response and decodes it into T.
func Unmarshal[T any](response string) (T, error) {
	var result T
	jsonStr, err := ExtractObject(response)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}

// stripMarkdownCodeBlocks removes code fence markers from a response.
// Handles patterns like ```json\n...\n``` or ```\n...\n```
func stripMarkdownCodeBlocks(response string) string {
	trimmed := strings.TrimSpace(response)

	if strings.HasPrefix(trimmed, "```json") {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "```json"))
	} else if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
	}

	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "```"))
	}

	return trimmed
}
