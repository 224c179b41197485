package tools

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeRedactsSensitiveKeys(t *testing.T) {
	args := map[string]any{
		"api_token":     "sk-live-abcdef",
		"user_password": "hunter2",
		"title":         "buy milk",
	}

	out := Sanitize(args)
	assert.Equal(t, redactedPlaceholder, out["api_token"])
	assert.Equal(t, redactedPlaceholder, out["user_password"])
	assert.Equal(t, "buy milk", out["title"])
	assert.Equal(t, "sk-live-abcdef", args["api_token"], "input map was modified")
}

func TestSanitizeTruncatesLongStrings(t *testing.T) {
	long := strings.Repeat("a", 500)
	out := Sanitize(map[string]any{"description": long})

	got := out["description"].(string)
	assert.True(t, strings.HasSuffix(got, "...(truncated)"))
	assert.Less(t, len(got), 200)
}

func TestSanitizeRecursesIntoNested(t *testing.T) {
	args := map[string]any{
		"meta": map[string]any{"refresh_token": "abc"},
		"list": []any{map[string]any{"secret_key": "xyz"}, "plain"},
	}

	out := Sanitize(args)
	meta := out["meta"].(map[string]any)
	assert.Equal(t, redactedPlaceholder, meta["refresh_token"])

	list := out["list"].([]any)
	nested := list[0].(map[string]any)
	assert.Equal(t, redactedPlaceholder, nested["secret_key"])
	assert.Equal(t, "plain", list[1])
}

func TestSanitizeNil(t *testing.T) {
	assert.Nil(t, Sanitize(nil))
}
