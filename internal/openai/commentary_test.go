package openai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeSummary(t *testing.T) {
	assert.Equal(t, "Minimum Risk", sanitizeSummary("  Minimum Risk \n"))
	long := strings.Repeat("x", 5000)
	assert.Len(t, sanitizeSummary(long), 4000)
}

func TestNewCommentator(t *testing.T) {
	assert.NotNil(t, NewCommentator("sk-test"))
}
