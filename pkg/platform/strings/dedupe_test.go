package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	assert.Equal(t, []string{"foo", "bar"}, DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "}))
	assert.Empty(t, DedupeAndTrim(nil))
	assert.Equal(t, []string{"Foo", "foo"}, DedupeAndTrim([]string{"Foo", "foo"}), "case-sensitive")
}

func TestDedupeAndTrimLower(t *testing.T) {
	assert.Equal(t, []string{"pothole", "road"}, DedupeAndTrimLower([]string{"  Pothole ", "road", "pothole"}))
	assert.Empty(t, DedupeAndTrimLower([]string{"", "   "}))
}
