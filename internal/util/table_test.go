package util

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFprintTable(t *testing.T) {
	var buf bytes.Buffer
	columns := []TableColumn{
		{Header: "METHOD", Key: "name"},
		{Header: "GROUP", Key: "group"},
	}
	FprintTable(&buf, columns, []map[string]interface{}{
		{"name": "getCurrentResolution", "group": "video"},
		{"name": "getGain", "group": "audio"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, "METHOD               GROUP", lines[0])
	assert.Equal(t, "-------------------- -----", lines[1])
	assert.True(t, strings.HasPrefix(lines[3], "getGain              audio"))
}

func TestFprintTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	FprintTable(&buf, []TableColumn{{Header: "A", Key: "a"}}, nil)
	assert.Equal(t, "No data to display\n", buf.String())
}

func TestDisplayWidthIgnoresANSI(t *testing.T) {
	assert.Equal(t, 5, getDisplayWidth("\033[32mvideo\033[0m"))
	assert.Equal(t, "ab  ", padStringToWidth("ab", 4))
	assert.Equal(t, "abc", clip("abcdef", 3))
	assert.Equal(t, "abcdef", clip("abcdef", 0))
}
