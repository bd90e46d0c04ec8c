package util

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// TableColumn represents a column in a table
type TableColumn struct {
	Header string
	Key    string // key to extract from data map
	Width  int    // calculated width
}

// RenderTable renders a table with dynamic column width calculation to stdout
func RenderTable(columns []TableColumn, data []map[string]interface{}) {
	FprintTable(os.Stdout, columns, data)
}

// FprintTable renders a table to w. When w is a terminal the last column is
// truncated to the terminal width.
func FprintTable(w io.Writer, columns []TableColumn, data []map[string]interface{}) {
	if len(data) == 0 {
		fmt.Fprintln(w, "No data to display")
		return
	}

	// Calculate column widths based on header and data
	for i := range columns {
		columns[i].Width = len(columns[i].Header)
		for _, row := range data {
			if value, exists := row[columns[i].Key]; exists {
				displayWidth := getDisplayWidth(fmt.Sprintf("%v", value))
				if displayWidth > columns[i].Width {
					columns[i].Width = displayWidth
				}
			}
		}
	}

	maxWidth := terminalWidth(w)

	var headerParts []string
	var separatorParts []string
	for _, col := range columns {
		headerParts = append(headerParts, fmt.Sprintf("%-*s", col.Width, col.Header))
		separatorParts = append(separatorParts, strings.Repeat("-", col.Width))
	}
	fmt.Fprintln(w, clip(strings.Join(headerParts, " "), maxWidth))
	fmt.Fprintln(w, clip(strings.Join(separatorParts, " "), maxWidth))

	for _, row := range data {
		var rowParts []string
		for _, col := range columns {
			value := ""
			if v, exists := row[col.Key]; exists {
				value = fmt.Sprintf("%v", v)
			}
			rowParts = append(rowParts, padStringToWidth(value, col.Width))
		}
		fmt.Fprintln(w, clip(strings.Join(rowParts, " "), maxWidth))
	}
}

// terminalWidth returns the width of w if it is a terminal, 0 otherwise
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

func clip(line string, width int) string {
	if width <= 0 || getDisplayWidth(line) <= width {
		return line
	}
	runes := []rune(removeANSICodes(line))
	if width > len(runes) {
		width = len(runes)
	}
	return string(runes[:width])
}

// removeANSICodes removes ANSI escape codes from a string for width calculation
func removeANSICodes(s string) string {
	for {
		start := strings.Index(s, "\033[")
		if start == -1 {
			break
		}
		end := strings.Index(s[start:], "m")
		if end == -1 {
			break
		}
		s = s[:start] + s[start+end+1:]
	}
	return s
}

// getDisplayWidth calculates the display width of a string, accounting for ANSI codes and Unicode characters
func getDisplayWidth(s string) int {
	return len([]rune(removeANSICodes(s)))
}

// padStringToWidth pads a string to a specific width, accounting for ANSI codes
func padStringToWidth(s string, width int) string {
	displayWidth := getDisplayWidth(s)
	if displayWidth >= width {
		return s
	}
	return s + strings.Repeat(" ", width-displayWidth)
}
