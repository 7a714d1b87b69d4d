package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"cryptodata/pkg/utils"
)

// alignTable pads every cell to its column's display width and renders
// pipe-delimited lines. Row separatorRowIdx becomes a dash rule; pass -1
// for none.
func alignTable(table [][]string, separatorRowIdx int) []string {
	if len(table) == 0 {
		return nil
	}

	colCount := 0
	for _, row := range table {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	colWidths := make([]int, colCount)

	for rIdx, row := range table {
		if rIdx == separatorRowIdx {
			continue
		}

		for i := 0; i < len(row) && i < colCount; i++ {
			width := runewidth.StringWidth(row[i])
			if width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	// Separator needs at least "---".
	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	result := make([]string, 0, len(table))

	for i, row := range table {
		var sb strings.Builder

		sb.WriteString("|")

		isSeparator := i == separatorRowIdx

		for j := 0; j < colCount; j++ {
			sb.WriteString(" ")

			if isSeparator {
				sb.WriteString(strings.Repeat("-", colWidths[j]))
			} else {
				content := ""
				if j < len(row) {
					content = row[j]
				}

				sb.WriteString(content)

				if padding := colWidths[j] - runewidth.StringWidth(content); padding > 0 {
					sb.WriteString(strings.Repeat(" ", padding))
				}
			}

			sb.WriteString(" |")
		}

		result = append(result, sb.String())
	}

	return result
}

// escapeCell keeps cell text on one line and free of column delimiters.
func escapeCell(strs *utils.StringHelper, s string) string {
	return strs.NormalizeWhitespace(strings.ReplaceAll(s, "|", `\|`))
}
