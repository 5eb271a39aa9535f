package ui

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"snapify/pkg/syncer"
)

// TimeLayout is how check times are shown
const TimeLayout = "2006-01-02 15:04:05"

// ToolTitle heads the result table
const ToolTitle = "Snapify"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FFFF")).
			Bold(true).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#39FF14")).
			Bold(true).
			Align(lipgloss.Center).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Align(lipgloss.Center).
			Padding(0, 1)

	failedCellStyle = cellStyle.
			Foreground(lipgloss.Color("#FF6700"))

	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#B0B0B0"))
)

var resultHeaders = []string{"User", "Status", "New Items", "Downloaded", "Checked At"}

// ResultRows converts pass results into table cells
func ResultRows(rows []syncer.UserSyncResult) [][]string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{
			r.Username,
			string(r.Status),
			strconv.Itoa(r.NewItems),
			strconv.Itoa(r.Downloaded),
			r.CheckedAt.Format(TimeLayout),
		})
	}
	return cells
}

// RenderResults draws the titled result table. It returns an empty string
// when there is nothing to show.
func RenderResults(rows []syncer.UserSyncResult) string {
	if len(rows) == 0 {
		return ""
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(resultHeaders...).
		Rows(ResultRows(rows)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(rows) && !rows[row].OK():
				return failedCellStyle
			default:
				return cellStyle
			}
		})

	return lipgloss.JoinVertical(lipgloss.Center, titleStyle.Render(ToolTitle), t.String())
}

// PrintPassSummary writes one coloured line per user
func PrintPassSummary(w io.Writer, rows []syncer.UserSyncResult) {
	for _, r := range rows {
		switch {
		case r.Status == syncer.StatusFetchFailed:
			fmt.Fprintln(w, Red(fmt.Sprintf("%s: Story fetch failed.", r.Username)))
		case !r.OK():
			fmt.Fprintln(w, Red(fmt.Sprintf("%s: No story data found.", r.Username)))
		case r.Downloaded > 0:
			fmt.Fprintln(w, Green(fmt.Sprintf("%s: %d new media downloaded.", r.Username, r.Downloaded)))
		default:
			fmt.Fprintln(w, Yellow(fmt.Sprintf("%s: 0 new media downloaded.", r.Username)))
		}
	}
}
