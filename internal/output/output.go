// Package output renders CLI status lines and progress for transfers.
package output

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("37"))  // dark green
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))   // red
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))  // yellow
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))  // cyan
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250")) // light grey
)

var symbols = map[string]string{
	"pass":  "✓",
	"fail":  "✗",
	"arrow": "→",
}

func PrintSuccess(text string) {
	fmt.Println(successStyle.Render(symbols["pass"] + " " + text))
}

func PrintError(text string) {
	fmt.Println(errorStyle.Render(symbols["fail"] + " " + text))
}

func PrintWarning(text string) {
	fmt.Println(warningStyle.Render(text))
}

func PrintInfo(text string) {
	fmt.Println(infoStyle.Render(text))
}

// ProgressLine renders one in-place progress update for a transfer.
func ProgressLine(written, total int64, rate float64) string {
	speed := humanize.Bytes(uint64(rate)) + "/s"
	if total <= 0 {
		return detailStyle.Render(fmt.Sprintf("%s %s %s", humanize.Bytes(uint64(written)), symbols["arrow"], speed))
	}
	percent := float64(written) / float64(total) * 100
	return detailStyle.Render(fmt.Sprintf("%.1f%% (%s / %s) %s %s",
		percent,
		humanize.Bytes(uint64(written)),
		humanize.Bytes(uint64(total)),
		symbols["arrow"],
		speed))
}

// RenderProgress writes the progress line in place on the current terminal
// row; callers print a newline when the transfer finishes.
func RenderProgress(written, total int64, rate float64) {
	fmt.Printf("\r\033[K%s", ProgressLine(written, total, rate))
}
