package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HelpOverlay renders a help screen
type HelpOverlay struct {
	width  int
	height int
	styles *Styles
}

// NewHelpOverlay creates a new help overlay
func NewHelpOverlay(styles *Styles) *HelpOverlay {
	return &HelpOverlay{
		styles: styles,
	}
}

// SetSize sets the overlay dimensions
func (h *HelpOverlay) SetSize(width, height int) {
	h.width = width
	h.height = height
}

// View renders the help overlay
func (h *HelpOverlay) View() string {
	overlayWidth := 60
	if h.width > 0 {
		overlayWidth = min(60, max(20, h.width-4))
	}

	// Styles for help overlay
	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(h.styles.ColorPrimary).
		Padding(1, 2).
		Width(overlayWidth)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(h.styles.ColorPrimary).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(h.styles.ColorAccent).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(h.styles.ColorWarning).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(h.styles.ColorText)

	mutedStyle := lipgloss.NewStyle().
		Foreground(h.styles.ColorTextMuted).
		Italic(true)

	var b strings.Builder

	// Title
	b.WriteString(titleStyle.Render("📖 habits - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	// Global
	b.WriteString(sectionStyle.Render("Global"))
	b.WriteString("\n")
	b.WriteString(keyStyle.Render("Tab") + descStyle.Render("Switch pane") + "\n")
	b.WriteString(keyStyle.Render("1 / 2 / 3") + descStyle.Render("Jump to pane") + "\n")
	b.WriteString(keyStyle.Render("S") + descStyle.Render("Sync now") + "\n")
	b.WriteString(keyStyle.Render("?") + descStyle.Render("Toggle help") + "\n")
	b.WriteString(keyStyle.Render("q") + descStyle.Render("Quit") + "\n")

	// Timeline
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Timeline"))
	b.WriteString("\n")
	b.WriteString(keyStyle.Render("a") + descStyle.Render("Add block") + "\n")
	b.WriteString(keyStyle.Render("x") + descStyle.Render("Delete block") + "\n")
	b.WriteString(keyStyle.Render("+ / -") + descStyle.Render("Grow/shrink 15 min") + "\n")
	b.WriteString(keyStyle.Render("h / l") + descStyle.Render("Previous/next day") + "\n")
	b.WriteString(keyStyle.Render("t") + descStyle.Render("Jump to today") + "\n")
	b.WriteString(keyStyle.Render("j / k") + descStyle.Render("Select block") + "\n")

	// Timer
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Timer"))
	b.WriteString("\n")
	b.WriteString(keyStyle.Render("Space") + descStyle.Render("Start/stop timer") + "\n")
	b.WriteString(keyStyle.Render("x") + descStyle.Render("Stop") + "\n")
	b.WriteString(keyStyle.Render("j / k") + descStyle.Render("Select habit") + "\n")

	// Habits
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Habits"))
	b.WriteString("\n")
	b.WriteString(keyStyle.Render("a") + descStyle.Render("Add habit") + "\n")
	b.WriteString(keyStyle.Render("Space / d") + descStyle.Render("Toggle today") + "\n")
	b.WriteString(keyStyle.Render("x") + descStyle.Render("Delete habit") + "\n")
	b.WriteString(keyStyle.Render("j / k") + descStyle.Render("Navigate up/down") + "\n")

	// Input mode
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Input Mode"))
	b.WriteString("\n")
	b.WriteString(keyStyle.Render("Enter") + descStyle.Render("Save / next field") + "\n")
	b.WriteString(keyStyle.Render("Esc") + descStyle.Render("Cancel") + "\n")

	// Footer
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Press ? or Esc to close"))

	content := overlayStyle.Render(b.String())

	// Center the overlay
	return lipgloss.Place(
		h.width,
		h.height,
		lipgloss.Center,
		lipgloss.Center,
		content,
	)
}
