package ui

import (
	"github.com/snagarohit/minimalhabits/internal/config"

	"github.com/charmbracelet/lipgloss"
)

// defaultTrackPalette colors timeline lanes when the theme does not
// provide its own. Habits cycle through it in creation order.
var defaultTrackPalette = []string{
	"#7C3AED", // violet
	"#10B981", // emerald
	"#F59E0B", // amber
	"#3B82F6", // blue
	"#EC4899", // pink
	"#14B8A6", // teal
}

// Styles holds all application styles, initialized with theme configuration.
type Styles struct {
	// Colors
	ColorPrimary   lipgloss.Color
	ColorMuted     lipgloss.Color
	ColorDanger    lipgloss.Color
	ColorWarning   lipgloss.Color
	ColorSuccess   lipgloss.Color
	ColorAccent    lipgloss.Color
	ColorBg        lipgloss.Color
	ColorBgLight   lipgloss.Color
	ColorText      lipgloss.Color
	ColorTextMuted lipgloss.Color

	// Component styles
	TitleStyle       lipgloss.Style
	DateStyle        lipgloss.Style
	PaneStyle        lipgloss.Style
	PaneFocusedStyle lipgloss.Style
	PaneTitleStyle   lipgloss.Style

	SelectedStyle lipgloss.Style

	HabitDoneIcon    string
	HabitUndoneIcon  string
	HabitStreakStyle lipgloss.Style

	TimerRunningStyle lipgloss.Style
	TimerStoppedStyle lipgloss.Style
	TimerHabitStyle   lipgloss.Style

	// Timeline lane styles, one per palette color.
	trackStyles []lipgloss.Style
	trackEmpty  lipgloss.Style

	HelpStyle    lipgloss.Style
	HelpKeyStyle lipgloss.Style

	StatusStyle lipgloss.Style
	ErrorStyle  lipgloss.Style

	InputPromptStyle lipgloss.Style
	InputTextStyle   lipgloss.Style

	StatLabelStyle lipgloss.Style
	StatValueStyle lipgloss.Style

	// Sync status styles
	SyncSyncedStyle  lipgloss.Style
	SyncPendingStyle lipgloss.Style
	SyncErrorStyle   lipgloss.Style
	SyncOfflineStyle lipgloss.Style
}

// NewStyles creates a new Styles instance from the given config.
// If a theme color is empty, it uses the appropriate default.
func NewStyles(cfg *config.Config) *Styles {
	return NewStylesFromTheme(&cfg.Theme)
}

// NewStylesFromTheme creates a new Styles instance from a ThemeConfig.
// If a theme color is empty, it uses the appropriate default.
func NewStylesFromTheme(theme *config.ThemeConfig) *Styles {
	s := &Styles{}

	// Initialize colors from config with fallbacks to defaults
	s.ColorPrimary = colorOrDefault(theme.Primary, "#7C3AED")
	s.ColorMuted = colorOrDefault(theme.Muted, "#6B7280")

	// Fixed semantic colors (not configurable from theme)
	s.ColorDanger = lipgloss.Color("#EF4444")
	s.ColorWarning = lipgloss.Color("#F59E0B")
	s.ColorSuccess = lipgloss.Color("#10B981")
	s.ColorAccent = colorOrDefault(theme.Accent, "#3B82F6")

	// Background and text colors
	s.ColorBg = colorOrDefault(theme.Background, "#1F2937")
	s.ColorBgLight = lipgloss.Color("#374151")
	s.ColorText = colorOrDefault(theme.Text, "#F9FAFB")
	s.ColorTextMuted = lipgloss.Color("#9CA3AF")

	palette := theme.Tracks
	if len(palette) == 0 {
		palette = defaultTrackPalette
	}
	s.trackStyles = make([]lipgloss.Style, len(palette))
	for i, hex := range palette {
		s.trackStyles[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
	}
	s.trackEmpty = lipgloss.NewStyle().Foreground(s.ColorMuted)

	s.initComponentStyles()

	return s
}

// colorOrDefault returns the lipgloss.Color from hex string, or default if empty.
func colorOrDefault(hex, defaultHex string) lipgloss.Color {
	if hex != "" {
		return lipgloss.Color(hex)
	}
	return lipgloss.Color(defaultHex)
}

// TrackStyle returns the lane style for the given habit index, cycling
// through the palette.
func (s *Styles) TrackStyle(habitIndex int) lipgloss.Style {
	if len(s.trackStyles) == 0 {
		return s.trackEmpty
	}
	if habitIndex < 0 {
		habitIndex = 0
	}
	return s.trackStyles[habitIndex%len(s.trackStyles)]
}

// TrackEmptyStyle returns the style for unoccupied timeline cells.
func (s *Styles) TrackEmptyStyle() lipgloss.Style {
	return s.trackEmpty
}

// initComponentStyles initializes all component styles based on the color palette.
func (s *Styles) initComponentStyles() {
	// Title bar
	s.TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(s.ColorText).
		Background(s.ColorPrimary).
		Padding(0, 1)

	// Date in title bar
	s.DateStyle = lipgloss.NewStyle().
		Foreground(s.ColorTextMuted)

	// Pane styles
	s.PaneStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.ColorMuted).
		Padding(0, 1)

	s.PaneFocusedStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.ColorPrimary).
		Padding(0, 1)

	s.PaneTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(s.ColorPrimary).
		MarginBottom(1)

	s.SelectedStyle = lipgloss.NewStyle().
		Background(s.ColorBgLight).
		Foreground(s.ColorText).
		Bold(true)

	// Habit styles
	s.HabitDoneIcon = lipgloss.NewStyle().Foreground(s.ColorSuccess).Render("●")
	s.HabitUndoneIcon = lipgloss.NewStyle().Foreground(s.ColorMuted).Render("○")

	s.HabitStreakStyle = lipgloss.NewStyle().
		Foreground(s.ColorWarning).
		Bold(true)

	// Timer styles
	s.TimerRunningStyle = lipgloss.NewStyle().
		Foreground(s.ColorSuccess).
		Bold(true)

	s.TimerStoppedStyle = lipgloss.NewStyle().
		Foreground(s.ColorMuted)

	s.TimerHabitStyle = lipgloss.NewStyle().
		Foreground(s.ColorAccent).
		Bold(true)

	// Help bar
	s.HelpStyle = lipgloss.NewStyle().
		Foreground(s.ColorTextMuted)

	s.HelpKeyStyle = lipgloss.NewStyle().
		Foreground(s.ColorAccent).
		Bold(true)

	// Status messages
	s.StatusStyle = lipgloss.NewStyle().
		Foreground(s.ColorSuccess).
		Italic(true)

	s.ErrorStyle = lipgloss.NewStyle().
		Foreground(s.ColorDanger).
		Bold(true)

	// Input
	s.InputPromptStyle = lipgloss.NewStyle().
		Foreground(s.ColorPrimary).
		Bold(true)

	s.InputTextStyle = lipgloss.NewStyle().
		Foreground(s.ColorText)

	// Summary stats
	s.StatLabelStyle = lipgloss.NewStyle().
		Foreground(s.ColorTextMuted)

	s.StatValueStyle = lipgloss.NewStyle().
		Foreground(s.ColorText).
		Bold(true)

	// Sync status styles
	s.SyncSyncedStyle = lipgloss.NewStyle().
		Foreground(s.ColorSuccess)

	s.SyncPendingStyle = lipgloss.NewStyle().
		Foreground(s.ColorWarning)

	s.SyncErrorStyle = lipgloss.NewStyle().
		Foreground(s.ColorDanger).
		Bold(true)

	s.SyncOfflineStyle = lipgloss.NewStyle().
		Foreground(s.ColorMuted)
}

// RenderHelp renders help text with key bindings using the given styles.
func (s *Styles) RenderHelp(keys ...string) string {
	var result string
	for i := 0; i < len(keys); i += 2 {
		if i > 0 {
			result += "  "
		}
		key := keys[i]
		desc := keys[i+1]
		result += s.HelpKeyStyle.Render("["+key+"]") + " " + s.HelpStyle.Render(desc)
	}
	return result
}
