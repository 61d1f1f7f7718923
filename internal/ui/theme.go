package ui

import "github.com/charmbracelet/lipgloss"

// Theme holds the styles of the now-playing view.
type Theme struct {
	Name      string
	Accent    lipgloss.Style
	Dim       lipgloss.Style
	Text      lipgloss.Style
	Title     lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Border    lipgloss.Style
	Highlight lipgloss.Style
}

var themeRegistry = map[string]func() Theme{
	"rainbow": Rainbow,
	"mono":    Monochrome,
	"green":   GreenTerminal,
	"nocolor": NoColor,
}

func ThemeNames() []string {
	return []string{"rainbow", "mono", "green", "nocolor"}
}

// GetTheme returns a theme by name, Rainbow when unknown. noColor (the
// NO_COLOR environment variable) wins over the name.
func GetTheme(name string, noColor bool) Theme {
	if noColor {
		return NoColor()
	}
	if fn, ok := themeRegistry[name]; ok {
		return fn()
	}
	return Rainbow()
}

func ValidTheme(name string) bool {
	_, ok := themeRegistry[name]
	return ok
}

func Rainbow() Theme {
	return Theme{
		Name:      "rainbow",
		Accent:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6FF7")),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6F93")),
		Text:      lipgloss.NewStyle().Foreground(lipgloss.Color("#E6E6FA")),
		Title:     lipgloss.NewStyle().Foreground(lipgloss.Color("#8EEBFF")).Bold(true),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F56")).Bold(true),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD166")).Bold(true),
		Border:    lipgloss.NewStyle().Foreground(lipgloss.Color("#7C7CFF")).Border(lipgloss.RoundedBorder()).Padding(0, 1),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA7C4")).Bold(true),
	}
}

func Monochrome() Theme {
	white := lipgloss.Color("#FFFFFF")
	return Theme{
		Name:      "mono",
		Accent:    lipgloss.NewStyle().Foreground(white).Bold(true),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
		Text:      lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")),
		Title:     lipgloss.NewStyle().Foreground(white).Bold(true),
		Error:     lipgloss.NewStyle().Foreground(white).Bold(true).Underline(true),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).Bold(true),
		Border:    lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Border(lipgloss.NormalBorder()).Padding(0, 1),
		Highlight: lipgloss.NewStyle().Foreground(white).Reverse(true),
	}
}

// GreenTerminal mimics a phosphor display, close to the LCD of a pocket player.
func GreenTerminal() Theme {
	bright := lipgloss.Color("#00FF00")
	medium := lipgloss.Color("#00CC00")
	dim := lipgloss.Color("#005500")
	return Theme{
		Name:      "green",
		Accent:    lipgloss.NewStyle().Foreground(bright).Bold(true),
		Dim:       lipgloss.NewStyle().Foreground(dim),
		Text:      lipgloss.NewStyle().Foreground(medium),
		Title:     lipgloss.NewStyle().Foreground(bright).Bold(true),
		Error:     lipgloss.NewStyle().Foreground(bright).Bold(true).Reverse(true),
		Warning:   lipgloss.NewStyle().Foreground(medium).Bold(true),
		Border:    lipgloss.NewStyle().Foreground(lipgloss.Color("#008800")).Border(lipgloss.NormalBorder()).Padding(0, 1),
		Highlight: lipgloss.NewStyle().Foreground(bright).Underline(true),
	}
}

// NoColor uses only bold, underline and reverse.
func NoColor() Theme {
	reset := lipgloss.NewStyle()
	return Theme{
		Name:      "nocolor",
		Accent:    reset.Bold(true),
		Dim:       reset,
		Text:      reset,
		Title:     reset.Bold(true),
		Error:     reset.Bold(true).Underline(true),
		Warning:   reset.Bold(true),
		Border:    reset.Border(lipgloss.NormalBorder()).Padding(0, 1),
		Highlight: reset.Reverse(true),
	}
}
