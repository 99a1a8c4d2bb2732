package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/stateviz/pkg/pipeline"
)

// uiOut receives status output. Artifacts written to stdout stay clean.
var uiOut io.Writer = os.Stderr

// =============================================================================
// Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle renders headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	// StyleHighlight renders machine IDs.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	// StyleLink renders addresses.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	// StyleDim renders secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleCached  = lipgloss.NewStyle().Foreground(colorGreen)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

// Status icons and their colours.
var (
	iconSuccess = lipgloss.NewStyle().Foreground(colorGreen).Render("✓")
	iconError   = lipgloss.NewStyle().Foreground(colorRed).Render("✗")
	iconWarning = lipgloss.NewStyle().Foreground(colorYellow).Render("!")
	iconInfo    = lipgloss.NewStyle().Foreground(colorGray).Render("›")
	iconArrow   = StyleDim.Render("→")
)

// =============================================================================
// Status lines
// =============================================================================

func status(icon, msg string) {
	fmt.Fprintln(uiOut, icon+" "+msg)
}

func printSuccess(format string, args ...any) { status(iconSuccess, fmt.Sprintf(format, args...)) }
func printError(format string, args ...any)   { status(iconError, fmt.Sprintf(format, args...)) }
func printInfo(format string, args ...any)    { status(iconInfo, fmt.Sprintf(format, args...)) }

func printWarning(format string, args ...any) {
	status(iconWarning, styleWarning.Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile reports a written artifact.
func printFile(path string) {
	fmt.Fprintln(uiOut, "  "+iconArrow+" "+styleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(uiOut, keyStyle.Render(key)+" "+styleValue.Render(value))
}

// printNextStep prints a suggested command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(uiOut, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Machine summaries
// =============================================================================

// printMachine prints one rendered machine with its counts and cache state:
//
//	› light  5 states · 7 transitions · layout cached · 12ms
func printMachine(mr *pipeline.MachineResult) {
	fmt.Fprintln(uiOut, iconInfo+" "+StyleHighlight.Render(mr.Definition.ID)+"  "+machineSummary(mr))
}

func machineSummary(mr *pipeline.MachineResult) string {
	parts := []string{
		StyleDim.Render(plural(mr.Stats.NodeCount, "state")),
		StyleDim.Render(plural(mr.Stats.EdgeCount, "transition")),
		cacheState("layout", mr.CacheInfo.LayoutHit),
	}
	if mr.CacheInfo.RenderHit {
		parts = append(parts, cacheState("render", true))
	}
	elapsed := mr.Stats.LayoutTime + mr.Stats.RenderTime
	parts = append(parts, StyleDim.Render(elapsed.Round(time.Millisecond).String()))
	return strings.Join(parts, StyleDim.Render(" · "))
}

func cacheState(stage string, hit bool) string {
	if hit {
		return styleCached.Render(stage + " cached")
	}
	return StyleDim.Render(stage + " fresh")
}

func plural(n int, noun string) string {
	switch {
	case n == 1:
		return "1 " + noun
	case strings.HasSuffix(noun, "y"):
		return fmt.Sprintf("%d %sies", n, strings.TrimSuffix(noun, "y"))
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
