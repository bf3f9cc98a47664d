// Package cli holds shared terminal printing helpers for the non-interactive
// commands.
package cli

import (
	"fmt"
	"strings"

	"github.com/buger/goterm"
	"github.com/fatih/color"
)

var (
	// Colors.
	chatColor   = color.New(color.Bold)
	detailColor = color.New(color.FgCyan)
	formatColor = color.New(color.FgGreen)
	pinColor    = color.New(color.FgYellow)
	errColor    = color.New(color.FgRed)

	width = goterm.Width()
)

// Separator printed to cli.
func Separator() {
	separator := strings.Repeat("-", width)
	formatColor.Println(separator)
}

// Title printed to cli.
func Title(text string, args ...any) {
	title := "      " + fmt.Sprintf(text, args...) + "      "
	leftWidth := (width - len(title)) / 2
	separator1 := strings.Repeat("-", leftWidth)
	separator2 := strings.Repeat("-", width-len(title)-len(separator1))
	output := fmt.Sprintf("%s%s%s", separator1, title, separator2)
	formatColor.Println(output)
}

// ChatHeader printed to cli.
func ChatHeader(text string, args ...any) {
	chatColor.Printf(text, args...)
}

// Detail printed to cli.
func Detail(text string, args ...any) {
	detailColor.Printf(text, args...)
}

// Pinned printed to cli.
func Pinned(text string, args ...any) {
	pinColor.Printf(text, args...)
}

// Error printed to cli.
func Error(text string, args ...any) {
	errColor.Printf(text, args...)
}
