package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	headingColor = color.New(color.FgCyan, color.Bold)
)

func printSuccess(w io.Writer, format string, args ...any) {
	successColor.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	warningColor.Fprintf(w, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// printSection writes a heading followed by body, indented block style.
func printSection(w io.Writer, title, body string) {
	headingColor.Fprintln(w, title)
	body = strings.TrimRight(body, "\n")
	if body == "" {
		fmt.Fprintln(w, "  (empty)")
		return
	}
	for _, line := range strings.Split(body, "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w)
}
