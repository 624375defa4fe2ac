// Package ui is the terminal surface: a styled prompt, role-colored output,
// and a line channel fed by a reader goroutine so the REPL can select
// between user input and cancellation.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	systemStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// Console writes styled conversation output and reads user lines.
type Console struct {
	w io.Writer
}

// NewConsole returns a console writing to stdout.
func NewConsole() *Console {
	return &Console{w: os.Stdout}
}

// Prompt prints the input marker without a trailing newline.
func (c *Console) Prompt() {
	fmt.Fprint(c.w, promptStyle.Render(">>> ")+" ")
}

// Assistant prints a final model answer.
func (c *Console) Assistant(text string) {
	fmt.Fprintln(c.w, assistantStyle.Render(text))
}

// System prints a session notice.
func (c *Console) System(text string) {
	fmt.Fprintln(c.w, systemStyle.Render("[SYSTEM] "+text))
}

// Warning prints a non-fatal complaint.
func (c *Console) Warning(text string) {
	fmt.Fprintln(c.w, warningStyle.Render("WARNING: "+text))
}

// Error prints a turn-level failure.
func (c *Console) Error(text string) {
	fmt.Fprintln(c.w, errorStyle.Render("ERROR: "+text))
}

// Lines starts a reader goroutine over r and returns a channel of input
// lines. The channel closes when r reaches EOF.
func Lines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			ch <- scanner.Text()
		}
		close(ch)
	}()
	return ch
}
